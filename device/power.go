package device

import (
	"fmt"

	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/message"
	"github.com/arya-analytics/ant/util/binary"
)

const (
	PowerMeterType   byte   = 0x0B
	PowerMeterPeriod uint16 = 8192
	// PowerPageStandard is the power-only page.
	PowerPageStandard = 0x10
	// PowerPageCrankTorque is the crank torque page.
	PowerPageCrankTorque = 0x12
)

// PowerMeter decodes the ANT+ bicycle power profile.
type PowerMeter struct {
	channel.Config
	// Power is the instantaneous power in watts.
	Power uint16
	// Cadence is the instantaneous cadence in rpm, or 0xFF when unsupported.
	Cadence    byte
	EventCount byte
	// CrankTicks counts crank revolutions.
	CrankTicks byte
	// CrankPeriod is the accumulated crank period in units of 1/2048 s.
	CrankPeriod uint16
	// Torque is the accumulated torque in units of 1/32 Nm.
	Torque uint16
}

var _ Device = (*PowerMeter)(nil)

func NewPowerMeter(deviceID uint16) *PowerMeter {
	return &PowerMeter{Config: config(deviceID, PowerMeterType, PowerMeterPeriod)}
}

// ChannelConfig implements Device.
func (p *PowerMeter) ChannelConfig() channel.Config { return p.Config }

// Decode implements Device.
func (p *PowerMeter) Decode(data [message.PayloadSize]byte) error {
	switch data[0] {
	case PowerPageStandard:
		p.EventCount = data[1]
		p.Cadence = data[3]
		p.Power = uint16(binary.Combine(data[6:8]))
	case PowerPageCrankTorque:
		p.EventCount = data[1]
		p.CrankTicks = data[2]
		p.Cadence = data[3]
		p.CrankPeriod = uint16(binary.Combine(data[4:6]))
		p.Torque = uint16(binary.Combine(data[6:8]))
	default:
		return unknownPage(data[0])
	}
	return nil
}

func (p *PowerMeter) String() string {
	return fmt.Sprintf("Power: %d W, Cadence: %d rpm", p.Power, p.Cadence)
}
