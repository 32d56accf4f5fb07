package device

import (
	"fmt"

	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/message"
	"github.com/arya-analytics/ant/util/binary"
)

const (
	WeightScaleType   byte   = 0x77
	WeightScalePeriod uint16 = 8192
	// WeightPageBody is the body weight page.
	WeightPageBody = 0x01
	// weightComputing is reported while the scale is still measuring.
	weightComputing = 0xFFFE
	// weightInvalid is reported when no weight is available.
	weightInvalid = 0xFFFF
)

const poundsPerKilogram = 2.20462

// WeightScale decodes the ANT+ weight scale profile.
type WeightScale struct {
	channel.Config
	// Weight is the body weight in kilograms.
	Weight float32
}

var _ Device = (*WeightScale)(nil)

func NewWeightScale(deviceID uint16) *WeightScale {
	return &WeightScale{Config: config(deviceID, WeightScaleType, WeightScalePeriod)}
}

// ChannelConfig implements Device.
func (w *WeightScale) ChannelConfig() channel.Config { return w.Config }

// Decode implements Device. A scale still measuring leaves Weight unchanged.
func (w *WeightScale) Decode(data [message.PayloadSize]byte) error {
	if data[0] != WeightPageBody {
		return unknownPage(data[0])
	}
	raw := binary.Combine(data[6:8])
	if raw == weightComputing || raw == weightInvalid {
		return nil
	}
	w.Weight = float32(raw) / 100
	return nil
}

// Pounds returns the body weight in pounds.
func (w *WeightScale) Pounds() float32 { return w.Weight * poundsPerKilogram }

func (w *WeightScale) String() string {
	return fmt.Sprintf("Weight: %.2f kg", w.Weight)
}
