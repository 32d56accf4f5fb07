package device

import (
	"fmt"
	"time"

	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/message"
	"github.com/arya-analytics/ant/util/binary"
)

const (
	HeartRateMonitorType   byte   = 0x78
	HeartRateMonitorPeriod uint16 = 8070
	// pageToggle is set on every page of devices that send more than the legacy page.
	pageToggle = 0x80
	// requestDataPage is the common page used to ask a device for a data page.
	requestDataPage = 0x46
)

// Heart rate monitor data pages.
const (
	HRMPageDefault = iota
	HRMPageOperatingTime
	HRMPageManufacturer
	HRMPageProduct
	HRMPagePreviousBeat
	HRMPageSwimInterval
	HRMPageCapabilities
	HRMPageBattery
)

// HeartRateMonitor decodes the ANT+ heart rate profile. Every page carries the heart
// rate along with the timing of the last beat.
type HeartRateMonitor struct {
	channel.Config
	HeartRate     byte
	LastBeatEvent time.Duration
	BeatCount     byte
	// OperatingTime is the cumulative operating time in units of 2 seconds.
	OperatingTime   uint32
	ManufacturerID  byte
	SerialNumber    uint16
	HardwareVersion byte
	SoftwareVersion byte
	ModelNumber     byte
	// BatteryLevel is a percentage, or 0xFF when unsupported.
	BatteryLevel             byte
	FractionalBatteryVoltage byte
	DescriptiveBits          byte
}

var _ Device = (*HeartRateMonitor)(nil)

func NewHeartRateMonitor(deviceID uint16) *HeartRateMonitor {
	return &HeartRateMonitor{Config: config(deviceID, HeartRateMonitorType, HeartRateMonitorPeriod)}
}

// ChannelConfig implements Device.
func (h *HeartRateMonitor) ChannelConfig() channel.Config { return h.Config }

// Decode implements Device.
func (h *HeartRateMonitor) Decode(data [message.PayloadSize]byte) error {
	switch page := data[0] &^ pageToggle; page {
	case HRMPageDefault, HRMPagePreviousBeat, HRMPageSwimInterval, HRMPageCapabilities:
	case HRMPageOperatingTime:
		h.OperatingTime = binary.Combine(data[1:4])
	case HRMPageManufacturer:
		h.ManufacturerID = data[1]
		h.SerialNumber = uint16(binary.Combine(data[2:4]))
	case HRMPageProduct:
		h.HardwareVersion = data[1]
		h.SoftwareVersion = data[2]
		h.ModelNumber = data[3]
	case HRMPageBattery:
		h.BatteryLevel = data[1]
		h.FractionalBatteryVoltage = data[2]
		h.DescriptiveBits = data[3]
	default:
		return unknownPage(data[0])
	}
	h.LastBeatEvent = time.Duration(binary.Combine(data[4:6])) * time.Millisecond
	h.BeatCount = data[6]
	h.HeartRate = data[7]
	return nil
}

// Manufacturer returns the name of the device's manufacturer.
func (h *HeartRateMonitor) Manufacturer() string {
	switch h.ManufacturerID {
	case 1:
		return "Garmin"
	case 32:
		return "Wahoo Fitness"
	}
	return "Unknown"
}

// BatteryVoltage returns the battery voltage in volts.
func (h *HeartRateMonitor) BatteryVoltage() float32 {
	return float32(h.DescriptiveBits&0x0F) + float32(h.FractionalBatteryVoltage)/256
}

var batteryStatuses = [...]string{"Reserved", "New", "Good", "Ok", "Low", "Critical", "Reserved", "Invalid"}

// BatteryStatus describes the battery status reported on the battery page.
func (h *HeartRateMonitor) BatteryStatus() string {
	return batteryStatuses[(h.DescriptiveBits>>4)&0x07]
}

// RequestManufacturerInfo asks the device on the given channel to send its
// manufacturer page.
func (h *HeartRateMonitor) RequestManufacturerInfo(ch byte) message.Message {
	return message.AcknowledgeData(ch, requestPage(HRMPageManufacturer))
}

// RequestBatteryStatus asks the device on the given channel to send its battery page.
func (h *HeartRateMonitor) RequestBatteryStatus(ch byte) message.Message {
	return message.AcknowledgeData(ch, requestPage(HRMPageBattery))
}

func requestPage(page byte) [message.PayloadSize]byte {
	return [message.PayloadSize]byte{requestDataPage, 0xFF, 0xFF, 0xFF, 0xFF, 0x01, page, 0x01}
}

func (h *HeartRateMonitor) String() string {
	return fmt.Sprintf("Heart Rate: %d bpm (beat %d at %s)", h.HeartRate, h.BeatCount, h.LastBeatEvent)
}
