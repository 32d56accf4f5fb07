// Package device decodes the broadcast data of ANT+ sensor profiles. Each profile
// carries the channel configuration used to pair with it.
package device

import (
	"strings"

	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/message"
	"github.com/cockroachdb/errors"
)

var (
	// ErrUnknownPage is returned by Decode for a data page the profile does not decode.
	ErrUnknownPage = errors.New("[device] - unknown data page")
	// ErrUnknownProfile is returned by New for an unsupported profile.
	ErrUnknownProfile = errors.New("[device] - unknown profile")
)

const (
	// Frequency is the RF channel shared by ANT+ profiles, 2457 MHz.
	Frequency byte = 0x39
	// SearchTimeout is the search timeout used by every profile, 25 seconds.
	SearchTimeout byte = 10
)

// Device is a sensor that decodes broadcast data received on its channel.
type Device interface {
	// ChannelConfig returns the configuration used to open a channel to the device.
	ChannelConfig() channel.Config
	// Decode updates the device from a broadcast payload.
	Decode(data [message.PayloadSize]byte) error
	String() string
}

var profiles = map[string]func(deviceID uint16) Device{
	"hrm":    func(id uint16) Device { return NewHeartRateMonitor(id) },
	"power":  func(id uint16) Device { return NewPowerMeter(id) },
	"weight": func(id uint16) Device { return NewWeightScale(id) },
}

// New creates the device for a profile name: "hrm", "power" or "weight". A zero
// device id pairs with the first device found.
func New(profile string, deviceID uint16) (Device, error) {
	f, ok := profiles[strings.ToLower(profile)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProfile, "%q", profile)
	}
	return f(deviceID), nil
}

var types = map[byte]string{
	HeartRateMonitorType: "hrm",
	PowerMeterType:       "power",
	WeightScaleType:      "weight",
}

// FromConfig creates the device a channel configuration pairs with, using its device
// type to pick the profile.
func FromConfig(cfg channel.Config) (Device, error) {
	profile, ok := types[cfg.DeviceType]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProfile, "device type 0x%02X", cfg.DeviceType)
	}
	return New(profile, cfg.DeviceID)
}

func config(deviceID uint16, deviceType byte, period uint16) channel.Config {
	return channel.Config{
		DeviceID:    deviceID,
		DeviceType:  deviceType,
		ChannelType: 0x00,
		Frequency:   Frequency,
		Period:      period,
		Timeout:     SearchTimeout,
	}
}

func unknownPage(page byte) error { return errors.Wrapf(ErrUnknownPage, "0x%02X", page) }
