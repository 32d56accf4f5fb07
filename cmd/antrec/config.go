package main

import (
	"os"

	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/device"
	"github.com/cockroachdb/errors"
	"github.com/flynn/json5"
)

// channelsConfig is the JSON5 file listing the channels to open, e.g.
//
//	{
//	  channels: [
//	    { number: 0, profile: "hrm" },
//	    { number: 1, profile: "power", device: 4242 },
//	  ],
//	}
type channelsConfig struct {
	Channels []channelEntry `json:"channels"`
}

type channelEntry struct {
	Number  byte   `json:"number"`
	Profile string `json:"profile"`
	// Device is the device number to pair with. Zero pairs with the first found.
	Device uint16 `json:"device"`
	// Transmission overrides the transmission type of the profile.
	Transmission byte `json:"transmission"`
}

type binding struct {
	number byte
	device device.Device
	config channel.Config
}

func loadChannels(path string) ([]binding, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseChannels(b)
}

func parseChannels(b []byte) ([]binding, error) {
	var cfg channelsConfig
	if err := json5.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrap(err, "invalid channel config")
	}
	if len(cfg.Channels) == 0 {
		return nil, errors.New("channel config lists no channels")
	}
	seen := make(map[byte]bool, len(cfg.Channels))
	bindings := make([]binding, 0, len(cfg.Channels))
	for _, e := range cfg.Channels {
		if e.Number >= channel.MaxChannels {
			return nil, errors.Newf("channel %d out of range, dongles support %d", e.Number, channel.MaxChannels)
		}
		if seen[e.Number] {
			return nil, errors.Newf("channel %d configured twice", e.Number)
		}
		seen[e.Number] = true
		d, err := device.New(e.Profile, e.Device)
		if err != nil {
			return nil, errors.Wrapf(err, "channel %d", e.Number)
		}
		c := d.ChannelConfig()
		c.TransmissionType = e.Transmission
		bindings = append(bindings, binding{number: e.Number, device: d, config: c})
	}
	return bindings, nil
}
