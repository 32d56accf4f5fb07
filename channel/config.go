package channel

import (
	"io"

	"github.com/arya-analytics/ant/util/binary"
)

// Config binds a channel to a device.
type Config struct {
	// DeviceID is the device number to pair with. Zero pairs with any device.
	DeviceID uint16
	// DeviceType is the ANT+ device profile, e.g. 0x78 for heart rate monitors.
	DeviceType byte
	// ChannelType is the ANT channel type, 0x00 for bidirectional receive.
	ChannelType byte
	// Frequency is the RF frequency as an offset in MHz from 2400 MHz.
	Frequency byte
	// Period is the message period in units of 1/32768 s.
	Period uint16
	// Timeout is the search timeout in units of 2.5 s.
	Timeout byte
	// TransmissionType is the ANT transmission type. Zero pairs with any type.
	TransmissionType byte
}

// Flush writes the config to w in a fixed size binary layout.
func (c Config) Flush(w io.Writer) error { return binary.Write(w, c) }

// Fill reads a config written by Flush.
func (c Config) Fill(r io.Reader) (Config, error) {
	err := binary.Read(r, &c)
	return c, err
}
