// Package channel implements the configuration sequence of a single ANT channel. A
// Channel is created in the Assign state and advances one step each time the dongle
// acknowledges the command sent for its current state, until it is open and receiving
// data from its device.
package channel

import (
	"fmt"

	"github.com/arya-analytics/ant/message"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// MaxChannels is the number of channels an ANT dongle provides.
const MaxChannels = 8

var (
	// ErrUnexpectedResponse is returned by Route when a channel that is opening or open
	// receives an acknowledgement for a command it did not send.
	ErrUnexpectedResponse = errors.New("[channel] - unexpected response")
	// ErrClosed is returned by Route when a closed channel receives an acknowledgement
	// other than the one for its close command.
	ErrClosed = errors.New("[channel] - channel closed")
)

type State byte

const (
	Assign State = iota
	SetDeviceID
	SetTimeout
	SetPeriod
	SetFrequency
	Open
	Closed
	Ready
)

var stateNames = [...]string{
	Assign:       "Assign",
	SetDeviceID:  "SetDeviceID",
	SetTimeout:   "SetTimeout",
	SetPeriod:    "SetPeriod",
	SetFrequency: "SetFrequency",
	Open:         "Open",
	Closed:       "Closed",
	Ready:        "Ready",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

// Channel drives the configuration of one channel slot on the dongle. A Channel is not
// safe for concurrent use.
type Channel struct {
	number byte
	state  State
	config Config
	logger *zap.Logger
}

// New creates a Channel in the Assign state. Calling Assign returns the first command
// to send.
func New(number byte, config Config, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		number: number,
		state:  Assign,
		config: config,
		logger: logger.With(zap.Uint8("channel", number)),
	}
}

// Number returns the slot the channel occupies.
func (c *Channel) Number() byte { return c.number }

// State returns the current configuration state.
func (c *Channel) State() State { return c.state }

// Config returns the device configuration of the channel.
func (c *Channel) Config() Config { return c.config }

// Assign returns the command that assigns the channel to the given network. It does
// not change the state of the channel.
func (c *Channel) Assign(network byte) message.Message {
	return message.AssignChannel(c.number, c.config.ChannelType, network)
}

// Route consumes an acknowledgement addressed to the channel. If the acknowledgement
// is the one the current state is waiting for, the channel advances and Route returns
// the next command to send, if any. Any other acknowledgement while configuring is
// ignored.
func (c *Channel) Route(res message.ChannelResponse) (next message.Message, ok bool, err error) {
	if res.IsEvent() || res.Code != message.ResponseNoError {
		return next, false, nil
	}
	switch c.state {
	case Open:
		if res.MessageID != message.IDOpenChannel {
			return next, false, c.unexpected(res)
		}
		c.transition(Ready)
		return next, false, nil
	case Ready:
		if res.MessageID != message.IDOpenChannel {
			return next, false, c.unexpected(res)
		}
		return next, false, nil
	case Closed:
		if res.MessageID != message.IDCloseChannel {
			return next, false, errors.Wrapf(ErrClosed, "channel %d received %s", c.number, res.MessageID)
		}
		return next, false, nil
	}
	s, ok := steps[c.state]
	if !ok || res.MessageID != s.ack {
		c.logger.Debug("ignoring acknowledgement", zap.Stringer("state", c.state), zap.Stringer("ack", res.MessageID))
		return next, false, nil
	}
	c.transition(s.next)
	return s.command(c), true, nil
}

// Open returns the command that opens the channel.
func (c *Channel) Open() message.Message { return message.OpenChannel(c.number) }

// Reopen moves a channel the dongle closed back into the Open state and returns the
// command that opens it again.
func (c *Channel) Reopen() message.Message {
	c.transition(Open)
	return c.Open()
}

// Close moves the channel into the Closed state and returns the command that closes it.
func (c *Channel) Close() message.Message {
	c.transition(Closed)
	return message.CloseChannel(c.number)
}

func (c *Channel) transition(to State) {
	c.logger.Debug("channel transition", zap.Stringer("from", c.state), zap.Stringer("to", to))
	c.state = to
}

func (c *Channel) unexpected(res message.ChannelResponse) error {
	return errors.Wrapf(ErrUnexpectedResponse, "channel %d in state %s received %s", c.number, c.state, res.MessageID)
}

// |||||| SEQUENCE ||||||

type step struct {
	// ack is the acknowledgement the state waits for.
	ack message.ID
	// next is the state entered on ack.
	next State
	// command builds the command sent on entering next.
	command func(c *Channel) message.Message
}

var steps = map[State]step{
	Assign: {message.IDAssignChannel, SetDeviceID, func(c *Channel) message.Message {
		return message.SetChannelID(c.number, c.config.DeviceID, c.config.DeviceType, c.config.TransmissionType)
	}},
	SetDeviceID: {message.IDChannelID, SetTimeout, func(c *Channel) message.Message {
		return message.SetSearchTimeout(c.number, c.config.Timeout)
	}},
	SetTimeout: {message.IDSearchTimeout, SetPeriod, func(c *Channel) message.Message {
		return message.SetChannelPeriod(c.number, c.config.Period)
	}},
	SetPeriod: {message.IDChannelPeriod, SetFrequency, func(c *Channel) message.Message {
		return message.SetChannelFrequency(c.number, c.config.Frequency)
	}},
	SetFrequency: {message.IDChannelFrequency, Open, func(c *Channel) message.Message {
		return c.Open()
	}},
}
