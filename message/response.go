package message

import (
	"fmt"

	"github.com/arya-analytics/ant/util/binary"
	"github.com/cockroachdb/errors"
)

// Response is a message received from the dongle. It is implemented by Startup,
// ChannelResponse, BroadcastData, AcknowledgedData, Capabilities and ChannelID.
type Response interface {
	fmt.Stringer
	// ID returns the message id the response was decoded from.
	ID() ID
	response()
}

// |||||| STARTUP ||||||

// StartupReason is the reason code carried by a Startup message.
type StartupReason byte

const (
	StartupPowerOn           StartupReason = 0x00
	StartupHardwareResetLine StartupReason = 0x01
	StartupWatchDog          StartupReason = 0x02
	StartupCommand           StartupReason = 0x20
	StartupSynchronous       StartupReason = 0x40
	StartupSuspend           StartupReason = 0x80
	// StartupError is reported for any code the dongle does not document.
	StartupError StartupReason = 0xFF
)

var startupReasonNames = map[StartupReason]string{
	StartupPowerOn:           "Power On",
	StartupHardwareResetLine: "Hardware Reset Line",
	StartupWatchDog:          "Watch Dog",
	StartupCommand:           "Command",
	StartupSynchronous:       "Synchronous",
	StartupSuspend:           "Suspend",
	StartupError:             "Error",
}

func (r StartupReason) String() string {
	if n, ok := startupReasonNames[r]; ok {
		return n
	}
	return startupReasonNames[StartupError]
}

// Startup is sent by the dongle after it (re)boots.
type Startup struct {
	Code byte
}

// Reason classifies the startup code. Codes are matched exactly; anything else is
// StartupError.
func (s Startup) Reason() StartupReason {
	r := StartupReason(s.Code)
	if _, ok := startupReasonNames[r]; ok {
		return r
	}
	return StartupError
}

func (Startup) ID() ID { return IDStartup }

func (s Startup) String() string { return fmt.Sprintf("Startup: %s", s.Reason()) }

func (Startup) response() {}

// |||||| CHANNEL RESPONSE ||||||

// Code is the status carried by a ChannelResponse.
type Code byte

const (
	ResponseNoError             Code = 0x00
	EventRxSearchTimeout        Code = 0x01
	EventRxFail                 Code = 0x02
	EventTx                     Code = 0x03
	EventTransferTxCompleted    Code = 0x05
	EventTransferTxFailed       Code = 0x06
	EventChannelClosed          Code = 0x07
	EventRxFailGoToSearch       Code = 0x08
	EventChannelCollision       Code = 0x09
	ResponseChannelInWrongState Code = 0x15
)

var codeNames = map[Code]string{
	ResponseNoError:             "No Error",
	EventRxSearchTimeout:        "Rx Search Timeout",
	EventRxFail:                 "Rx Fail",
	EventTx:                     "Tx",
	EventTransferTxCompleted:    "Transfer Tx Completed",
	EventTransferTxFailed:       "Transfer Tx Failed",
	EventChannelClosed:          "Channel Closed",
	EventRxFailGoToSearch:       "Rx Fail Go To Search",
	EventChannelCollision:       "Channel Collision",
	ResponseChannelInWrongState: "Channel In Wrong State",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Unknown Code (0x%02X)", byte(c))
}

// ChannelResponse either acknowledges a command sent to a channel or reports an
// event on it. IsEvent distinguishes the two.
type ChannelResponse struct {
	Channel byte
	// MessageID is the id of the acknowledged command, or IDEvent.
	MessageID ID
	Code      Code
}

// IsEvent returns true if the response reports a channel event rather than
// acknowledging a command.
func (c ChannelResponse) IsEvent() bool { return c.MessageID == IDEvent }

func (ChannelResponse) ID() ID { return IDResponseEvent }

func (c ChannelResponse) String() string {
	if c.IsEvent() {
		return fmt.Sprintf("Channel %d Event: %s", c.Channel, c.Code)
	}
	return fmt.Sprintf("Channel %d Response to %s: %s", c.Channel, c.MessageID, c.Code)
}

func (ChannelResponse) response() {}

// |||||| BROADCAST DATA ||||||

// PayloadSize is the size of a standard data payload.
const PayloadSize = 8

// BroadcastData is a payload pushed by the device paired with a channel.
type BroadcastData struct {
	Channel byte
	Data    [PayloadSize]byte
}

func (BroadcastData) ID() ID { return IDBroadcastData }

func (b BroadcastData) String() string {
	return fmt.Sprintf("Channel %d Broadcast: % X", b.Channel, b.Data)
}

// Message re-encodes the payload as an outbound broadcast message.
func (b BroadcastData) Message() Message {
	return New(IDBroadcastData, append([]byte{b.Channel}, b.Data[:]...)...)
}

func (BroadcastData) response() {}

// AcknowledgedData is a payload a device sent with a request for acknowledgement.
type AcknowledgedData struct {
	Channel byte
	Data    [PayloadSize]byte
}

func (AcknowledgedData) ID() ID { return IDAcknowledgeData }

func (a AcknowledgedData) String() string {
	return fmt.Sprintf("Channel %d Acknowledged: % X", a.Channel, a.Data)
}

func (AcknowledgedData) response() {}

// |||||| CAPABILITIES ||||||

// Capabilities reports the limits of the dongle.
type Capabilities struct {
	MaxChannels     byte
	MaxNetworks     byte
	StandardOptions byte
	AdvancedOptions byte
}

func (Capabilities) ID() ID { return IDCapabilities }

func (c Capabilities) String() string {
	return fmt.Sprintf("Capabilities: Max Channels %d, Max Networks %d", c.MaxChannels, c.MaxNetworks)
}

func (Capabilities) response() {}

// |||||| CHANNEL ID ||||||

// ChannelID reports the device a channel is bound to.
type ChannelID struct {
	Channel          byte
	DeviceID         uint16
	DeviceType       byte
	TransmissionType byte
}

func (ChannelID) ID() ID { return IDChannelID }

func (c ChannelID) String() string {
	return fmt.Sprintf(
		"Channel %d ID: Device %d, Type 0x%02X, Transmission 0x%02X",
		c.Channel, c.DeviceID, c.DeviceType, c.TransmissionType,
	)
}

func (ChannelID) response() {}

// |||||| DECODE ||||||

type decoder struct {
	minSize int
	decode  func(data []byte) Response
}

var decoders = map[ID]decoder{
	IDStartup: {1, func(d []byte) Response { return Startup{Code: d[0]} }},
	IDResponseEvent: {3, func(d []byte) Response {
		return ChannelResponse{Channel: d[0], MessageID: ID(d[1]), Code: Code(d[2])}
	}},
	IDBroadcastData: {1 + PayloadSize, func(d []byte) Response {
		b := BroadcastData{Channel: d[0]}
		copy(b.Data[:], d[1:])
		return b
	}},
	IDAcknowledgeData: {1 + PayloadSize, func(d []byte) Response {
		a := AcknowledgedData{Channel: d[0]}
		copy(a.Data[:], d[1:])
		return a
	}},
	IDCapabilities: {2, func(d []byte) Response {
		c := Capabilities{MaxChannels: d[0], MaxNetworks: d[1]}
		if len(d) > 2 {
			c.StandardOptions = d[2]
		}
		if len(d) > 3 {
			c.AdvancedOptions = d[3]
		}
		return c
	}},
	IDChannelID: {5, func(d []byte) Response {
		return ChannelID{
			Channel:          d[0],
			DeviceID:         uint16(binary.Combine(d[1:3])),
			DeviceType:       d[3],
			TransmissionType: d[4],
		}
	}},
}

// Decode converts an unframed message (id followed by payload) into a Response.
func Decode(id ID, data []byte) (Response, error) {
	d, ok := decoders[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMessage, "%s", id)
	}
	if len(data) < d.minSize {
		return nil, errors.Wrapf(ErrMalformed, "%s carries %d bytes, need %d", id, len(data), d.minSize)
	}
	return d.decode(data), nil
}
