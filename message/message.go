// Package message encodes and decodes the framed binary protocol spoken by ANT USB
// dongles. Every frame on the wire has the layout
//
//	SYNC(0xA4) | LEN | ID | DATA (LEN bytes) | CHECKSUM
//
// where CHECKSUM is the XOR of every byte before it. Message is the outbound
// representation of a frame and Reader turns a buffer of raw bytes into a sequence of
// typed Responses.
package message

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

const (
	// SyncByte starts every frame.
	SyncByte byte = 0xA4
	// MaxDataSize is the largest payload a frame may carry: an eight byte standard
	// payload, a channel number, a flag byte and extended data.
	MaxDataSize = 25
	// RecommendedBufferSize is the read buffer size recommended for USB dongles.
	RecommendedBufferSize = 64

	syncSize     = 1
	lengthSize   = 1
	idSize       = 1
	checksumSize = 1
	headerSize   = syncSize + lengthSize + idSize
	// frameOverhead is every byte of a frame that is not payload.
	frameOverhead = headerSize + checksumSize
	lengthOffset  = syncSize
	idOffset      = syncSize + lengthSize
)

// ID identifies the type of a message.
type ID byte

const (
	// IDEvent is the message id a ChannelResponse carries when it reports a channel
	// event rather than acknowledging a command.
	IDEvent             ID = 0x01
	IDResponseEvent     ID = 0x40
	IDUnassignChannel   ID = 0x41
	IDAssignChannel     ID = 0x42
	IDChannelPeriod     ID = 0x43
	IDSearchTimeout     ID = 0x44
	IDChannelFrequency  ID = 0x45
	IDNetworkKey        ID = 0x46
	IDReset             ID = 0x4A
	IDOpenChannel       ID = 0x4B
	IDCloseChannel      ID = 0x4C
	IDRequest           ID = 0x4D
	IDBroadcastData     ID = 0x4E
	IDAcknowledgeData   ID = 0x4F
	IDChannelID         ID = 0x51
	IDCapabilities      ID = 0x54
	IDStartup           ID = 0x6F
)

var idNames = map[ID]string{
	IDEvent:            "Event",
	IDResponseEvent:    "Response Event",
	IDUnassignChannel:  "Unassign Channel",
	IDAssignChannel:    "Assign Channel",
	IDChannelPeriod:    "Channel Period",
	IDSearchTimeout:    "Search Timeout",
	IDChannelFrequency: "Channel Frequency",
	IDNetworkKey:       "Network Key",
	IDReset:            "Reset",
	IDOpenChannel:      "Open Channel",
	IDCloseChannel:     "Close Channel",
	IDRequest:          "Request",
	IDBroadcastData:    "Broadcast Data",
	IDAcknowledgeData:  "Acknowledge Data",
	IDChannelID:        "Channel ID",
	IDCapabilities:     "Capabilities",
	IDStartup:          "Startup",
}

func (id ID) String() string {
	if n, ok := idNames[id]; ok {
		return fmt.Sprintf("%s (0x%02X)", n, byte(id))
	}
	return fmt.Sprintf("Unknown (0x%02X)", byte(id))
}

var (
	// ErrPayloadTooLarge is returned when encoding a message whose payload exceeds
	// MaxDataSize.
	ErrPayloadTooLarge = errors.New("[message] - payload too large")
	// ErrUnknownMessage is returned by Reader.Next for a valid frame carrying a
	// message id the codec does not decode. The frame is skipped.
	ErrUnknownMessage = errors.New("[message] - unknown message id")
	// ErrMalformed is returned by Reader.Next for a valid frame whose payload is too
	// short for its message id. The frame is skipped.
	ErrMalformed = errors.New("[message] - malformed message")
)

// Message is an outbound protocol message.
type Message struct {
	ID   ID
	Data []byte
}

// New creates a message with a copy of the given payload.
func New(id ID, data ...byte) Message {
	d := make([]byte, len(data))
	copy(d, data)
	return Message{ID: id, Data: d}
}

// Validate returns an error if the message cannot be framed.
func (m Message) Validate() error {
	if len(m.Data) > MaxDataSize {
		return errors.Wrapf(ErrPayloadTooLarge, "%d bytes exceeds maximum of %d", len(m.Data), MaxDataSize)
	}
	return nil
}

// Size returns the number of bytes the message occupies on the wire.
func (m Message) Size() int { return frameOverhead + len(m.Data) }

// Encode frames the message for the wire.
func (m Message) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b := make([]byte, m.Size())
	b[0] = SyncByte
	b[lengthOffset] = byte(len(m.Data))
	b[idOffset] = byte(m.ID)
	copy(b[headerSize:], m.Data)
	b[len(b)-1] = Checksum(b[:len(b)-1])
	return b, nil
}

func (m Message) String() string {
	return fmt.Sprintf("%s % X", m.ID, m.Data)
}

// Checksum returns the XOR of every byte in b. A complete frame, checksum included,
// XORs to zero.
func Checksum(b []byte) byte {
	var c byte
	for _, v := range b {
		c ^= v
	}
	return c
}
