package ant

import "github.com/arya-analytics/ant/message"

// Event is emitted by a Runner to its caller.
type Event interface {
	event()
}

// BroadcastData is a payload received from the device paired with a channel.
type BroadcastData struct {
	Channel byte
	Data    [message.PayloadSize]byte
}

// ErrorEvent reports an error. Errors emitted while the Runner keeps running are
// recoverable; the error that ends Run is emitted last.
type ErrorEvent struct {
	Err error
}

// Response carries a reply to a caller's request, such as Capabilities or ChannelID,
// or AcknowledgedData received from a device.
type Response struct {
	Response message.Response
}

func (BroadcastData) event() {}

func (ErrorEvent) event() {}

func (Response) event() {}
