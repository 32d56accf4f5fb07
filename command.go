package ant

import (
	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/message"
)

// Command is a request sent to a running Runner. Commands are only acted on once the
// dongle is Running; until then they wait in the queue.
type Command interface {
	command()
}

// OpenChannel configures the channel slot Number for the device described by Config
// and opens it. The Runner emits an Error of type ErrChannelExists if the slot is
// occupied.
type OpenChannel struct {
	Number byte
	Config channel.Config
}

// CloseChannel closes the channel in slot Number and frees the slot.
type CloseChannel struct {
	Number byte
}

// Send writes an arbitrary message to the dongle.
type Send struct {
	Message message.Message
}

// Quit resets the dongle and stops the Runner.
type Quit struct{}

func (OpenChannel) command() {}

func (CloseChannel) command() {}

func (Send) command() {}

func (Quit) command() {}
