// Package session tracks the dongle-wide bring-up state. A Machine takes the dongle
// from power up through a reset and network key configuration into the Running state,
// in which channel traffic is handed back to the caller.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/arya-analytics/ant/message"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ErrReset is returned by Tick when the dongle has not answered the configured number
// of reset commands.
var ErrReset = errors.New("[session] - dongle did not respond to reset")

type State byte

const (
	// NotReady drops every inbound message until the dongle goes quiet.
	NotReady State = iota
	// Reset waits for the dongle to report a Startup.
	Reset
	// SetNetworkKey waits for the dongle to acknowledge the network key.
	SetNetworkKey
	// Running hands channel traffic to the caller.
	Running
)

func (s State) String() string {
	switch s {
	case NotReady:
		return "NotReady"
	case Reset:
		return "Reset"
	case SetNetworkKey:
		return "SetNetworkKey"
	case Running:
		return "Running"
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

type Config struct {
	// Network is the network number the key is installed on.
	Network byte
	// NetworkKey is the key installed on Network.
	NetworkKey [message.NetworkKeySize]byte
	// ResetAttempts is the number of reset commands sent before Tick fails.
	ResetAttempts int
	// SettleDelay is how long to wait after sending a reset.
	SettleDelay time.Duration
	// Send writes a message to the dongle.
	Send func(m message.Message) error
	Logger *zap.Logger
}

// Machine is the bring-up state machine. It is not safe for concurrent use.
type Machine struct {
	Config
	state    State
	attempts int
}

func New(cfg Config) *Machine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Machine{Config: cfg, state: NotReady}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Route consumes a message from the dongle. It returns true if the machine is Running
// and the message should be handled by the caller. A network key that cannot be sent
// leaves the machine in Reset, where the next Tick sends another reset.
func (m *Machine) Route(res message.Response) (delegate bool, err error) {
	switch m.state {
	case NotReady:
		m.Logger.Debug("dropping message, dongle not ready", zap.Stringer("message", res))
	case Reset:
		if _, ok := res.(message.Startup); !ok {
			m.Logger.Debug("dropping message, awaiting startup", zap.Stringer("message", res))
			return false, nil
		}
		if err := m.Send(message.SetNetworkKey(m.Network, m.NetworkKey)); err != nil {
			m.Logger.Warn("failed to set network key, awaiting reset", zap.Error(err))
			return false, nil
		}
		m.attempts = 0
		m.transition(SetNetworkKey)
	case SetNetworkKey:
		switch r := res.(type) {
		case message.Startup:
			m.rebooted(r)
		case message.ChannelResponse:
			if r.Code == message.ResponseNoError {
				m.transition(Running)
			}
		}
	case Running:
		if s, ok := res.(message.Startup); ok {
			m.rebooted(s)
			return false, nil
		}
		return true, nil
	}
	return false, nil
}

// Tick is called when a read from the dongle times out. A quiet dongle moves from
// NotReady to Reset, and each Tick in Reset sends another reset command until the
// attempts are exhausted.
func (m *Machine) Tick(ctx context.Context) error {
	switch m.state {
	case NotReady:
		m.transition(Reset)
	case Reset:
		if m.attempts >= m.ResetAttempts {
			return errors.Wrapf(ErrReset, "after %d attempts", m.attempts)
		}
		m.attempts++
		m.Logger.Debug("sending reset", zap.Int("attempt", m.attempts))
		return m.Reset(ctx)
	}
	return nil
}

// Reset sends a reset command and waits for the dongle to settle.
func (m *Machine) Reset(ctx context.Context) error {
	if err := m.Send(message.Reset()); err != nil {
		return errors.Wrap(err, "[session] - failed to send reset")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.SettleDelay):
		return nil
	}
}

func (m *Machine) rebooted(s message.Startup) {
	m.Logger.Warn("dongle restarted unexpectedly", zap.Stringer("reason", s.Reason()))
	m.transition(Reset)
}

func (m *Machine) transition(to State) {
	m.Logger.Info("session transition", zap.Stringer("from", m.state), zap.Stringer("to", to))
	m.state = to
}
