// Package ant drives an ANT USB dongle. A Runner brings the dongle from power up to a
// running state, configures the channels its caller asks for, and relays the data
// those channels receive.
package ant

import (
	"context"

	"github.com/arya-analytics/ant/transport"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	// Network is the network number every channel is assigned to.
	Network byte = 1
)

// NetworkKey is the ANT+ network key installed on Network.
var NetworkKey = [8]byte{0xB9, 0xA5, 0x21, 0xFB, 0xBD, 0x72, 0xC3, 0x45}

// Runner runs the protocol loop for one dongle over a Transport.
type Runner struct {
	transport transport.Transport
	opts      *options
	metrics   metrics
	running   *atomic.Bool
}

func NewRunner(t transport.Transport, opts ...Option) *Runner {
	o := newOptions(opts...)
	return &Runner{
		transport: t,
		opts:      o,
		metrics:   newMetrics(o.exp),
		running:   atomic.NewBool(false),
	}
}

// Run resets the dongle, brings it up, and then executes commands received on cmds
// until a Quit command is executed or cmds is closed, both of which return nil. Data
// and errors are emitted on events. Errors that do not stop the loop are emitted as
// they happen. An error that stops the loop is emitted and then returned. Run must
// not be called while another call to Run on the same Runner is in progress; doing
// so returns an Error of type ErrAlreadyRunning.
func (r *Runner) Run(ctx context.Context, cmds <-chan Command, events chan<- Event) error {
	if !r.running.CAS(false, true) {
		return newSimpleError(ErrAlreadyRunning, "ant - runner is already running")
	}
	defer r.running.Store(false)
	r.opts.logger.Info("starting run loop")
	l := newLoop(r, events)
	err := l.run(ctx, cmds)
	if err != nil && ctx.Err() == nil {
		r.opts.logger.Error("run loop failed", zap.Error(err))
		_ = l.emit(ctx, ErrorEvent{Err: err})
		return err
	}
	r.opts.logger.Info("run loop stopped")
	return err
}
