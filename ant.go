package ant

import (
	"context"
	"time"

	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/message"
	"github.com/arya-analytics/ant/shut"
	"github.com/arya-analytics/ant/transport"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Dongle runs a Runner in the background. It keeps trying to open its transport until
// a dongle is attached, then runs the protocol loop until closed or until the loop
// fails. Events is closed once the loop has exited.
type Dongle struct {
	opts    *options
	rawOpts []Option
	opener  transport.Opener
	cmds    chan Command
	events  chan Event
	done    chan struct{}
	shutter shut.Shutter
}

// Open starts a Dongle that opens its transport with opener. Failures to open the
// transport are emitted as Error events of type ErrTransport, and the open is retried
// after the reconnect interval.
func Open(opener transport.Opener, opts ...Option) *Dongle {
	o := newOptions(opts...)
	d := &Dongle{
		opts:    o,
		rawOpts: opts,
		opener:  opener,
		cmds:    make(chan Command, o.commandBuffer),
		events:  make(chan Event, o.eventBuffer),
		done:    make(chan struct{}),
		shutter: shut.New(),
	}
	d.shutter.Go(d.run, shut.WithKey("ant.dongle"))
	return d
}

// Events returns the events emitted by the protocol loop.
func (d *Dongle) Events() <-chan Event { return d.events }

// OpenChannel configures and opens a channel. The outcome is reported on Events.
func (d *Dongle) OpenChannel(ctx context.Context, number byte, cfg channel.Config) error {
	return d.command(ctx, OpenChannel{Number: number, Config: cfg})
}

// CloseChannel closes a channel.
func (d *Dongle) CloseChannel(ctx context.Context, number byte) error {
	return d.command(ctx, CloseChannel{Number: number})
}

// Send writes an arbitrary message to the dongle.
func (d *Dongle) Send(ctx context.Context, m message.Message) error {
	return d.command(ctx, Send{Message: m})
}

// Close asks the loop to reset the dongle and exit. If the loop has not exited within
// the close timeout, it is cancelled.
func (d *Dongle) Close() error { return d.shutter.Close() }

func (d *Dongle) command(ctx context.Context, c Command) error {
	select {
	case <-d.done:
		return newSimpleError(ErrClosed, "ant - dongle closed")
	default:
	}
	select {
	case d.cmds <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return newSimpleError(ErrClosed, "ant - dongle closed")
	}
}

func (d *Dongle) run(sig chan shut.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer close(d.events)
	defer close(d.done)
	var (
		exited  = make(chan struct{})
		started = make(chan struct{})
	)
	defer close(exited)
	go d.watch(sig, started, exited, cancel)
	t, err := d.connect(ctx)
	if err != nil {
		return nil
	}
	defer func() {
		if err := t.Close(); err != nil {
			d.opts.logger.Error("failed to close transport", zap.Error(err))
		}
	}()
	close(started)
	err = NewRunner(t, d.rawOpts...).Run(ctx, d.cmds, d.events)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// connect opens the transport, retrying every reconnect interval until it succeeds or
// ctx is cancelled.
func (d *Dongle) connect(ctx context.Context) (transport.Transport, error) {
	for {
		t, err := d.opener(ctx)
		if err == nil {
			return t, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.opts.logger.Warn("failed to open dongle", zap.Error(err))
		select {
		case d.events <- ErrorEvent{Err: newDerivedError(ErrTransport, err)}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		select {
		case <-time.After(d.opts.reconnectInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// watch stops the loop once the Dongle is closed. A loop that has started is asked to
// quit and cancelled if it does not exit within the close timeout. A Dongle still
// connecting is cancelled immediately.
func (d *Dongle) watch(sig chan shut.Signal, started, exited chan struct{}, cancel context.CancelFunc) {
	select {
	case <-exited:
		return
	case <-sig:
	}
	select {
	case <-started:
	default:
		cancel()
		return
	}
	select {
	case d.cmds <- Quit{}:
	default:
	}
	select {
	case <-exited:
	case <-time.After(d.opts.closeTimeout):
		d.opts.logger.Warn("dongle did not quit in time, cancelling")
		cancel()
	}
}
