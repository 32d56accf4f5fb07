package ant

import (
	"context"
	"fmt"
	"io"

	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/internal/session"
	"github.com/arya-analytics/ant/message"
	"github.com/arya-analytics/ant/transport"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// loop holds the state of a single call to Runner.Run. It is owned by one goroutine.
type loop struct {
	*Runner
	session *session.Machine
	slots   [channel.MaxChannels]*channel.Channel
	buf     []byte
	reader  *message.Reader
	events  chan<- Event
	logger  *zap.Logger
}

func newLoop(r *Runner, events chan<- Event) *loop {
	l := &loop{
		Runner: r,
		buf:    make([]byte, r.opts.readBufferSize),
		reader: message.NewReader(nil),
		events: events,
		logger: r.opts.logger,
	}
	l.session = session.New(session.Config{
		Network:       Network,
		NetworkKey:    NetworkKey,
		ResetAttempts: r.opts.resetAttempts,
		SettleDelay:   r.opts.settleDelay,
		Send:          l.send,
		Logger:        r.opts.logger.Named("session"),
	})
	return l
}

func (l *loop) run(ctx context.Context, cmds <-chan Command) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.read(ctx); err != nil {
			return err
		}
		if l.session.State() != session.Running {
			continue
		}
		select {
		case cmd, ok := <-cmds:
			if !ok {
				l.logger.Info("command queue closed")
				return nil
			}
			if done, err := l.exec(ctx, cmd); done || err != nil {
				return err
			}
		default:
		}
	}
}

// read performs a single read from the transport and routes every frame it returns.
// A read that times out advances the session's reset policy.
func (l *loop) read(ctx context.Context) error {
	n, err := l.transport.Read(l.buf, l.opts.readTimeout)
	if errors.Is(err, transport.ErrTimeout) {
		l.metrics.timeouts.Record(1)
		return l.tick(ctx)
	}
	if err != nil {
		return newDerivedError(ErrTransport, err)
	}
	l.reader.Reset(l.buf[:n])
	for {
		res, err := l.reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			l.metrics.rejected.Record(1)
			if err := l.warn(ctx, newDerivedError(ErrDecode, err)); err != nil {
				return err
			}
			continue
		}
		l.metrics.decoded.Record(1)
		if err := l.route(ctx, res); err != nil {
			return err
		}
	}
}

func (l *loop) tick(ctx context.Context) error {
	err := l.session.Tick(ctx)
	if errors.Is(err, session.ErrReset) {
		return newDerivedError(ErrReset, err)
	}
	return err
}

// |||||| COMMANDS ||||||

// exec executes a caller's command. It returns true if the loop should stop.
func (l *loop) exec(ctx context.Context, cmd Command) (done bool, err error) {
	l.logger.Debug("executing command", zap.Any("command", cmd))
	switch c := cmd.(type) {
	case OpenChannel:
		return false, l.openChannel(ctx, c)
	case CloseChannel:
		return false, l.closeChannel(ctx, c)
	case Send:
		if err := c.Message.Validate(); err != nil {
			return false, l.warn(ctx, newDerivedError(ErrInvalidMessage, err))
		}
		return false, l.send(c.Message)
	case Quit:
		l.logger.Info("quitting")
		return true, l.session.Reset(ctx)
	}
	return false, l.warn(ctx, newUnknownError(errors.Newf("ant - unknown command %T", cmd)))
}

func (l *loop) openChannel(ctx context.Context, c OpenChannel) error {
	if c.Number >= channel.MaxChannels {
		return l.warn(ctx, invalidChannel(c.Number))
	}
	if l.slots[c.Number] != nil {
		return l.warn(ctx, newSimpleError(ErrChannelExists, fmt.Sprintf("ant - channel %d already exists", c.Number)))
	}
	ch := channel.New(c.Number, c.Config, l.logger.Named("channel"))
	if err := l.send(ch.Assign(Network)); err != nil {
		return err
	}
	l.slots[c.Number] = ch
	return nil
}

// closeChannel frees the slot as soon as the close command is written. When the
// dongle later reports the channel closed, the empty slot causes it to be unassigned.
func (l *loop) closeChannel(ctx context.Context, c CloseChannel) error {
	if c.Number >= channel.MaxChannels {
		return l.warn(ctx, invalidChannel(c.Number))
	}
	ch := l.slots[c.Number]
	if ch == nil {
		l.logger.Debug("channel not open", zap.Uint8("channel", c.Number))
		return nil
	}
	l.slots[c.Number] = nil
	return l.send(ch.Close())
}

func invalidChannel(number byte) error {
	return newSimpleError(ErrInvalidChannel, fmt.Sprintf("ant - channel %d outside of [0, %d)", number, channel.MaxChannels))
}

// |||||| OUTPUT ||||||

// send encodes m and writes it to the transport.
func (l *loop) send(m message.Message) error {
	b, err := m.Encode()
	if err != nil {
		return newDerivedError(ErrInvalidMessage, err)
	}
	l.logger.Debug("sending", zap.Stringer("message", m))
	sw := l.metrics.writes.Stopwatch()
	sw.Start()
	_, err = l.transport.Write(b, l.opts.writeTimeout)
	sw.Stop()
	if err != nil {
		return newDerivedError(ErrTransport, err)
	}
	return nil
}

// emit delivers ev to the caller, blocking until it is received or ctx is cancelled.
func (l *loop) emit(ctx context.Context, ev Event) error {
	select {
	case l.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// warn logs and emits an error that does not stop the loop.
func (l *loop) warn(ctx context.Context, err error) error {
	l.logger.Warn("recoverable error", zap.Error(err))
	return l.emit(ctx, ErrorEvent{Err: err})
}
