package ant

import (
	"context"

	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/internal/session"
	"github.com/arya-analytics/ant/message"
	"go.uber.org/zap"
)

// route hands a response to the session and, once the session is running, to the
// channel it addresses or to the caller.
func (l *loop) route(ctx context.Context, res message.Response) error {
	l.logger.Debug("routing", zap.Stringer("message", res))
	wasRunning := l.session.State() == session.Running
	delegate, err := l.session.Route(res)
	if err != nil {
		return err
	}
	if !wasRunning && l.session.State() == session.Running {
		return l.restore()
	}
	if !delegate {
		return nil
	}
	switch r := res.(type) {
	case message.ChannelResponse:
		if r.IsEvent() {
			return l.routeEvent(r)
		}
		return l.routeAck(ctx, r)
	case message.BroadcastData:
		return l.emit(ctx, BroadcastData{Channel: r.Channel, Data: r.Data})
	case message.AcknowledgedData, message.Capabilities, message.ChannelID:
		return l.emit(ctx, Response{Response: res})
	}
	l.logger.Debug("dropping message", zap.Stringer("message", res))
	return nil
}

// routeEvent handles an event the dongle reports on a channel. A channel the dongle
// closes on its own is reopened if its slot is occupied and unassigned otherwise.
func (l *loop) routeEvent(r message.ChannelResponse) error {
	logger := l.logger.With(zap.Uint8("channel", r.Channel), zap.Stringer("code", r.Code))
	switch r.Code {
	case message.EventRxFail, message.EventRxSearchTimeout, message.EventRxFailGoToSearch:
		logger.Debug("channel event")
	case message.EventChannelClosed:
		if ch := l.slot(r.Channel); ch != nil {
			logger.Info("reopening channel")
			l.metrics.reopened.Record(1)
			return l.send(ch.Reopen())
		}
		logger.Debug("unassigning channel")
		return l.send(message.UnassignChannel(r.Channel))
	default:
		logger.Debug("unhandled channel event")
	}
	return nil
}

// routeAck hands a successful acknowledgement to the channel it addresses and sends
// the next configuration command the channel returns.
func (l *loop) routeAck(ctx context.Context, r message.ChannelResponse) error {
	logger := l.logger.With(
		zap.Uint8("channel", r.Channel),
		zap.Stringer("ack", r.MessageID),
		zap.Stringer("code", r.Code),
	)
	switch r.Code {
	case message.ResponseNoError:
	case message.ResponseChannelInWrongState:
		logger.Warn("channel in wrong state")
		return nil
	default:
		logger.Warn("unhandled channel response")
		return nil
	}
	ch := l.slot(r.Channel)
	if ch == nil {
		logger.Debug("acknowledgement for empty slot")
		return nil
	}
	next, ok, err := ch.Route(r)
	if err != nil {
		return l.warn(ctx, newDerivedError(ErrChannel, err))
	}
	if !ok {
		return nil
	}
	return l.send(next)
}

// restore configures every occupied slot again from Assign. The session only reaches
// Running with occupied slots after the dongle restarted and dropped its channels.
func (l *loop) restore() error {
	for i, ch := range l.slots {
		if ch == nil {
			continue
		}
		l.logger.Info("restoring channel", zap.Int("channel", i))
		l.metrics.restored.Record(1)
		ch = channel.New(ch.Number(), ch.Config(), l.logger.Named("channel"))
		l.slots[i] = ch
		if err := l.send(ch.Assign(Network)); err != nil {
			return err
		}
	}
	return nil
}

func (l *loop) slot(number byte) *channel.Channel {
	if number >= channel.MaxChannels {
		return nil
	}
	return l.slots[number]
}
