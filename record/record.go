// Package record persists the broadcast data received from a dongle. Samples are
// batched and written to a kv.Engine under the session they were recorded in.
package record

import (
	"context"
	"sync"
	"time"

	"github.com/arya-analytics/ant/alamos"
	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/internal/queue"
	"github.com/arya-analytics/ant/kv"
	"github.com/arya-analytics/ant/pk"
	"github.com/arya-analytics/ant/shut"
	"github.com/arya-analytics/ant/util/errutil"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ErrClosed is returned by Record after the Recorder is closed.
var ErrClosed = errors.New("[record] - recorder closed")

type Recorder struct {
	engine  kv.Engine
	session Session
	opts    *options
	queue   *queue.Debounce[Sample]
	shutter shut.Shutter
	seq     uint32
	mu      sync.RWMutex
	closed  bool
	metrics struct {
		persisted alamos.Metric[int]
		failed    alamos.Metric[int]
		flushes   alamos.Duration
	}
}

// New starts a session that records samples for the given channels.
func New(engine kv.Engine, channels map[byte]channel.Config, opts ...Option) (*Recorder, error) {
	o := newOptions(opts...)
	s := Session{Key: pk.New(), Start: time.Now(), Channels: channels}
	if err := kv.SetWithPrefixedPK(engine, sessionPrefix, s.Key, s); err != nil {
		return nil, err
	}
	r := &Recorder{
		engine:  engine,
		session: s,
		opts:    o,
		shutter: shut.New(shut.WithThreshold(o.closeTimeout)),
	}
	r.metrics.persisted = alamos.NewCounter[int](o.exp, "samples.persisted")
	r.metrics.failed = alamos.NewCounter[int](o.exp, "flushes.failed")
	r.metrics.flushes = alamos.NewSeriesDuration(o.exp, "flush.duration")
	r.queue = &queue.Debounce[Sample]{
		Requests:  make(chan []Sample),
		Responses: make(chan []Sample),
		Shutter:   r.shutter,
		Interval:  o.flushInterval,
		Threshold: o.flushThreshold,
		Logger:    o.logger,
	}
	r.queue.Start()
	r.shutter.Go(r.persist, shut.WithKey("record.persist"))
	o.logger.Info("started recording session", zap.Stringer("session", s.Key))
	return r, nil
}

func (r *Recorder) Session() Session { return r.session }

// Record queues samples for writing. Samples without a time are stamped with the
// current time.
func (r *Recorder) Record(ctx context.Context, samples ...Sample) error {
	now := time.Now()
	for i := range samples {
		if samples[i].Time.IsZero() {
			samples[i].Time = now
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.queue.Requests <- samples:
		return nil
	}
}

// Close writes every queued sample and stops the Recorder. It returns the first
// error encountered while writing.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue.Requests)
	r.mu.Unlock()
	return r.shutter.Close()
}

// persist consumes every batch the queue flushes, even after a failed write, so the
// queue never blocks.
func (r *Recorder) persist(chan shut.Signal) error {
	c := errutil.NewCatchSimple(errutil.WithHooks(func(error) { r.metrics.failed.Record(1) }))
	for samples := range r.queue.Responses {
		c.Exec(func() error { return r.write(samples) })
	}
	return c.Error()
}

func (r *Recorder) write(samples []Sample) error {
	sw := r.metrics.flushes.Stopwatch()
	sw.Start()
	defer sw.Stop()
	b := r.engine.NewBatch()
	c := errutil.NewCatchSimple()
	for _, s := range samples {
		c.Exec(func() error {
			r.seq++
			return b.Set(sampleKey(r.session.Key, s, r.seq), s.Data[:])
		})
	}
	c.Exec(b.Commit)
	err := errors.CombineErrors(c.Error(), b.Close())
	if err != nil {
		r.opts.logger.Error("failed to persist samples", zap.Int("count", len(samples)), zap.Error(err))
		return err
	}
	r.metrics.persisted.Record(len(samples))
	r.opts.logger.Debug("persisted samples", zap.Int("count", len(samples)))
	return nil
}
