package record

import (
	"time"

	"github.com/arya-analytics/ant/alamos"
	"go.uber.org/zap"
)

type Option func(*options)

type options struct {
	flushInterval  time.Duration
	flushThreshold int
	closeTimeout   time.Duration
	exp            alamos.Experiment
	logger         *zap.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	mergeDefaultOptions(o)
	return o
}

func mergeDefaultOptions(o *options) {
	if o.flushInterval == 0 {
		o.flushInterval = 100 * time.Millisecond
	}
	if o.flushThreshold == 0 {
		o.flushThreshold = 64
	}
	if o.closeTimeout == 0 {
		o.closeTimeout = 5 * time.Second
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithExperiment(exp alamos.Experiment) Option {
	return func(o *options) { o.exp = alamos.Sub(exp, "record") }
}

// WithFlushInterval sets the longest a sample waits before it is written.
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) { o.flushInterval = d }
}

// WithFlushThreshold sets how many samples are buffered before a write is forced.
func WithFlushThreshold(n int) Option {
	return func(o *options) { o.flushThreshold = n }
}

// WithCloseTimeout bounds how long Close waits for queued samples to be written.
func WithCloseTimeout(d time.Duration) Option {
	return func(o *options) { o.closeTimeout = d }
}
