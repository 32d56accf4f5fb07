package ant

import (
	"time"

	"github.com/arya-analytics/ant/alamos"
	"github.com/arya-analytics/ant/message"
	"go.uber.org/zap"
)

type Option func(*options)

type options struct {
	readTimeout       time.Duration
	writeTimeout      time.Duration
	resetAttempts     int
	settleDelay       time.Duration
	reconnectInterval time.Duration
	readBufferSize    int
	commandBuffer     int
	eventBuffer       int
	closeTimeout      time.Duration
	exp               alamos.Experiment
	logger            *zap.Logger
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
	if o.readTimeout == 0 {
		o.readTimeout = 10 * time.Millisecond
	}
	if o.writeTimeout == 0 {
		o.writeTimeout = 1 * time.Second
	}
	if o.resetAttempts == 0 {
		o.resetAttempts = 3
	}
	if o.settleDelay == 0 {
		o.settleDelay = 500 * time.Millisecond
	}
	if o.reconnectInterval == 0 {
		o.reconnectInterval = 1 * time.Second
	}
	if o.readBufferSize == 0 {
		o.readBufferSize = message.RecommendedBufferSize
	}
	if o.commandBuffer == 0 {
		o.commandBuffer = 10
	}
	if o.eventBuffer == 0 {
		o.eventBuffer = 100
	}
	if o.closeTimeout == 0 {
		o.closeTimeout = 5 * time.Second
	}

	// || LOGGER ||

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithExperiment(exp alamos.Experiment) Option {
	return func(o *options) {
		o.exp = alamos.Sub(exp, "ant")
	}
}

// WithReadTimeout sets how long a read waits for the dongle. A read that times out
// drives the reset policy, so the timeout should stay short.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = d
	}
}

// WithResetAttempts sets how many reset commands go unanswered before Run fails.
func WithResetAttempts(n int) Option {
	return func(o *options) {
		o.resetAttempts = n
	}
}

// WithSettleDelay sets how long to wait after resetting the dongle.
func WithSettleDelay(d time.Duration) Option {
	return func(o *options) {
		o.settleDelay = d
	}
}

// WithReconnectInterval sets how long a Dongle waits between attempts to open its
// transport.
func WithReconnectInterval(d time.Duration) Option {
	return func(o *options) {
		o.reconnectInterval = d
	}
}

func WithReadBufferSize(n int) Option {
	return func(o *options) {
		o.readBufferSize = n
	}
}

// WithCommandBuffer sets the capacity of a Dongle's command queue.
func WithCommandBuffer(n int) Option {
	return func(o *options) {
		o.commandBuffer = n
	}
}

// WithEventBuffer sets the capacity of a Dongle's event queue.
func WithEventBuffer(n int) Option {
	return func(o *options) {
		o.eventBuffer = n
	}
}

// WithCloseTimeout bounds how long Dongle.Close waits for the run loop to exit.
func WithCloseTimeout(d time.Duration) Option {
	return func(o *options) {
		o.closeTimeout = d
	}
}
