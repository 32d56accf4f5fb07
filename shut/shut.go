// Package shut supervises long-running goroutines and shuts them down gracefully.
package shut

import (
	"sync"
	"time"

	"github.com/arya-analytics/ant/util/errutil"
	"github.com/cockroachdb/errors"
)

// Signal is received by a routine when the Shutter closes. The signal channel is
// closed rather than written to, so a routine may read from it any number of times.
type Signal struct{}

// ErrThreshold is returned by Close when routines fail to exit within the
// configured threshold.
var ErrThreshold = errors.New("[shut] routines did not exit within shutdown threshold")

// Shutter starts routines and shuts them down together.
type Shutter interface {
	// Go starts f in a new goroutine. f must return after sig is closed.
	Go(f func(sig chan Signal) error, opts ...GoOption)
	// Routines returns the number of running routines for each key.
	Routines() map[string]int
	// NumRoutines returns the total number of running routines.
	NumRoutines() int
	// Close signals every routine to exit and waits for them to do so. It returns the
	// combined errors of every routine. Close is idempotent.
	Close() error
}

type Option func(o *options)

type options struct {
	threshold time.Duration
}

// WithThreshold bounds how long Close waits for routines to exit.
func WithThreshold(threshold time.Duration) Option {
	return func(o *options) { o.threshold = threshold }
}

type GoOption func(o *goOptions)

type goOptions struct {
	key string
}

// WithKey names a routine for Routines.
func WithKey(key string) GoOption {
	return func(o *goOptions) { o.key = key }
}

func New(opts ...Option) Shutter {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &shutter{
		opts:     o,
		sig:      make(chan Signal),
		routines: make(map[string]int),
		catch:    errutil.NewCatchSimple(errutil.WithAggregation()),
	}
}

type shutter struct {
	opts     options
	mu       sync.Mutex
	wg       sync.WaitGroup
	sig      chan Signal
	closed   bool
	routines map[string]int
	catch    *errutil.CatchSimple
}

// Go implements Shutter.
func (s *shutter) Go(f func(sig chan Signal) error, opts ...GoOption) {
	o := goOptions{key: "anonymous"}
	for _, opt := range opts {
		opt(&o)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routines[o.key]++
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := f(s.sig)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.routines[o.key]--
		if s.routines[o.key] == 0 {
			delete(s.routines, o.key)
		}
		s.catch.Exec(func() error { return err })
	}()
}

// Routines implements Shutter.
func (s *shutter) Routines() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := make(map[string]int, len(s.routines))
	for k, v := range s.routines {
		r[k] = v
	}
	return r
}

// NumRoutines implements Shutter.
func (s *shutter) NumRoutines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.routines {
		n += v
	}
	return n
}

// Close implements Shutter.
func (s *shutter) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.sig)
	}
	s.mu.Unlock()
	if err := s.wait(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catch.Error()
}

func (s *shutter) wait() error {
	if s.opts.threshold == 0 {
		s.wg.Wait()
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(s.opts.threshold):
		return ErrThreshold
	}
}
