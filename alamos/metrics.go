package alamos

import (
	"sync"
	"time"
)

type Metric[T any] interface {
	Measurement
	Record(T)
	Values() []T
	Count() int
}

type Numeric interface {
	float64 | float32 | int | int64 | int32 | int16 | int8 | uint64 | uint32 | uint16 | uint8 | time.Duration
}

// |||||| GAUGE ||||||

type gauge[T Numeric] struct {
	key   string
	mu    sync.Mutex
	count int
	value T
}

// NewGauge creates a metric that keeps the most recently recorded value along with
// the number of values recorded.
func NewGauge[T Numeric](exp Experiment, key string) Metric[T] {
	if exp == nil {
		return &empty[T]{key: key}
	}
	m := &gauge[T]{key: key}
	exp.AddMeasurement(m)
	return m
}

func (g *gauge[T]) Key() string { return g.key }

func (g *gauge[T]) Value() interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

func (g *gauge[T]) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

func (g *gauge[T]) Values() []T {
	g.mu.Lock()
	defer g.mu.Unlock()
	return []T{g.value}
}

func (g *gauge[T]) Record(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count++
	g.value = v
}

// |||||| COUNTER ||||||

type counter[T Numeric] struct {
	gauge[T]
}

// NewCounter creates a metric that sums every recorded value.
func NewCounter[T Numeric](exp Experiment, key string) Metric[T] {
	if exp == nil {
		return &empty[T]{key: key}
	}
	m := &counter[T]{gauge: gauge[T]{key: key}}
	exp.AddMeasurement(m)
	return m
}

func (c *counter[T]) Record(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	c.value += v
}

// |||||| SERIES ||||||

type series[T any] struct {
	key    string
	mu     sync.Mutex
	values []T
}

// NewSeries creates a metric that keeps every recorded value.
func NewSeries[T any](exp Experiment, key string) Metric[T] {
	if exp == nil {
		return &empty[T]{key: key}
	}
	m := &series[T]{key: key}
	exp.AddMeasurement(m)
	return m
}

func (s *series[T]) Key() string { return s.key }

func (s *series[T]) Value() interface{} { return s.Values() }

func (s *series[T]) Values() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]T, len(s.values))
	copy(v, s.values)
	return v
}

func (s *series[T]) Record(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, v)
}

func (s *series[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// |||||| EMPTY ||||||

type empty[T any] struct {
	key string
}

func (e *empty[T]) Key() string { return e.key }

func (e *empty[T]) Value() interface{} { return nil }

func (e *empty[T]) Values() []T { return nil }

func (e *empty[T]) Record(T) {}

func (e *empty[T]) Count() int { return 0 }
