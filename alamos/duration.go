package alamos

import (
	"time"
)

// Duration is a metric of time.Duration values that can hand out stopwatches.
type Duration interface {
	Metric[time.Duration]
	Stopwatch() Stopwatch
}

// Stopwatch times a single interval and records it to the Duration that created it.
type Stopwatch interface {
	Start()
	Stop() time.Duration
	Elapsed() time.Duration
}

type duration struct {
	Metric[time.Duration]
}

func (d *duration) Stopwatch() Stopwatch { return &stopwatch{metric: d} }

func NewSeriesDuration(exp Experiment, key string) Duration {
	return &duration{Metric: NewSeries[time.Duration](exp, key)}
}

func NewGaugeDuration(exp Experiment, key string) Duration {
	return &duration{Metric: NewGauge[time.Duration](exp, key)}
}

type stopwatch struct {
	metric Metric[time.Duration]
	start  time.Time
}

func (s *stopwatch) Start() {
	if !s.start.IsZero() {
		panic("[alamos] - stopwatch already started. please call Stop() first")
	}
	s.start = time.Now()
}

func (s *stopwatch) Elapsed() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	return time.Since(s.start)
}

func (s *stopwatch) Stop() time.Duration {
	if s.start.IsZero() {
		panic("[alamos] - stopwatch not started. please call Start() first")
	}
	t := time.Since(s.start)
	s.start = time.Time{}
	s.metric.Record(t)
	return t
}
