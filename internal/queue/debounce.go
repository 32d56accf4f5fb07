// Package queue batches values handed over by concurrent producers.
package queue

import (
	"time"

	"github.com/arya-analytics/ant/shut"
	"go.uber.org/zap"
)

// Debounce is a goroutine safe queue that flushes batches of values to Responses on a
// timer or when a size threshold is reached.
type Debounce[T any] struct {
	// Requests is the channel to send values to add to the queue. Closing it flushes
	// anything pending and closes Responses.
	Requests chan []T
	// Responses receives flushed batches. It is closed when the queue exits.
	Responses chan []T
	// Shutter runs the queue routine. Closing it flushes the values that are already
	// waiting in Requests and closes Responses.
	Shutter shut.Shutter
	// Interval is the time between flushes.
	Interval time.Duration
	// Threshold is the maximum number of values to hold before flushing, regardless of
	// Interval.
	Threshold int
	Logger    *zap.Logger
}

// Start starts the queue.
func (d *Debounce[T]) Start() {
	d.Shutter.Go(func(sig chan shut.Signal) error {
		t := time.NewTicker(d.Interval)
		defer t.Stop()
		defer close(d.Responses)
		pending := make([]T, 0, d.Threshold)
		for {
			select {
			case <-sig:
				d.Logger.Debug("shutting down debounce queue")
				d.flush(d.drain(pending))
				return nil
			case values, ok := <-d.Requests:
				if !ok {
					d.flush(pending)
					return nil
				}
				pending = append(pending, values...)
				if len(pending) >= d.Threshold {
					d.flush(pending)
					pending = make([]T, 0, d.Threshold)
				}
			case <-t.C:
				d.flush(pending)
				pending = make([]T, 0, d.Threshold)
			}
		}
	}, shut.WithKey("queue.debounce"))
}

func (d *Debounce[T]) drain(pending []T) []T {
	for {
		select {
		case values, ok := <-d.Requests:
			if !ok {
				return pending
			}
			pending = append(pending, values...)
		default:
			return pending
		}
	}
}

func (d *Debounce[T]) flush(values []T) {
	if len(values) == 0 {
		return
	}
	d.Logger.Debug("flushing debounce queue", zap.Int("count", len(values)))
	d.Responses <- values
}
