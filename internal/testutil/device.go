package testutil

import (
	"context"
	"time"

	"github.com/arya-analytics/ant/message"
	"github.com/arya-analytics/ant/transport/mem"
	"github.com/arya-analytics/ant/util/binary"
)

// Sensor simulates a device broadcasting on a channel of an in-memory dongle.
type Sensor struct {
	Transport *mem.Transport
	Channel   byte
	// Interval is the time between broadcasts.
	Interval time.Duration
	// Page returns the payload of the i-th broadcast. Nil pages carry a little endian
	// counter.
	Page func(i int) [message.PayloadSize]byte
}

// Start broadcasts until ctx is cancelled or count payloads have been sent. A count
// of zero broadcasts until cancellation. The returned channel is closed when Start
// stops.
func (s Sensor) Start(ctx context.Context, count int) <-chan struct{} {
	page := s.Page
	if page == nil {
		page = CounterPage
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(s.Interval)
		defer t.Stop()
		for i := 0; count == 0 || i < count; i++ {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			b := message.BroadcastData{Channel: s.Channel, Data: page(i)}
			if err := s.Transport.InjectMessages(b.Message()); err != nil {
				return
			}
		}
	}()
	return done
}

// CounterPage returns a payload carrying i in its first two bytes.
func CounterPage(i int) [message.PayloadSize]byte {
	var p [message.PayloadSize]byte
	c := binary.PutUint16(uint16(i))
	copy(p[:], c[:])
	return p
}
