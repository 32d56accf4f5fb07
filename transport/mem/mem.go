// Package mem implements an in-memory transport.Transport that stands in for an ANT
// dongle. Inbound bytes are scripted with Inject or generated by a Responder, and every
// outbound frame is logged.
package mem

import (
	"context"
	"sync"
	"time"

	"github.com/arya-analytics/ant/message"
	"github.com/arya-analytics/ant/transport"
)

// Responder generates the messages a dongle would send in reply to an outbound message.
type Responder func(m message.Message) []message.Message

const defaultRxCapacity = 1024

// Transport is an in-memory transport.Transport. Each injected buffer is returned by
// exactly one Read.
type Transport struct {
	mu        sync.Mutex
	rx        chan []byte
	tx        [][]byte
	readErr   error
	writeErr  error
	failNext  map[message.ID]error
	responder Responder
	closed    chan struct{}
	closeOnce sync.Once
}

var _ transport.Transport = (*Transport)(nil)

func New() *Transport {
	return &Transport{
		rx:     make(chan []byte, defaultRxCapacity),
		closed: make(chan struct{}),
	}
}

// Opener returns a transport.Opener that always opens t.
func (t *Transport) Opener() transport.Opener {
	return func(ctx context.Context) (transport.Transport, error) { return t, ctx.Err() }
}

// Inject queues b to be returned by a future Read.
func (t *Transport) Inject(b []byte) {
	c := make([]byte, len(b))
	copy(c, b)
	t.rx <- c
}

// InjectMessages encodes each message and queues it as a separate Read.
func (t *Transport) InjectMessages(msgs ...message.Message) error {
	for _, m := range msgs {
		b, err := m.Encode()
		if err != nil {
			return err
		}
		t.Inject(b)
	}
	return nil
}

// SetResponder replies to every subsequent Write with the messages r returns.
func (t *Transport) SetResponder(r Responder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responder = r
}

// FailReads makes every subsequent Read return err. A nil err restores reads.
func (t *Transport) FailReads(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readErr = err
}

// FailWrites makes every subsequent Write return err. A nil err restores writes.
func (t *Transport) FailWrites(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
}

// FailNext makes the next Write of a message with the given id return err. Later
// writes of the id succeed.
func (t *Transport) FailNext(id message.ID, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failNext == nil {
		t.failNext = make(map[message.ID]error)
	}
	t.failNext[id] = err
}

// Frames returns every frame written so far.
func (t *Transport) Frames() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.tx))
	copy(out, t.tx)
	return out
}

// Written decodes every frame written so far. Frames that do not decode are omitted.
func (t *Transport) Written() []message.Message {
	var msgs []message.Message
	for _, f := range t.Frames() {
		m, err := message.NewReader(f).NextMessage()
		if err == nil {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// Read implements transport.Transport.
func (t *Transport) Read(p []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	err := t.readErr
	t.mu.Unlock()
	if err != nil {
		return 0, err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.closed:
		return 0, transport.ErrClosed
	case b := <-t.rx:
		return copy(p, b), nil
	case <-timer.C:
		return 0, transport.ErrTimeout
	}
}

// Write implements transport.Transport.
func (t *Transport) Write(p []byte, _ time.Duration) (int, error) {
	select {
	case <-t.closed:
		return 0, transport.ErrClosed
	default:
	}
	t.mu.Lock()
	if t.writeErr != nil {
		err := t.writeErr
		t.mu.Unlock()
		return 0, err
	}
	if len(p) > 2 {
		if err, ok := t.failNext[message.ID(p[2])]; ok {
			delete(t.failNext, message.ID(p[2]))
			t.mu.Unlock()
			return 0, err
		}
	}
	f := make([]byte, len(p))
	copy(f, p)
	t.tx = append(t.tx, f)
	r := t.responder
	t.mu.Unlock()
	if r != nil {
		if m, err := message.NewReader(f).NextMessage(); err == nil {
			if err := t.InjectMessages(r(m)...); err != nil {
				return 0, err
			}
		}
	}
	return len(p), nil
}

// Close implements transport.Transport.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}
