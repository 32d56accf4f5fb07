// Package transport defines the byte-level link to an ANT dongle.
package transport

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	// ErrTimeout is returned by Read when no bytes arrive before the timeout elapses. It
	// is expected while the dongle is idle.
	ErrTimeout = errors.New("[transport] - timeout")
	// ErrNotFound is returned by an Opener when no dongle is attached.
	ErrNotFound = errors.New("[transport] - device not found")
	// ErrClosed is returned by operations on a closed Transport.
	ErrClosed = errors.New("[transport] - closed")
)

// Transport is an open link to a dongle. A single reader and a single writer may use
// a Transport concurrently.
type Transport interface {
	// Read reads at most len(p) bytes into p. Read returns ErrTimeout if no bytes
	// arrive within timeout. A single Read never returns part of a frame.
	Read(p []byte, timeout time.Duration) (int, error)
	// Write writes p to the dongle, returning the number of bytes written.
	Write(p []byte, timeout time.Duration) (int, error)
	// Close releases the link.
	Close() error
}

// Opener opens a Transport to the first available dongle.
type Opener func(ctx context.Context) (Transport, error)
