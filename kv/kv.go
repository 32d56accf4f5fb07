// Package kv is an ordered key-value store abstraction.
package kv

import (
	"bytes"
	"io"

	"github.com/arya-analytics/ant/pk"
	"github.com/cockroachdb/errors"
)

type Value []byte

type Key []byte

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("[kv] - key not found")

type Engine interface {
	Set(key Key, value Value) error
	// Get returns the value of key, or ErrNotFound. The returned value is owned by the
	// caller.
	Get(key Key) (Value, error)
	Delete(key Key) error
	// NewBatch creates a set of writes applied atomically on Commit.
	NewBatch() Batch
	// IterPrefix iterates over every key starting with prefix in ascending order.
	IterPrefix(prefix []byte) Iterator
	Close() error
}

type Batch interface {
	Set(key Key, value Value) error
	Commit() error
	// Close releases the batch. A batch that was not committed is discarded.
	Close() error
}

type Iterator interface {
	First() bool
	Next() bool
	Valid() bool
	// Key and Value are valid until the next call to Next or Close.
	Key() Key
	Value() Value
	Close() error
}

type FlushFill[T any] interface {
	Flush(io.Writer) error
	Fill(io.Reader) (T, error)
}

func SetWithPrefixedPK[T FlushFill[T]](e Engine, prefix Prefix, pk pk.PK, t T) error {
	b := new(bytes.Buffer)
	if err := t.Flush(b); err != nil {
		return err
	}
	return e.Set(PrefixedKey(prefix, pk.Bytes()), b.Bytes())
}

func GetWithPrefixedPK[T FlushFill[T]](e Engine, prefix Prefix, pk pk.PK, t T) (T, error) {
	b, err := e.Get(PrefixedKey(prefix, pk.Bytes()))
	if err != nil {
		return t, err
	}
	return t.Fill(bytes.NewReader(b))
}

// IterFill decodes the value of every key under prefix.
func IterFill[T FlushFill[T]](e Engine, prefix Prefix, t T) ([]T, error) {
	iter := e.IterPrefix([]byte{byte(prefix)})
	var out []T
	for iter.First(); iter.Valid(); iter.Next() {
		v, err := t.Fill(bytes.NewReader(iter.Value()))
		if err != nil {
			return out, errors.CombineErrors(err, iter.Close())
		}
		out = append(out, v)
	}
	return out, iter.Close()
}
