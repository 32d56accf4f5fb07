package kv

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// PebbleEngine implements Engine and wraps a Pebble DB instance.
type PebbleEngine struct {
	DB *pebble.DB
}

var _ Engine = PebbleEngine{}

// OpenPebble opens a pebble database in dirname. A nil fs uses the OS file system.
func OpenPebble(dirname string, fs vfs.FS) (PebbleEngine, error) {
	opts := &pebble.Options{}
	if fs != nil {
		opts.FS = fs
	}
	db, err := pebble.Open(dirname, opts)
	if err != nil {
		return PebbleEngine{}, errors.Wrapf(err, "[kv] - failed to open %s", dirname)
	}
	return PebbleEngine{DB: db}, nil
}

// OpenMemPebble opens a pebble database held in memory.
func OpenMemPebble() (PebbleEngine, error) { return OpenPebble("", vfs.NewMem()) }

// Get implements the Engine interface.
func (pe PebbleEngine) Get(key Key) (Value, error) {
	v, c, err := pe.DB.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "%x", []byte(key))
	}
	if err != nil {
		return nil, err
	}
	out := make(Value, len(v))
	copy(out, v)
	return out, c.Close()
}

// Set implements the Engine interface.
func (pe PebbleEngine) Set(key Key, value Value) error {
	return pe.DB.Set(key, value, pebble.NoSync)
}

// Delete implements the Engine interface.
func (pe PebbleEngine) Delete(key Key) error {
	return pe.DB.Delete(key, pebble.NoSync)
}

// NewBatch implements the Engine interface.
func (pe PebbleEngine) NewBatch() Batch { return pebbleBatch{pe.DB.NewBatch()} }

// IterPrefix implements the Engine interface.
func (pe PebbleEngine) IterPrefix(prefix []byte) Iterator {
	return pebbleIterator{pe.DB.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: UpperBound(prefix),
	})}
}

func (pe PebbleEngine) Close() error {
	return pe.DB.Close()
}

type pebbleBatch struct{ b *pebble.Batch }

func (pb pebbleBatch) Set(key Key, value Value) error { return pb.b.Set(key, value, nil) }

func (pb pebbleBatch) Commit() error { return pb.b.Commit(pebble.Sync) }

func (pb pebbleBatch) Close() error { return pb.b.Close() }

type pebbleIterator struct{ *pebble.Iterator }

func (pi pebbleIterator) Key() Key { return pi.Iterator.Key() }

func (pi pebbleIterator) Value() Value { return pi.Iterator.Value() }
