// Package pk provides the primary keys used to identify recording sessions.
package pk

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type PK uuid.UUID

const Size = 16

// New generates a random primary key.
func New() PK { return PK(uuid.New()) }

// Parse parses the canonical string form returned by String.
func Parse(s string) (PK, error) {
	uid, err := uuid.Parse(s)
	if err != nil {
		return PK{}, errors.Wrapf(err, "[pk] - invalid key %q", s)
	}
	return PK(uid), nil
}

// FromBytes reads a key from the first Size bytes of b.
func FromBytes(b []byte) (PK, error) {
	uid, err := uuid.FromBytes(b)
	if err != nil {
		return PK{}, errors.Wrap(err, "[pk] - invalid key bytes")
	}
	return PK(uid), nil
}

func Read(r io.Reader) (PK, error) {
	b := make([]byte, Size)
	if _, err := io.ReadFull(r, b); err != nil {
		return PK{}, err
	}
	return FromBytes(b)
}

func (k PK) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, k[:])
	return b
}

func (k PK) IsZero() bool { return k == PK{} }

func (k PK) String() string { return uuid.UUID(k).String() }
