// Package binary holds the byte order used on the ANT wire along with a few helpers
// for packing the multi-byte fields carried in message payloads.
package binary

import (
	"encoding/binary"
	"io"
)

// Encoding returns the byte order ANT uses for every multi-byte field.
func Encoding() binary.ByteOrder { return binary.LittleEndian }

func Write(w io.Writer, data interface{}) (err error) {
	return binary.Write(w, Encoding(), data)
}

func Read(r io.Reader, data interface{}) (err error) {
	return binary.Read(r, Encoding(), data)
}

// PutUint16 returns v as an [LSB, MSB] pair.
func PutUint16(v uint16) [2]byte {
	var b [2]byte
	Encoding().PutUint16(b[:], v)
	return b
}

// Combine folds up to four little-endian bytes into a single value. Bytes past the
// fourth are ignored.
func Combine(b []byte) uint32 {
	var v uint32
	for i := 0; i < len(b) && i < 4; i++ {
		v |= uint32(b[i]) << (8 * i)
	}
	return v
}

// KeyEncoding returns the byte order used for integers embedded in storage keys. Big
// endian keys sort in numeric order.
func KeyEncoding() binary.ByteOrder { return binary.BigEndian }
