package record

import (
	"time"

	"github.com/arya-analytics/ant/kv"
	"github.com/arya-analytics/ant/message"
	"github.com/arya-analytics/ant/pk"
	"github.com/arya-analytics/ant/util/binary"
	"github.com/cockroachdb/errors"
)

// Sample is one broadcast payload received on a channel.
type Sample struct {
	Channel byte
	Time    time.Time
	Data    [message.PayloadSize]byte
}

const (
	timestampSize = 8
	sequenceSize  = 4
	sampleKeySize = 1 + pk.Size + 1 + timestampSize + sequenceSize
)

// ErrCorrupt is returned when a stored sample cannot be read back.
var ErrCorrupt = errors.New("[record] - corrupt sample")

// sampleKey orders samples by session, channel, time, and arrival.
func sampleKey(session pk.PK, s Sample, seq uint32) []byte {
	b := make([]byte, timestampSize+sequenceSize)
	binary.KeyEncoding().PutUint64(b, uint64(s.Time.UnixNano()))
	binary.KeyEncoding().PutUint32(b[timestampSize:], seq)
	return kv.PrefixedKey(samplePrefix, session.Bytes(), []byte{s.Channel}, b)
}

func parseSample(key, value []byte) (Sample, error) {
	if len(key) != sampleKeySize || len(value) != message.PayloadSize {
		return Sample{}, errors.Wrapf(ErrCorrupt, "key %d bytes, value %d bytes", len(key), len(value))
	}
	s := Sample{Channel: key[1+pk.Size]}
	ts := binary.KeyEncoding().Uint64(key[2+pk.Size:])
	s.Time = time.Unix(0, int64(ts))
	copy(s.Data[:], value)
	return s, nil
}

// Samples returns the samples recorded on a channel during a session in the order they
// were received.
func Samples(engine kv.Engine, session pk.PK, ch byte) ([]Sample, error) {
	iter := engine.IterPrefix(kv.PrefixedKey(samplePrefix, session.Bytes(), []byte{ch}))
	var samples []Sample
	for iter.First(); iter.Valid(); iter.Next() {
		s, err := parseSample(iter.Key(), iter.Value())
		if err != nil {
			return samples, errors.CombineErrors(err, iter.Close())
		}
		samples = append(samples, s)
	}
	return samples, iter.Close()
}
