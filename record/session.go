package record

import (
	"io"
	"sort"
	"time"

	"github.com/arya-analytics/ant/channel"
	"github.com/arya-analytics/ant/kv"
	"github.com/arya-analytics/ant/pk"
	"github.com/arya-analytics/ant/util/binary"
)

const (
	sessionPrefix kv.Prefix = 's'
	samplePrefix  kv.Prefix = 'd'
)

// Session describes one recording: when it started and the channels it captured.
type Session struct {
	Key      pk.PK
	Start    time.Time
	Channels map[byte]channel.Config
}

// Flush implements kv.FlushFill.
func (s Session) Flush(w io.Writer) error {
	if _, err := w.Write(s.Key.Bytes()); err != nil {
		return err
	}
	if err := binary.Write(w, s.Start.UnixNano()); err != nil {
		return err
	}
	numbers := make([]int, 0, len(s.Channels))
	for n := range s.Channels {
		numbers = append(numbers, int(n))
	}
	sort.Ints(numbers)
	if err := binary.Write(w, uint8(len(numbers))); err != nil {
		return err
	}
	for _, n := range numbers {
		if err := binary.Write(w, uint8(n)); err != nil {
			return err
		}
		if err := s.Channels[byte(n)].Flush(w); err != nil {
			return err
		}
	}
	return nil
}

// Fill implements kv.FlushFill.
func (s Session) Fill(r io.Reader) (Session, error) {
	var err error
	if s.Key, err = pk.Read(r); err != nil {
		return s, err
	}
	var start int64
	if err = binary.Read(r, &start); err != nil {
		return s, err
	}
	s.Start = time.Unix(0, start)
	var count uint8
	if err = binary.Read(r, &count); err != nil {
		return s, err
	}
	s.Channels = make(map[byte]channel.Config, count)
	for i := 0; i < int(count); i++ {
		var n uint8
		if err = binary.Read(r, &n); err != nil {
			return s, err
		}
		cfg, err := channel.Config{}.Fill(r)
		if err != nil {
			return s, err
		}
		s.Channels[n] = cfg
	}
	return s, nil
}

// Sessions returns every session stored in engine.
func Sessions(engine kv.Engine) ([]Session, error) {
	return kv.IterFill(engine, sessionPrefix, Session{})
}

// LoadSession returns the session with the given key.
func LoadSession(engine kv.Engine, key pk.PK) (Session, error) {
	return kv.GetWithPrefixedPK(engine, sessionPrefix, key, Session{})
}
