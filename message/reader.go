package message

import "io"

// Reader scans a buffer of bytes read from the dongle for frames and decodes them
// into Responses. Bytes that do not form a frame with a valid checksum are skipped one
// at a time until the next sync byte. A Reader is not safe for concurrent use.
type Reader struct {
	buf   []byte
	index int
}

func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Reset points the Reader at a new buffer. Frames must not span buffers.
func (r *Reader) Reset(buf []byte) {
	r.buf = buf
	r.index = 0
}

// Next returns the next Response in the buffer, or io.EOF once the buffer holds no
// further frames. A valid frame that cannot be decoded yields an error wrapping
// ErrUnknownMessage or ErrMalformed; the frame is consumed and Next may be called
// again to continue scanning.
func (r *Reader) Next() (Response, error) {
	m, err := r.NextMessage()
	if err != nil {
		return nil, err
	}
	return Decode(m.ID, m.Data)
}

// NextMessage returns the next valid frame in the buffer without decoding its
// payload, or io.EOF once the buffer holds no further frames.
func (r *Reader) NextMessage() (Message, error) {
	for r.index < len(r.buf) {
		start := r.index
		end, ok := r.frameEnd(start)
		if !ok {
			r.index++
			continue
		}
		r.index = end
		return New(ID(r.buf[start+idOffset]), r.buf[start+headerSize:end-checksumSize]...), nil
	}
	return Message{}, io.EOF
}

// frameEnd returns the exclusive end of the frame starting at index if the bytes there
// form a complete frame with a valid checksum.
func (r *Reader) frameEnd(index int) (int, bool) {
	if r.buf[index] != SyncByte || index+lengthOffset >= len(r.buf) {
		return 0, false
	}
	end := index + int(r.buf[index+lengthOffset]) + frameOverhead
	if end > len(r.buf) || Checksum(r.buf[index:end]) != 0 {
		return 0, false
	}
	return end, true
}

// ReadAll decodes every frame in buf. Frames that cannot be decoded are skipped and
// their errors returned alongside the decoded responses.
func ReadAll(buf []byte) (responses []Response, errs []error) {
	r := NewReader(buf)
	for {
		res, err := r.Next()
		if err == io.EOF {
			return responses, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		responses = append(responses, res)
	}
}
