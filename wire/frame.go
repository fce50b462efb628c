// wire implements the length-prefixed binary protocol spoken between the
// winsome server and its clients. A frame on the wire is
//
//	[int32 total length][int32 message type][payload]
//
// where the total length counts the type field plus the payload. All fixed
// width integers are big-endian. Strings are [int32 byte length][utf-8
// bytes], collections are [int32 count] followed by the encoded elements,
// and an absent nullable field is the sentinel value Absent written in place
// of its length or id.
package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

const (
	// Absent marks a nullable int32 slot (an object reference or a string
	// length) as empty without a separate tag byte.
	Absent = math.MaxInt32

	// MaxFrameSize bounds the declared length of an incoming frame. A peer
	// announcing more than this is treated as malformed, not as a large
	// request.
	MaxFrameSize = 1 << 22

	// HeaderSize is the length prefix plus the message type field.
	HeaderSize = 8
)

var (
	ErrFrameTooLarge = errors.New("declared frame length exceeds limit")
	ErrShortFrame    = errors.New("frame ends before declared content")
	ErrBadLength     = errors.New("declared length exceeds frame capacity")
)

// Frame is a reusable buffer holding the type and payload region of one
// protocol message. Reset keeps the backing array, so a frame can be
// rewritten in place once its capacity suffices; the logical length and the
// read cursor always restart from zero so no bytes from a previous use are
// ever observable.
type Frame struct {
	buf []byte
	pos int
}

func NewFrame() *Frame {
	return &Frame{buf: make([]byte, 0, 512)}
}

// Reset discards the frame's content without releasing its storage.
func (f *Frame) Reset() {
	f.buf = f.buf[:0]
	f.pos = 0
}

// Load points the frame at the type+payload region of a received message and
// rewinds the read cursor.
func (f *Frame) Load(data []byte) {
	f.buf = data
	f.pos = 0
}

// Len is the logical length of the content written so far.
func (f *Frame) Len() int {
	return len(f.buf)
}

// Remaining reports how many unread bytes the cursor still has ahead of it.
func (f *Frame) Remaining() int {
	return len(f.buf) - f.pos
}

// Begin resets the frame and opens a message of the given type, reserving
// the length prefix to be patched by Seal.
func (f *Frame) Begin(t MsgType) {
	f.Reset()
	f.WriteInt32(0) // patched by Seal
	f.WriteInt32(int32(t))
}

// Seal patches the length prefix and returns the complete wire form of the
// frame. The returned slice aliases the frame's storage and is only valid
// until the next Reset or Begin.
func (f *Frame) Seal() []byte {
	binary.BigEndian.PutUint32(f.buf[0:4], uint32(len(f.buf)-4))
	return f.buf
}

func (f *Frame) WriteInt32(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	f.buf = append(f.buf, b[:]...)
}

func (f *Frame) WriteInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	f.buf = append(f.buf, b[:]...)
}

func (f *Frame) WriteFloat64(v float64) {
	f.WriteInt64(int64(math.Float64bits(v)))
}

func (f *Frame) WriteBool(v bool) {
	if v {
		f.buf = append(f.buf, 1)
	} else {
		f.buf = append(f.buf, 0)
	}
}

func (f *Frame) WriteString(s string) {
	f.WriteInt32(int32(len(s)))
	f.buf = append(f.buf, s...)
}

func (f *Frame) WriteStrings(ss []string) {
	f.WriteInt32(int32(len(ss)))
	for _, s := range ss {
		f.WriteString(s)
	}
}

func (f *Frame) ReadInt32() (int32, error) {
	if f.pos+4 > len(f.buf) {
		return 0, ErrShortFrame
	}
	v := int32(binary.BigEndian.Uint32(f.buf[f.pos:]))
	f.pos += 4
	return v, nil
}

func (f *Frame) ReadInt64() (int64, error) {
	if f.pos+8 > len(f.buf) {
		return 0, ErrShortFrame
	}
	v := int64(binary.BigEndian.Uint64(f.buf[f.pos:]))
	f.pos += 8
	return v, nil
}

func (f *Frame) ReadFloat64() (float64, error) {
	v, err := f.ReadInt64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

func (f *Frame) ReadBool() (bool, error) {
	if f.pos >= len(f.buf) {
		return false, ErrShortFrame
	}
	v := f.buf[f.pos] != 0
	f.pos++
	return v, nil
}

// ReadString rejects a declared length larger than the bytes actually left
// in the frame, so a malformed prefix can never read past the buffer.
func (f *Frame) ReadString() (string, error) {
	length, err := f.ReadInt32()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	if length < 0 || int(length) > f.Remaining() {
		return "", ErrBadLength
	}
	s := string(f.buf[f.pos : f.pos+int(length)])
	f.pos += int(length)
	return s, nil
}

func (f *Frame) ReadStrings() ([]string, error) {
	count, err := f.ReadInt32()
	if err != nil {
		return nil, err
	}
	if count < 0 || int(count)*4 > f.Remaining() {
		return nil, ErrBadLength
	}
	ss := make([]string, count)
	for n := range ss {
		if ss[n], err = f.ReadString(); err != nil {
			return nil, err
		}
	}
	return ss, nil
}
