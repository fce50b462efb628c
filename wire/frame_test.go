package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	f := NewFrame()
	f.Begin(MsgCreatePost)
	f.WriteInt32(-7)
	f.WriteInt64(1 << 40)
	f.WriteFloat64(3.25)
	f.WriteBool(true)
	f.WriteString("ciao")
	f.WriteString("")
	f.WriteStrings([]string{"a", "bb"})
	data := f.Seal()

	g := NewFrame()
	g.Load(data[4:])
	msgType, err := g.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, MsgCreatePost, MsgType(msgType))
	i32, err := g.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-7), i32)
	i64, err := g.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), i64)
	f64, err := g.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, 3.25, f64)
	b, err := g.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)
	s, err := g.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "ciao", s)
	s, err = g.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "", s)
	ss, err := g.ReadStrings()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "bb"}, ss)
	assert.Equal(t, 0, g.Remaining())
}

func TestSealPatchesLength(t *testing.T) {
	f := NewFrame()
	f.Begin(MsgLogout)
	data := f.Seal()
	require.Equal(t, HeaderSize, len(data))
	assert.Equal(t, []byte{0, 0, 0, 4}, data[:4])
}

func TestResetReusesWithoutLeaking(t *testing.T) {
	f := NewFrame()
	f.Begin(MsgLogin)
	f.WriteString("a very long string that grows the backing buffer well past small payloads")
	first := f.Seal()
	grown := cap(first)

	f.Begin(MsgLogout)
	second := f.Seal()
	assert.Equal(t, HeaderSize, len(second), "logical length must reset")
	assert.Equal(t, grown, cap(f.buf), "capacity must be reused, not reallocated")
}

func TestDeclaredLengthBeyondCapacity(t *testing.T) {
	f := NewFrame()
	f.Begin(MsgLogin)
	f.WriteString("bob")
	data := f.Seal()
	// corrupt the string length to claim more bytes than the frame holds
	data[8] = 0x7f

	g := NewFrame()
	g.Load(data[4:])
	_, err := g.ReadInt32()
	require.NoError(t, err)
	_, err = g.ReadString()
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestShortFrame(t *testing.T) {
	g := NewFrame()
	g.Load([]byte{0, 0})
	_, err := g.ReadInt32()
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestResponsePairing(t *testing.T) {
	for _, msg := range []MsgType{MsgLogin, MsgWallet, MsgShowFeed} {
		assert.False(t, msg.IsResponse())
		assert.True(t, msg.Response().IsResponse())
		assert.NotEqual(t, msg, msg.Response())
	}
}
