package wire

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestStream_RoundTripScalars(t *testing.T) {
	s := NewStream(13)
	assert.NilError(t, s.WriteU32(0x41524350))
	assert.NilError(t, s.WriteU16(11))
	assert.NilError(t, s.WriteI16(-5))
	assert.NilError(t, s.WriteU8(1))
	assert.NilError(t, s.WriteF32(1.5))
	assert.NilError(t, s.Err())

	r := NewStreamFromBytes(s.Bytes())
	u32, err := r.ReadU32()
	assert.NilError(t, err)
	assert.Equal(t, u32, uint32(0x41524350))

	u16, err := r.ReadU16()
	assert.NilError(t, err)
	assert.Equal(t, u16, uint16(11))

	i16, err := r.ReadI16()
	assert.NilError(t, err)
	assert.Equal(t, i16, int16(-5))

	u8, err := r.ReadU8()
	assert.NilError(t, err)
	assert.Equal(t, u8, uint8(1))

	f32, err := r.ReadF32()
	assert.NilError(t, err)
	assert.Equal(t, f32, float32(1.5))
}

func TestStream_BigEndianByteOrder(t *testing.T) {
	s := NewStream(4)
	assert.NilError(t, s.WriteU32(0x01020304))
	assert.DeepEqual(t, s.Bytes(), []byte{0x01, 0x02, 0x03, 0x04})
}

func TestStream_OverflowSticksError(t *testing.T) {
	s := NewStream(2)
	assert.NilError(t, s.WriteU8(1))
	err := s.WriteU16(1)
	assert.ErrorIs(t, err, ErrBadMsg)
	assert.ErrorIs(t, s.Err(), ErrBadMsg)

	// Once the sticky flag is set, all further ops are no-ops that also
	// fail, even ones that would otherwise fit.
	err = s.WriteU8(2)
	assert.ErrorIs(t, err, ErrBadMsg)
}

func TestStream_UnderflowOnRead(t *testing.T) {
	r := NewStreamFromBytes([]byte{0x01})
	_, err := r.ReadU16()
	assert.ErrorIs(t, err, ErrBadMsg)
}

func TestStream_ReadBytesAliasesBuffer(t *testing.T) {
	r := NewStreamFromBytes([]byte{0xAA, 0xBB, 0xCC})
	b, err := r.ReadBytes(2)
	assert.NilError(t, err)
	assert.DeepEqual(t, b, []byte{0xAA, 0xBB})
	assert.Equal(t, r.Head(), 2)

	r.All()[0] = 0x11
	assert.Equal(t, b[0], byte(0x11))
}
