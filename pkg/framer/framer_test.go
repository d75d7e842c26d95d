package framer

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"
)

func TestRead_ResyncAfterGarbage(t *testing.T) {
	pingResp := []byte{0x41, 0x52, 0x43, 0x50, 0x00, 0x0F, 0x00, 0x2A, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}

	junk := make([]byte, 37)
	for i := range junk {
		junk[i] = byte(0x10 + i%5) // never forms 0x41524350 in any rolling window
	}

	r := bytes.NewReader(append(junk, pingResp...))
	res, err := Read(r, ModeARCP)
	assert.NilError(t, err)
	assert.DeepEqual(t, res.Frame, pingResp)
}

func TestRead_ResyncToleratesUpTo256GarbageBytes(t *testing.T) {
	pingResp := []byte{0x41, 0x52, 0x43, 0x50, 0x00, 0x0F, 0x00, 0x2A, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}

	junk := make([]byte, 256)
	for i := range junk {
		junk[i] = byte(0xAA)
	}

	r := bytes.NewReader(append(junk, pingResp...))
	res, err := Read(r, ModeARCP)
	assert.NilError(t, err)
	assert.DeepEqual(t, res.Frame, pingResp)
}

func TestRead_OversizedFrameRejectedWithoutAllocating2048(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x41, 0x52, 0x43, 0x50})
	buf.Write([]byte{0x08, 0x00}) // msg_length = 2048

	_, err := Read(&buf, ModeARCP)
	assert.ErrorIs(t, err, ErrBadMsg)
}

func TestRead_UndersizedFrameRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x41, 0x52, 0x43, 0x50})
	buf.Write([]byte{0x00, 0x05}) // msg_length = 5 < HeaderSize

	_, err := Read(&buf, ModeARCP)
	assert.ErrorIs(t, err, ErrBadMsg)
}

func TestRead_ConnDroppedMidFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x41, 0x52, 0x43, 0x50})
	buf.Write([]byte{0x00, 0x0F}) // msg_length = 15, but body is cut short
	buf.Write([]byte{0x00, 0x2A})

	_, err := Read(&buf, ModeARCP)
	assert.ErrorIs(t, err, ErrConnDropped)
}

func TestRead_ASCIISideband(t *testing.T) {
	r := bytes.NewReader([]byte("OK\r\n"))
	res, err := Read(r, ModeASCII)
	assert.NilError(t, err)
	assert.DeepEqual(t, res.ASCII, []byte("OK"))
}

func TestRead_BothModesPrefersWhicheverMatchesFirst(t *testing.T) {
	r := bytes.NewReader([]byte("OK\n"))
	res, err := Read(r, ModeBoth)
	assert.NilError(t, err)
	assert.DeepEqual(t, res.ASCII, []byte("OK"))
}
