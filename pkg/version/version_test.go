package version

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := Pair{Major: 1, Minor: 1}
	assert.Equal(t, p.Encode(), uint16(0x0101))
	assert.DeepEqual(t, Decode(0x0101), p)
}

func TestAtLeast(t *testing.T) {
	assert.Equal(t, AtLeast(0x0101, 1, 1), true)
	assert.Equal(t, AtLeast(0x0100, 1, 1), false)
	assert.Equal(t, AtLeast(0x0101, 1, 0), true)
}
