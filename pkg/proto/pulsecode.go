package proto

import "fmt"

// MaxPulseCodeBits is the domain maximum capacity of a PulseCode, in bits.
const MaxPulseCodeBits = 512

// PulseCode is a variable-length bit-vector addressed by zero-based bit
// index. Bit k occupies bit (k mod 8) of byte (k div 8). A nil *PulseCode
// is the wire's "null pulse code", interpreted as a monopulse of length 1;
// it is kept distinct from an explicit length-1 code so that decoding a
// wire code_length of 0 reconstructs "null", not "length one".
type PulseCode struct {
	length int // in bits
	data   []byte
}

// NewPulseCode creates an empty (zero-length) pulse code. Use SetLength or
// SetBit to populate it.
func NewPulseCode() *PulseCode {
	return &PulseCode{}
}

// Length reports the pulse code's length in bits.
func (p *PulseCode) Length() int {
	if p == nil {
		return 0
	}
	return p.length
}

// ByteLen reports ceil(length/8), the number of bytes the bit-vector
// occupies on the wire.
func (p *PulseCode) ByteLen() int {
	return (p.Length() + 7) / 8
}

// SetLength resizes the bit-vector, preserving prevailing data up to
// min(old,new) bits and zero-filling any newly exposed bits. Returns
// ErrBadLength if length exceeds MaxPulseCodeBits.
func (p *PulseCode) SetLength(length int) error {
	if length < 0 || length > MaxPulseCodeBits {
		return fmt.Errorf("%w: pulse code length %d exceeds maximum %d", ErrBadLength, length, MaxPulseCodeBits)
	}
	newData := make([]byte, (length+7)/8)
	copy(newData, p.data)
	p.data = newData
	p.length = length
	return nil
}

// GetBit reports the value of bit k. k must be less than Length(); a nil
// receiver (the "null" pulse code) behaves as a monopulse of length 1,
// whose single bit is always 0.
func (p *PulseCode) GetBit(k int) bool {
	if p == nil {
		return false
	}
	if k < 0 || k >= p.length {
		return false
	}
	return p.data[k/8]&(1<<uint(k%8)) != 0
}

// SetBit sets bit k to v, auto-extending the pulse code's length to k+1 if
// necessary. Returns ErrBadLength if k+1 would exceed MaxPulseCodeBits.
func (p *PulseCode) SetBit(k int, v bool) error {
	if k < 0 || k >= MaxPulseCodeBits {
		return fmt.Errorf("%w: bit index %d exceeds maximum %d", ErrBadLength, k, MaxPulseCodeBits-1)
	}
	if k >= p.length {
		if err := p.SetLength(k + 1); err != nil {
			return err
		}
	}
	if v {
		p.data[k/8] |= 1 << uint(k%8)
	} else {
		p.data[k/8] &^= 1 << uint(k%8)
	}
	return nil
}

// Bytes returns the raw ceil(length/8)-byte bit-vector, as stored on the
// wire.
func (p *PulseCode) Bytes() []byte {
	if p == nil {
		return nil
	}
	return p.data
}

// PulseCodeFromBytes reconstructs a PulseCode from its wire length (in
// bits) and raw byte data. A length of 0 reconstructs the "null" pulse
// code (nil), not a zero-length one.
func PulseCodeFromBytes(length int, data []byte) (*PulseCode, error) {
	if length == 0 {
		return nil, nil
	}
	if length < 0 || length > MaxPulseCodeBits {
		return nil, fmt.Errorf("%w: pulse code length %d exceeds maximum %d", ErrBadLength, length, MaxPulseCodeBits)
	}
	want := (length + 7) / 8
	if len(data) != want {
		return nil, fmt.Errorf("%w: pulse code length %d needs %d bytes, got %d", ErrBadLength, length, want, len(data))
	}
	buf := make([]byte, want)
	copy(buf, data)
	return &PulseCode{length: length, data: buf}, nil
}
