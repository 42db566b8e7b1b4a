package alternativa

import (
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/stream"
)

// OptionalMask is the shared ordered sequence of presence booleans decoded
// once per packet. Every nested record draws its optional checks from the
// same mask, strictly in schema-field order, so the cursor is threaded
// through all decode calls explicitly.
//
// On the wire a bit value of 0 means the field is present; the collected
// sequence is reversed before consumption.
type OptionalMask struct {
	bits []bool
	pos  int
}

// ReadOptionalMask decodes one optional mask from r.
//
// The flag byte selects among three forms: with the top bit clear, the low
// 5 flag bits carry data directly (consumed high bit first) and bits 6..5
// count 0-3 extra bytes; with the top bit set, bit 6 distinguishes an
// extra-byte count held in the low 6 flag bits from one held in the low 6
// bits times 65536 plus two big-endian bytes. Extra bytes contribute 8 bits
// each, most significant first.
func ReadOptionalMask(r *stream.Reader) (*OptionalMask, error) {
	flags, err := r.Uint8()
	if err != nil {
		return nil, err
	}

	var bits []bool
	var extraCount int

	if flags&0x80 == 0 {
		bits = make([]bool, 0, 5)
		for bit := 4; bit >= 0; bit-- {
			bits = append(bits, flags&(1<<bit) == 0)
		}
		extraCount = int(flags&0x60) >> 5
	} else if flags&0x40 == 0 {
		extraCount = int(flags & 0x3f)
	} else {
		high := int(flags&0x3f) << 16
		low, err := r.Uint16BE()
		if err != nil {
			return nil, err
		}
		extraCount = high + int(low)
	}

	extra, err := r.Bytes(extraCount)
	if err != nil {
		return nil, err
	}
	for _, b := range extra {
		for bit := 7; bit >= 0; bit-- {
			bits = append(bits, b&(1<<bit) == 0)
		}
	}

	for i, j := 0, len(bits)-1; i < j; i, j = i+1, j-1 {
		bits[i], bits[j] = bits[j], bits[i]
	}
	return &OptionalMask{bits: bits}, nil
}

// Next consumes and returns the next presence boolean.
func (m *OptionalMask) Next() (bool, error) {
	if m.pos >= len(m.bits) {
		return false, ErrMaskExhausted
	}
	b := m.bits[m.pos]
	m.pos++
	return b, nil
}

// Len returns the total number of booleans in the mask.
func (m *OptionalMask) Len() int {
	return len(m.bits)
}

// Remaining returns the number of unconsumed booleans.
func (m *OptionalMask) Remaining() int {
	return len(m.bits) - m.pos
}
