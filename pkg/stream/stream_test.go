package stream

import (
	"bytes"
	"errors"
	"testing"
)

func TestPadding(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 3},
		{2, 2},
		{3, 1},
		{4, 0},
		{5, 3},
		{8, 0},
		{1021, 3},
	}

	for _, tt := range tests {
		if got := Padding(tt.n); got != tt.want {
			t.Errorf("Padding(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestReader_FixedWidth(t *testing.T) {
	data := []byte{
		0x01,                   // uint8
		0x02, 0x01,             // uint16 LE = 0x0102
		0x01, 0x02,             // uint16 BE = 0x0102
		0x04, 0x03, 0x02, 0x01, // uint32 LE = 0x01020304
		0x01, 0x02, 0x03, 0x04, // uint32 BE = 0x01020304
		0x00, 0x00, 0x80, 0x3f, // float32 LE = 1.0
		0x3f, 0x80, 0x00, 0x00, // float32 BE = 1.0
	}
	r := NewReader(data)

	if v, err := r.Uint8(); err != nil || v != 0x01 {
		t.Errorf("Uint8() = %d, %v", v, err)
	}
	if v, err := r.Uint16(); err != nil || v != 0x0102 {
		t.Errorf("Uint16() = %#x, %v", v, err)
	}
	if v, err := r.Uint16BE(); err != nil || v != 0x0102 {
		t.Errorf("Uint16BE() = %#x, %v", v, err)
	}
	if v, err := r.Uint32(); err != nil || v != 0x01020304 {
		t.Errorf("Uint32() = %#x, %v", v, err)
	}
	if v, err := r.Uint32BE(); err != nil || v != 0x01020304 {
		t.Errorf("Uint32BE() = %#x, %v", v, err)
	}
	if v, err := r.Float32(); err != nil || v != 1.0 {
		t.Errorf("Float32() = %f, %v", v, err)
	}
	if v, err := r.Float32BE(); err != nil || v != 1.0 {
		t.Errorf("Float32BE() = %f, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestReader_Truncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.Uint32(); !errors.Is(err, ErrTruncated) {
		t.Errorf("Uint32 on 2 bytes: err = %v, want ErrTruncated", err)
	}
	// A failed read must not consume input.
	if r.Remaining() != 2 {
		t.Errorf("Remaining() = %d after failed read, want 2", r.Remaining())
	}
}

func TestReader_CString(t *testing.T) {
	r := NewReader([]byte{'a', 'b', 'c', 0, 'd', 0})

	s, err := r.CString()
	if err != nil || s != "abc" {
		t.Errorf("CString() = %q, %v", s, err)
	}
	s, err = r.CString()
	if err != nil || s != "d" {
		t.Errorf("CString() = %q, %v", s, err)
	}
	if _, err := r.CString(); !errors.Is(err, ErrTruncated) {
		t.Errorf("CString with no terminator: err = %v, want ErrTruncated", err)
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUint16(0xbeef)
	w.WriteUint32BE(0x01020304)
	w.WriteFloat32(3.5)
	w.WriteCString("map")

	r := NewReader(w.Bytes())
	if v, _ := r.Uint16(); v != 0xbeef {
		t.Errorf("uint16 = %#x", v)
	}
	if v, _ := r.Uint32BE(); v != 0x01020304 {
		t.Errorf("uint32be = %#x", v)
	}
	if v, _ := r.Float32(); v != 3.5 {
		t.Errorf("float32 = %f", v)
	}
	if s, _ := r.CString(); s != "map" {
		t.Errorf("cstring = %q", s)
	}
}

func TestWriter_WritePadding(t *testing.T) {
	for n := 0; n < 9; n++ {
		w := NewWriter()
		w.WriteBytes(bytes.Repeat([]byte{0xff}, n))
		w.WritePadding(n)

		if w.Len()%4 != 0 {
			t.Errorf("padded length %d for n=%d not 4-aligned", w.Len(), n)
		}
		for _, b := range w.Bytes()[n:] {
			if b != 0 {
				t.Errorf("padding byte for n=%d is %#x, want 0", n, b)
			}
		}
	}
}
