package alternativa

import (
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/stream"
)

// ReadArrayLength decodes one variable-length count. Short form keeps the
// length in the 7 low flag bits; the two long forms keep the high part in
// the 6 low flag bits and the low part in one byte or two big-endian bytes.
func ReadArrayLength(r *stream.Reader) (int, error) {
	flags, err := r.Uint8()
	if err != nil {
		return 0, err
	}

	if flags&0x80 == 0 {
		return int(flags & 0x7f), nil
	}
	if flags&0x40 == 0 {
		low, err := r.Uint8()
		if err != nil {
			return 0, err
		}
		return int(flags&0x3f)<<8 | int(low), nil
	}
	low, err := r.Uint16BE()
	if err != nil {
		return 0, err
	}
	return int(flags&0x3f)<<16 | int(low), nil
}

// maxArrayLength is the largest count the three length forms can express.
const maxArrayLength = 0x3fffff

// WriteArrayLength encodes n in the shortest length form.
func WriteArrayLength(w *stream.Writer, n int) {
	switch {
	case n <= 0x7f:
		w.WriteUint8(uint8(n))
	case n <= 0x3fff:
		w.WriteUint8(0x80 | uint8(n>>8))
		w.WriteUint8(uint8(n))
	default:
		w.WriteUint8(0xc0 | uint8(n>>16))
		w.WriteUint16BE(uint16(n))
	}
}

// ReadString reads a length-prefixed UTF-8 string.
func ReadString(r *stream.Reader) (string, error) {
	n, err := ReadArrayLength(r)
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteString writes s with a length prefix in the shortest form.
func WriteString(w *stream.Writer, s string) {
	WriteArrayLength(w, len(s))
	w.WriteBytes([]byte(s))
}

// ReadInt16Array reads a length-prefixed array of little-endian int16.
func ReadInt16Array(r *stream.Reader) ([]int16, error) {
	n, err := ReadArrayLength(r)
	if err != nil {
		return nil, err
	}
	out := make([]int16, n)
	for i := range out {
		if out[i], err = r.Int16(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadInt32Array reads a length-prefixed array of little-endian int32.
func ReadInt32Array(r *stream.Reader) ([]int32, error) {
	n, err := ReadArrayLength(r)
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		if out[i], err = r.Int32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadInt64Array reads a length-prefixed array of little-endian int64.
func ReadInt64Array(r *stream.Reader) ([]int64, error) {
	n, err := ReadArrayLength(r)
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		if out[i], err = r.Int64(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadFloat32Array reads a length-prefixed array of float32. Float arrays
// are big-endian on the wire, unlike the integer arrays.
func ReadFloat32Array(r *stream.Reader) ([]float32, error) {
	n, err := ReadArrayLength(r)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		if out[i], err = r.Float32BE(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
