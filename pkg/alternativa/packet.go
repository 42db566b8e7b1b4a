// Package alternativa implements the Alternativa Protocol wire layer: framed,
// optionally DEFLATE-compressed packets carrying bit-packed optional-field
// masks and variable-length arrays.
package alternativa

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/stream"
)

// Protocol errors.
var (
	ErrDecompression = errors.New("malformed compressed packet")
	ErrMaskExhausted = errors.New("optional mask exhausted")
)

const (
	flagLongForm   = 0x80
	flagCompressed = 0x40
)

// UnwrapPacket reads one framed packet from r and returns a fresh cursor
// over its payload, inflating it first when the compression flag is set.
//
// The flag byte's top bit selects the length form: short packets store the
// length in the 6 low flag bits (high) plus one following byte (low); long
// packets store it in the 6 low flag bits plus three following big-endian
// bytes.
func UnwrapPacket(r *stream.Reader) (*stream.Reader, error) {
	flags, err := r.Uint8()
	if err != nil {
		return nil, err
	}

	var length int
	if flags&flagLongForm == 0 {
		low, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		length = int(flags&0x3f)<<8 | int(low)
	} else {
		low, err := r.Bytes(3)
		if err != nil {
			return nil, err
		}
		length = int(flags&0x3f)<<24 | int(low[0])<<16 | int(low[1])<<8 | int(low[2])
	}

	payload, err := r.Bytes(length)
	if err != nil {
		return nil, err
	}

	if flags&flagCompressed != 0 {
		payload, err = inflate(payload)
		if err != nil {
			return nil, err
		}
	}
	return stream.NewReader(payload), nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return out, nil
}
