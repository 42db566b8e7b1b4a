// Package stream provides cursor-based binary readers and writers for the
// in-memory buffers every asset codec in this module decodes from.
package stream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncated is returned when fewer bytes remain than a read requested.
var ErrTruncated = errors.New("truncated input")

// Padding returns the number of zero bytes needed to align n to a 4-byte
// boundary.
func Padding(n int) int {
	return (4 - n%4) % 4
}

// Reader is a sequential cursor over an in-memory byte buffer.
// All multi-byte reads are little-endian unless the method says otherwise.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Bytes consumes and returns the next n bytes. The returned slice aliases
// the underlying buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip discards the next n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.Bytes(n)
	return err
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

func (r *Reader) Uint16BE() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Uint32BE() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) Int32BE() (int32, error) {
	v, err := r.Uint32BE()
	return int32(v), err
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

func (r *Reader) Float32BE() (float32, error) {
	v, err := r.Uint32BE()
	return math.Float32frombits(v), err
}

func (r *Reader) Float64BE() (float64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// CString reads bytes up to (and consuming) the next zero byte and decodes
// them as UTF-8.
func (r *Reader) CString() (string, error) {
	end := bytes.IndexByte(r.data[r.pos:], 0)
	if end < 0 {
		return "", ErrTruncated
	}
	s := string(r.data[r.pos : r.pos+end])
	r.pos += end + 1
	return s, nil
}

// Writer accumulates bytes in memory. Writes are little-endian unless the
// method says otherwise.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns the accumulated bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) WriteInt8(v int8) {
	w.buf.WriteByte(byte(v))
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteUint16BE(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

func (w *Writer) WriteUint32BE(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteInt32BE(v int32) {
	w.WriteUint32BE(uint32(v))
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteFloat32BE(v float32) {
	w.WriteUint32BE(math.Float32bits(v))
}

func (w *Writer) WriteFloat64BE(v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
}

// WriteCString writes s followed by a zero byte.
func (w *Writer) WriteCString(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

// WritePadding writes zero bytes so that the total length n aligns to a
// 4-byte boundary.
func (w *Writer) WritePadding(n int) {
	for i := 0; i < Padding(n); i++ {
		w.buf.WriteByte(0)
	}
}
