// Package protobuf encodes projected records in the protocol buffer wire
// format and renders the matching .proto schema text.
package protobuf

import (
	"encoding/binary"
	"errors"
	"math"
)

// WireType is the low three bits of a field tag.
type WireType int8

const (
	Varint  WireType = 0
	Bytes   WireType = 2
	Fixed32 WireType = 5
)

// ErrTruncated indicates a varint ran past the end of its buffer.
var ErrTruncated = errors.New("truncated varint")

// ErrOverflow indicates a varint longer than ten bytes.
var ErrOverflow = errors.New("varint overflows 64 bits")

// AppendVarint appends v as an unsigned LEB128 varint: seven payload bits
// per byte, low group first, high bit set on every byte but the last.
func AppendVarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// ConsumeVarint decodes a varint from the front of b and returns it with
// the number of bytes read.
func ConsumeVarint(b []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < len(b); i++ {
		if i == 10 {
			return 0, 0, ErrOverflow
		}
		c := b[i]
		v |= uint64(c&0x7f) << (7 * i)
		if c < 0x80 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrTruncated
}

// AppendTag appends the tag (num << 3 | typ).
func AppendTag(b []byte, num int32, typ WireType) []byte {
	return AppendVarint(b, uint64(num)<<3|uint64(typ&7))
}

// AppendBytes appends a length-prefixed payload.
func AppendBytes(b []byte, p []byte) []byte {
	b = AppendVarint(b, uint64(len(p)))
	return append(b, p...)
}

// AppendString appends a length-prefixed UTF-8 string.
func AppendString(b []byte, s string) []byte {
	b = AppendVarint(b, uint64(len(s)))
	return append(b, s...)
}

// AppendFixed32 appends f as a little-endian IEEE-754 float32.
func AppendFixed32(b []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
}
