// Package binary implements the endian-aware primitives the wire format is
// built from: fixed-width integers and floats, the three variable-length
// integer encodings, length-prefixed strings, vectors, block positions and
// 128-bit identifiers.
//
// There are three distinct variable-length integer encodings in this wire
// format and they are not interchangeable (see the doc on
// WriteVarintSigned32 for the one historical exception):
//
//   - unsigned varint (LEB128): lengths, unsigned fields.
//   - ZigZag signed varint: signed fields in most packets and in the
//     network NBT variant's Int/Long tags.
//   - "raw" signed varint: the signed value's two's-complement bits
//     reinterpreted as unsigned and written with the unsigned encoding.
//     Used only by chunk-section palette entries (§9 of the spec this
//     package implements).
package binary

import "errors"

// ErrVarintTooLong is returned when a varint exceeds the maximum byte count
// for its width (5 bytes for 32-bit, 10 bytes for 64-bit) without
// terminating — almost always a sign the reader has desynced from the
// stream.
var ErrVarintTooLong = errors.New("binary: varint exceeds maximum length")

// ZigZag32 maps a signed 32-bit integer onto the non-negative integers so it
// can be varint-encoded without sign-extension blowing up the byte count.
func ZigZag32(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

// UnZigZag32 is the inverse of ZigZag32.
func UnZigZag32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// ZigZag64 is ZigZag32's 64-bit counterpart.
func ZigZag64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// UnZigZag64 is the inverse of ZigZag64.
func UnZigZag64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
