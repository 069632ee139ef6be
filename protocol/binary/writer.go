package binary

import (
	"encoding/binary"
	"math"
)

// Writer accumulates an encoded byte stream. It never returns an error:
// writes only fail on an out-of-memory allocation, which callers are not
// expected to recover from.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with no pre-allocated capacity.
func NewWriter() *Writer {
	return &Writer{}
}

// NewWriterSize returns a Writer with the given initial capacity.
func NewWriterSize(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the accumulated buffer. The slice is owned by the Writer;
// callers that need to retain it across further writes must copy it.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

func (w *Writer) WriteBytes(p []byte) {
	w.buf = append(w.buf, p...)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// Fixed-width little-endian integers (used by the majority of game-packet
// payload fields).

func (w *Writer) WriteUint16LE(v uint16) {
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

func (w *Writer) WriteUint32LE(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (w *Writer) WriteUint64LE(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteInt16LE(v int16) { w.WriteUint16LE(uint16(v)) }
func (w *Writer) WriteInt32LE(v int32) { w.WriteUint32LE(uint32(v)) }
func (w *Writer) WriteInt64LE(v int64) { w.WriteUint64LE(uint64(v)) }

func (w *Writer) WriteFloat32LE(f float32) { w.WriteUint32LE(math.Float32bits(f)) }
func (w *Writer) WriteFloat64LE(f float64) { w.WriteUint64LE(math.Float64bits(f)) }

// Fixed-width big-endian integers — used by the RakNet framing layer,
// which keeps the historical big-endian byte order (see WriteUint24BE).

func (w *Writer) WriteUint16BE(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

func (w *Writer) WriteUint32BE(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteUint24LE writes RakNet's 24-bit little-endian sequence-number
// encoding (frameset sequence numbers, message/order indices).
func (w *Writer) WriteUint24LE(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16))
}

// WriteUint24BE writes a big-endian 24-bit integer (the frame payload
// length-in-bits field is 16-bit BE, not 24, but some ack-record shapes in
// other RakNet forks use 24-bit BE; kept for completeness of the framing
// vocabulary).
func (w *Writer) WriteUint24BE(v uint32) {
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

// WriteVarint32 writes v using the unsigned LEB128 encoding: 7 data bits per
// byte, continuation in the MSB.
func (w *Writer) WriteVarint32(v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			w.buf = append(w.buf, b|0x80)
			continue
		}
		w.buf = append(w.buf, b)
		return
	}
}

// WriteVarint64 is WriteVarint32's 64-bit counterpart.
func (w *Writer) WriteVarint64(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			w.buf = append(w.buf, b|0x80)
			continue
		}
		w.buf = append(w.buf, b)
		return
	}
}

// WriteVarZigZag32 ZigZag-encodes v and writes it as an unsigned varint.
// This is the encoding used for signed fields in most packets and in the
// network NBT variant's Int tag.
func (w *Writer) WriteVarZigZag32(v int32) { w.WriteVarint32(ZigZag32(v)) }

// WriteVarZigZag64 is WriteVarZigZag32's 64-bit counterpart (network NBT's
// Long tag, and most 64-bit signed packet fields).
func (w *Writer) WriteVarZigZag64(v int64) { w.WriteVarint64(ZigZag64(v)) }

// WriteVarintSigned32 bit-casts v to unsigned and writes it with the
// unsigned varint encoding, WITHOUT ZigZag. This is the historical encoding
// reserved for chunk-section palette entries (palette size and each
// palette id). Using this where WriteVarZigZag32 belongs (or vice versa)
// silently corrupts the chunk wire format for the client.
func (w *Writer) WriteVarintSigned32(v int32) { w.WriteVarint32(uint32(v)) }

// WriteString writes an unsigned-varint byte count followed by the UTF-8
// bytes of s.
func (w *Writer) WriteString(s string) {
	w.WriteVarint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteByteSlice writes an unsigned-varint byte count followed by p.
func (w *Writer) WriteByteSlice(p []byte) {
	w.WriteVarint32(uint32(len(p)))
	w.buf = append(w.buf, p...)
}

// Vec3 is a 3D float vector (player position, rotation, etc).
type Vec3 struct{ X, Y, Z float32 }

func (w *Writer) WriteVec3(v Vec3) {
	w.WriteFloat32LE(v.X)
	w.WriteFloat32LE(v.Y)
	w.WriteFloat32LE(v.Z)
}

// Vec2 is a 2D float vector (pitch/yaw rotation pairs).
type Vec2 struct{ X, Y float32 }

func (w *Writer) WriteVec2(v Vec2) {
	w.WriteFloat32LE(v.X)
	w.WriteFloat32LE(v.Y)
}

// BlockPos is a block-grid coordinate: signed X/Z, unsigned Y, all
// varint-encoded (X/Z ZigZag, Y plain unsigned — Y can never be negative
// once translated into the 0..383 section-relative range the chunk format
// uses).
type BlockPos struct{ X, Y, Z int32 }

func (w *Writer) WriteBlockPos(p BlockPos) {
	w.WriteVarZigZag32(p.X)
	w.WriteVarint32(uint32(p.Y))
	w.WriteVarZigZag32(p.Z)
}

// UUID128 is a 128-bit identifier stored as two little-endian 64-bit
// halves — NOT the network-standard big-endian order RFC 4122 UUIDs use on
// the wire elsewhere.
type UUID128 struct{ Lo, Hi uint64 }

func (w *Writer) WriteUUID128(u UUID128) {
	w.WriteUint64LE(u.Lo)
	w.WriteUint64LE(u.Hi)
}
