// Package nbt implements the tagged, recursively-nested value tree used for
// block states, start-game properties and block-entity data. Two on-wire
// variants share the same tag alphabet:
//
//   - LittleEndian: the disk/persisted form. Fixed-width integer fields,
//     16-bit little-endian string lengths, 32-bit little-endian array
//     lengths.
//   - NetworkLittleEndian: the form carried in game packets. ZigZag
//     variable-length Int/Long fields, variable-length string and array
//     lengths.
//
// The variant is always an explicit parameter to Encode/Decode, never
// inferred from the bytes — grounded on the recovered gophertunnel usage
// `nbt.NewDecoderWithEncoding(buf, nbt.NetworkLittleEndian)` (see DESIGN.md).
package nbt

import (
	"errors"
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

// TagType identifies the kind of a tag in the wire format.
type TagType byte

const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

// ErrMalformed is returned for any structurally invalid NBT: an unknown tag
// id, an unterminated compound, a list whose declared element type doesn't
// match its contents, or a length field larger than the remaining input.
var ErrMalformed = errors.New("nbt: malformed data")

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformed, reason)
}

// Compound is an ordered map of name to tag value. Order is preserved as
// parsed: decoding then re-encoding a well-formed tree yields identical
// bytes only if key order survives the round trip.
type Compound struct {
	keys   []string
	values map[string]any
}

// NewCompound returns an empty Compound ready for Put calls.
func NewCompound() *Compound {
	return &Compound{values: make(map[string]any)}
}

// Put inserts or overwrites a key. Overwriting an existing key does not
// change its position in iteration order.
func (c *Compound) Put(key string, value any) *Compound {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
	return c
}

// Get returns the value stored for key, if any.
func (c *Compound) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the compound's keys in insertion/parse order.
func (c *Compound) Keys() []string { return c.keys }

// Len returns the number of entries in the compound.
func (c *Compound) Len() int { return len(c.keys) }

// List is a homogeneous sequence of tags, all sharing ElemType.
type List struct {
	ElemType TagType
	Values   []any
}

// Encoding controls how the variant-dependent fields (string lengths,
// Int/Long fields) are written and read. LittleEndian and
// NetworkLittleEndian are the two encodings the spec requires; both share
// every other aspect of the tag alphabet.
type Encoding interface {
	name() string
	writeString(w *binary.Writer, s string)
	readString(r *binary.Reader) (string, error)
	writeInt32(w *binary.Writer, v int32)
	readInt32(r *binary.Reader) (int32, error)
	writeInt64(w *binary.Writer, v int64)
	readInt64(r *binary.Reader) (int64, error)
	writeArrayLen(w *binary.Writer, n int)
	readArrayLen(r *binary.Reader) (int, error)
}

// LittleEndian is the disk/persisted NBT encoding: fixed-width 32/64-bit
// integers, 16-bit length-prefixed strings, 32-bit length-prefixed arrays.
var LittleEndian Encoding = littleEndianEncoding{}

// NetworkLittleEndian is the network NBT encoding used inside game packets:
// ZigZag variable-length Int/Long fields, variable-length string and array
// lengths.
var NetworkLittleEndian Encoding = networkEncoding{}

type littleEndianEncoding struct{}

func (littleEndianEncoding) name() string { return "little-endian" }

func (littleEndianEncoding) writeString(w *binary.Writer, s string) {
	w.WriteUint16LE(uint16(len(s)))
	w.WriteBytes([]byte(s))
}

func (littleEndianEncoding) readString(r *binary.Reader) (string, error) {
	n, err := r.ReadUint16LE()
	if err != nil {
		return "", err
	}
	if int(n) > r.Len() {
		return "", malformed("string length exceeds remaining input")
	}
	b, err := r.ReadBytes(int(n))
	return string(b), err
}

func (littleEndianEncoding) writeInt32(w *binary.Writer, v int32) { w.WriteInt32LE(v) }
func (littleEndianEncoding) readInt32(r *binary.Reader) (int32, error) { return r.ReadInt32LE() }
func (littleEndianEncoding) writeInt64(w *binary.Writer, v int64) { w.WriteInt64LE(v) }
func (littleEndianEncoding) readInt64(r *binary.Reader) (int64, error) { return r.ReadInt64LE() }

func (littleEndianEncoding) writeArrayLen(w *binary.Writer, n int) { w.WriteInt32LE(int32(n)) }
func (littleEndianEncoding) readArrayLen(r *binary.Reader) (int, error) {
	n, err := r.ReadInt32LE()
	if err != nil {
		return 0, err
	}
	if n < 0 || int(n) > r.Len() {
		return 0, malformed("array length exceeds remaining input")
	}
	return int(n), nil
}

type networkEncoding struct{}

func (networkEncoding) name() string { return "network-little-endian" }

func (networkEncoding) writeString(w *binary.Writer, s string) {
	w.WriteVarint32(uint32(len(s)))
	w.WriteBytes([]byte(s))
}

func (networkEncoding) readString(r *binary.Reader) (string, error) {
	n, err := r.ReadVarint32()
	if err != nil {
		return "", err
	}
	if int(n) > r.Len() {
		return "", malformed("string length exceeds remaining input")
	}
	b, err := r.ReadBytes(int(n))
	return string(b), err
}

// The `version` field inside a block-state compound is a TAG_Int encoded
// via this path — i.e. a ZigZag varint, not a fixed-width little-endian
// int32. Reading it as fixed-width produces a completely different 32-bit
// value and a wrong FNV-1a hash downstream — see
// world/chunk.TestRuntimeIDRejectsRawLittleEndianVersionBug.
func (networkEncoding) writeInt32(w *binary.Writer, v int32) { w.WriteVarZigZag32(v) }
func (networkEncoding) readInt32(r *binary.Reader) (int32, error) { return r.ReadVarZigZag32() }
func (networkEncoding) writeInt64(w *binary.Writer, v int64) { w.WriteVarZigZag64(v) }
func (networkEncoding) readInt64(r *binary.Reader) (int64, error) { return r.ReadVarZigZag64() }

func (networkEncoding) writeArrayLen(w *binary.Writer, n int) { w.WriteVarZigZag32(int32(n)) }
func (networkEncoding) readArrayLen(r *binary.Reader) (int, error) {
	n, err := r.ReadVarZigZag32()
	if err != nil {
		return 0, err
	}
	if n < 0 || int(n) > r.Len() {
		return 0, malformed("array length exceeds remaining input")
	}
	return int(n), nil
}
