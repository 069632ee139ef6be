package binary

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrBufferOverflow is returned whenever a read runs past the end of the
// underlying buffer, as a sentinel-wrapped type so callers can
// fmt.Errorf-wrap it with field context.
type ErrBufferOverflow struct {
	Want, Have int
}

func (e *ErrBufferOverflow) Error() string {
	return fmt.Sprintf("binary: buffer overflow: want %d bytes, have %d", e.Want, e.Have)
}

// Reader decodes a byte stream sequentially. All methods return an error on
// short input instead of panicking, since malformed input from the network
// must become a ProtocolViolation, never a crash.
type Reader struct {
	buf    []byte
	offset int
}

// NewReader wraps data for sequential decoding. data is not copied; callers
// must not mutate it while the Reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.buf) - r.offset }

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.offset }

// Rest returns the unread remainder without advancing the reader.
func (r *Reader) Rest() []byte { return r.buf[r.offset:] }

func (r *Reader) take(n int) ([]byte, error) {
	if r.offset+n > len(r.buf) {
		return nil, &ErrBufferOverflow{Want: n, Have: len(r.buf) - r.offset}
	}
	b := r.buf[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func (r *Reader) ReadUint16LE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (r *Reader) ReadUint32LE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func (r *Reader) ReadUint64LE() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadInt16LE() (int16, error) {
	v, err := r.ReadUint16LE()
	return int16(v), err
}

func (r *Reader) ReadInt32LE() (int32, error) {
	v, err := r.ReadUint32LE()
	return int32(v), err
}

func (r *Reader) ReadInt64LE() (int64, error) {
	v, err := r.ReadUint64LE()
	return int64(v), err
}

func (r *Reader) ReadFloat32LE() (float32, error) {
	v, err := r.ReadUint32LE()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64LE() (float64, error) {
	v, err := r.ReadUint64LE()
	return math.Float64frombits(v), err
}

func (r *Reader) ReadUint16BE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (r *Reader) ReadUint32BE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// ReadUint24LE reads RakNet's 24-bit little-endian sequence-number
// encoding.
func (r *Reader) ReadUint24LE() (uint32, error) {
	b, err := r.take(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

func (r *Reader) ReadUint24BE() (uint32, error) {
	b, err := r.take(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// ReadVarint32 decodes an unsigned LEB128 varint, up to 5 bytes.
func (r *Reader) ReadVarint32() (uint32, error) {
	var v uint32
	for i := 0; i < 5; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint32(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, ErrVarintTooLong
}

// ReadVarint64 decodes an unsigned LEB128 varint, up to 10 bytes.
func (r *Reader) ReadVarint64() (uint64, error) {
	var v uint64
	for i := 0; i < 10; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, ErrVarintTooLong
}

// ReadVarZigZag32 decodes a ZigZag-then-varint-encoded signed 32-bit value.
func (r *Reader) ReadVarZigZag32() (int32, error) {
	v, err := r.ReadVarint32()
	if err != nil {
		return 0, err
	}
	return UnZigZag32(v), nil
}

// ReadVarZigZag64 decodes a ZigZag-then-varint-encoded signed 64-bit value.
func (r *Reader) ReadVarZigZag64() (int64, error) {
	v, err := r.ReadVarint64()
	if err != nil {
		return 0, err
	}
	return UnZigZag64(v), nil
}

// ReadVarintSigned32 reads an unsigned varint and bit-casts it to signed
// WITHOUT un-ZigZagging — the encoding paletted chunk entries use. Reading
// a palette entry with ReadVarZigZag32 instead produces the wrong value
// for every negative-looking runtime id.
func (r *Reader) ReadVarintSigned32() (int32, error) {
	v, err := r.ReadVarint32()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadVarint32()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) ReadByteSlice() ([]byte, error) {
	n, err := r.ReadVarint32()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

func (r *Reader) ReadVec3() (Vec3, error) {
	x, err := r.ReadFloat32LE()
	if err != nil {
		return Vec3{}, err
	}
	y, err := r.ReadFloat32LE()
	if err != nil {
		return Vec3{}, err
	}
	z, err := r.ReadFloat32LE()
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{X: x, Y: y, Z: z}, nil
}

func (r *Reader) ReadVec2() (Vec2, error) {
	x, err := r.ReadFloat32LE()
	if err != nil {
		return Vec2{}, err
	}
	y, err := r.ReadFloat32LE()
	if err != nil {
		return Vec2{}, err
	}
	return Vec2{X: x, Y: y}, nil
}

func (r *Reader) ReadBlockPos() (BlockPos, error) {
	x, err := r.ReadVarZigZag32()
	if err != nil {
		return BlockPos{}, err
	}
	y, err := r.ReadVarint32()
	if err != nil {
		return BlockPos{}, err
	}
	z, err := r.ReadVarZigZag32()
	if err != nil {
		return BlockPos{}, err
	}
	return BlockPos{X: x, Y: int32(y), Z: z}, nil
}

func (r *Reader) ReadUUID128() (UUID128, error) {
	lo, err := r.ReadUint64LE()
	if err != nil {
		return UUID128{}, err
	}
	hi, err := r.ReadUint64LE()
	if err != nil {
		return UUID128{}, err
	}
	return UUID128{Lo: lo, Hi: hi}, nil
}
