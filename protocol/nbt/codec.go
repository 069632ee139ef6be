package nbt

import (
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

// Encode serializes a root Compound under the given Encoding. The root is
// always written as an (unnamed in practice, but spec-compliant) named
// TAG_Compound: tag id, empty root name, then the compound body.
func Encode(e Encoding, root *Compound) []byte {
	w := binary.NewWriter()
	w.WriteByte(byte(TagCompound))
	e.writeString(w, "")
	writeCompound(w, e, root)
	return w.Bytes()
}

// Decode parses a root TAG_Compound encoded by Encode.
func Decode(e Encoding, data []byte) (*Compound, error) {
	return DecodeFrom(binary.NewReader(data), e)
}

// DecodeFrom parses a root TAG_Compound directly off an existing Reader,
// advancing it exactly past the compound's bytes. Used by packet types
// that embed NBT in the middle of a larger structure (e.g. StartGame's
// property-data field) where a fresh Reader over Rest() would lose track
// of how much was consumed.
func DecodeFrom(r *binary.Reader, e Encoding) (*Compound, error) {
	tagID, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if TagType(tagID) != TagCompound {
		return nil, malformed(fmt.Sprintf("root tag is %d, not TAG_Compound", tagID))
	}
	if _, err := e.readString(r); err != nil {
		return nil, err
	}
	return readCompound(r, e)
}

func writeTagValue(w *binary.Writer, e Encoding, t TagType, v any) {
	switch t {
	case TagByte:
		w.WriteByte(byte(v.(int8)))
	case TagShort:
		w.WriteInt16LE(v.(int16))
	case TagInt:
		e.writeInt32(w, v.(int32))
	case TagLong:
		e.writeInt64(w, v.(int64))
	case TagFloat:
		w.WriteFloat32LE(v.(float32))
	case TagDouble:
		w.WriteFloat64LE(v.(float64))
	case TagByteArray:
		b := v.([]byte)
		e.writeArrayLen(w, len(b))
		w.WriteBytes(b)
	case TagString:
		e.writeString(w, v.(string))
	case TagList:
		writeList(w, e, v.(*List))
	case TagCompound:
		writeCompound(w, e, v.(*Compound))
	case TagIntArray:
		a := v.([]int32)
		e.writeArrayLen(w, len(a))
		for _, x := range a {
			e.writeInt32(w, x)
		}
	case TagLongArray:
		a := v.([]int64)
		e.writeArrayLen(w, len(a))
		for _, x := range a {
			e.writeInt64(w, x)
		}
	default:
		panic(fmt.Sprintf("nbt: unsupported tag type %d", t))
	}
}

func writeCompound(w *binary.Writer, e Encoding, c *Compound) {
	for _, key := range c.keys {
		v := c.values[key]
		t := tagTypeOf(v)
		w.WriteByte(byte(t))
		e.writeString(w, key)
		writeTagValue(w, e, t, v)
	}
	w.WriteByte(byte(TagEnd))
}

func writeList(w *binary.Writer, e Encoding, l *List) {
	w.WriteByte(byte(l.ElemType))
	e.writeArrayLen(w, len(l.Values))
	for _, v := range l.Values {
		writeTagValue(w, e, l.ElemType, v)
	}
}

func tagTypeOf(v any) TagType {
	switch v.(type) {
	case int8:
		return TagByte
	case int16:
		return TagShort
	case int32:
		return TagInt
	case int64:
		return TagLong
	case float32:
		return TagFloat
	case float64:
		return TagDouble
	case []byte:
		return TagByteArray
	case string:
		return TagString
	case *List:
		return TagList
	case *Compound:
		return TagCompound
	case []int32:
		return TagIntArray
	case []int64:
		return TagLongArray
	default:
		panic(fmt.Sprintf("nbt: value %#v has no corresponding tag type", v))
	}
}

func readTagValue(r *binary.Reader, e Encoding, t TagType) (any, error) {
	switch t {
	case TagByte:
		b, err := r.ReadByte()
		return int8(b), err
	case TagShort:
		return r.ReadInt16LE()
	case TagInt:
		return e.readInt32(r)
	case TagLong:
		return e.readInt64(r)
	case TagFloat:
		return r.ReadFloat32LE()
	case TagDouble:
		return r.ReadFloat64LE()
	case TagByteArray:
		n, err := e.readArrayLen(r)
		if err != nil {
			return nil, err
		}
		return r.ReadBytes(n)
	case TagString:
		return e.readString(r)
	case TagList:
		return readList(r, e)
	case TagCompound:
		return readCompound(r, e)
	case TagIntArray:
		n, err := e.readArrayLen(r)
		if err != nil {
			return nil, err
		}
		out := make([]int32, n)
		for i := range out {
			v, err := e.readInt32(r)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case TagLongArray:
		n, err := e.readArrayLen(r)
		if err != nil {
			return nil, err
		}
		out := make([]int64, n)
		for i := range out {
			v, err := e.readInt64(r)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, malformed(fmt.Sprintf("unknown tag id %d", t))
	}
}

func readCompound(r *binary.Reader, e Encoding) (*Compound, error) {
	c := NewCompound()
	for {
		tagID, err := r.ReadByte()
		if err != nil {
			return nil, malformed("unterminated compound")
		}
		t := TagType(tagID)
		if t == TagEnd {
			return c, nil
		}
		if t > TagLongArray {
			return nil, malformed(fmt.Sprintf("unknown tag id %d", tagID))
		}
		name, err := e.readString(r)
		if err != nil {
			return nil, err
		}
		v, err := readTagValue(r, e, t)
		if err != nil {
			return nil, err
		}
		c.Put(name, v)
	}
}

func readList(r *binary.Reader, e Encoding) (*List, error) {
	elemTypeByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	elemType := TagType(elemTypeByte)
	if elemType > TagLongArray {
		return nil, malformed(fmt.Sprintf("list has unknown element tag %d", elemTypeByte))
	}
	n, err := e.readArrayLen(r)
	if err != nil {
		return nil, err
	}
	l := &List{ElemType: elemType, Values: make([]any, 0, n)}
	for i := 0; i < n; i++ {
		if elemType == TagEnd {
			// An empty, untyped list (TAG_End element type, zero length) is
			// legal and common for "no items" placeholders.
			break
		}
		v, err := readTagValue(r, e, elemType)
		if err != nil {
			return nil, err
		}
		// A list tag mismatch — an element whose dynamic Go type does not
		// match elemType — cannot occur here since readTagValue always
		// decodes exactly elemType; the check exists for Write-path misuse
		// instead, see tagTypeOf.
		l.Values = append(l.Values, v)
	}
	return l, nil
}
