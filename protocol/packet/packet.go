// Package packet implements the logical-packet codec pipeline: per-variant
// marshal/unmarshal, batch assembly, compression, authenticated encryption,
// and the game-packet envelope byte. It also defines the tagged-union
// packet variants themselves, one Marshal/Unmarshal method pair per type.
package packet

import (
	"github.com/bedrockd/bedrockd/protocol/binary"
)

// EnvelopeByte is prepended to every outbound batch once it is fully
// compressed and (if active) encrypted — the game layer's signature on the
// reliable-ordered channel-0 payload.
const EnvelopeByte byte = 0xfe

// Packet is the interface every logical packet variant implements: a
// stable identifier and symmetric wire (de)serialization.
type Packet interface {
	ID() uint32
	Marshal(w *binary.Writer)
	Unmarshal(r *binary.Reader) error
}

// Factory constructs a zero-valued instance of one packet variant, used by
// the registry to allocate the right concrete type before Unmarshal.
type Factory func() Packet

var registry = map[uint32]Factory{}

// Register adds a packet variant's factory to the registry, keyed by its
// wire id. Called from each packet type's init.
func Register(id uint32, factory Factory) {
	registry[id] = factory
}

// New allocates a zero-valued Packet for id, or reports ok=false for an
// unrecognized id, which is logged and dropped rather than treated as a
// session-fatal error, for forward compatibility with newer clients.
func New(id uint32) (Packet, bool) {
	factory, ok := registry[id]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// EncodeBatchEntry serializes one packet as (varint id, payload) and
// returns the bytes, varint-length-prefixed, ready to append to a batch.
func EncodeBatchEntry(p Packet) []byte {
	inner := binary.NewWriter()
	inner.WriteVarint32(p.ID())
	p.Marshal(inner)

	outer := binary.NewWriter()
	outer.WriteByteSlice(inner.Bytes())
	return outer.Bytes()
}

// EncodeBatch concatenates the varint-length-prefixed encoding of every
// packet in order into one batch buffer.
func EncodeBatch(packets []Packet) []byte {
	w := binary.NewWriter()
	for _, p := range packets {
		w.WriteBytes(EncodeBatchEntry(p))
	}
	return w.Bytes()
}

// DecodedEntry is one packet pulled out of a batch: either a successfully
// unmarshaled Packet, or an unrecognized id accompanied by its raw payload
// so the caller can log and drop it.
type DecodedEntry struct {
	Packet  Packet
	RawID   uint32
	RawData []byte
}

// DecodeBatch splits data into its constituent packets. An unrecognized id
// is forward-compatible: it is returned as a DecodedEntry with Packet==nil
// rather than failing the whole batch.
func DecodeBatch(data []byte) ([]DecodedEntry, error) {
	r := binary.NewReader(data)
	var out []DecodedEntry
	for r.Len() > 0 {
		entry, err := r.ReadByteSlice()
		if err != nil {
			return nil, err
		}
		inner := binary.NewReader(entry)
		id, err := inner.ReadVarint32()
		if err != nil {
			return nil, err
		}
		p, ok := New(id)
		if !ok {
			out = append(out, DecodedEntry{RawID: id, RawData: inner.Rest()})
			continue
		}
		if err := p.Unmarshal(inner); err != nil {
			return nil, err
		}
		out = append(out, DecodedEntry{Packet: p, RawID: id})
	}
	return out, nil
}
