package nbt

import "testing"

func buildSampleTree() *Compound {
	c := NewCompound()
	c.Put("name", "minecraft:stone")
	c.Put("count", int8(1))
	c.Put("damage", int16(0))
	c.Put("version", int32(18100737))
	c.Put("seed", int64(-123456789))
	c.Put("scale", float32(1.5))
	c.Put("weight", float64(2.25))
	c.Put("raw", []byte{1, 2, 3})
	states := NewCompound()
	states.Put("facing_direction", int32(2))
	states.Put("open_bit", int8(0))
	c.Put("states", states)
	c.Put("ints", []int32{1, -2, 3})
	c.Put("longs", []int64{1, -2, 3})
	c.Put("list", &List{ElemType: TagString, Values: []any{"a", "b", "c"}})
	return c
}

func TestRoundTripLittleEndian(t *testing.T) {
	tree := buildSampleTree()
	encoded := Encode(LittleEndian, tree)
	decoded, err := Decode(LittleEndian, encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	reencoded := Encode(LittleEndian, decoded)
	if string(reencoded) != string(encoded) {
		t.Fatalf("round-trip mismatch:\n got %x\nwant %x", reencoded, encoded)
	}
}

func TestRoundTripNetwork(t *testing.T) {
	tree := buildSampleTree()
	encoded := Encode(NetworkLittleEndian, tree)
	decoded, err := Decode(NetworkLittleEndian, encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	reencoded := Encode(NetworkLittleEndian, decoded)
	if string(reencoded) != string(encoded) {
		t.Fatalf("round-trip mismatch:\n got %x\nwant %x", reencoded, encoded)
	}
}

func TestKeyOrderPreserved(t *testing.T) {
	tree := NewCompound()
	tree.Put("z", int8(1))
	tree.Put("a", int8(2))
	tree.Put("m", int8(3))

	encoded := Encode(NetworkLittleEndian, tree)
	decoded, err := Decode(NetworkLittleEndian, encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []string{"z", "a", "m"}
	got := decoded.Keys()
	if len(got) != len(want) {
		t.Fatalf("key count: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key order at %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestUnterminatedCompoundIsMalformed(t *testing.T) {
	w := []byte{byte(TagCompound), 0, 0} // root id + empty name, then nothing: no TAG_End
	if _, err := Decode(LittleEndian, w); err == nil {
		t.Fatal("expected malformed error for unterminated compound")
	}
}

func TestUnknownTagIsMalformed(t *testing.T) {
	// root compound containing one entry whose tag id is invalid (200).
	w := []byte{byte(TagCompound), 0, 0, 200, 0, 0, byte(TagEnd)}
	if _, err := Decode(LittleEndian, w); err == nil {
		t.Fatal("expected malformed error for unknown tag id")
	}
}

func TestNetworkIntIsZigZagVarint(t *testing.T) {
	c := NewCompound()
	c.Put("version", int32(18100737))
	encoded := Encode(NetworkLittleEndian, c)

	diskEquivalent := NewCompound()
	diskEquivalent.Put("version", int32(18100737))
	diskEncoded := Encode(LittleEndian, diskEquivalent)

	if len(encoded) == len(diskEncoded) {
		t.Fatalf("expected network TAG_Int encoding to differ in length from fixed-width disk encoding")
	}
}
