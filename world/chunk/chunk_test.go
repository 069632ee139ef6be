package chunk

import (
	"testing"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

// TestBitPackRoundTripAllWidths asserts that for every valid bits-per-entry,
// a 4096-entry index array packs and unpacks exactly.
func TestBitPackRoundTripAllWidths(t *testing.T) {
	for _, bits := range []byte{1, 2, 3, 4, 5, 6, 8, 16} {
		max := uint32(1)<<bits - 1
		indices := make([]uint32, BlockVolume)
		for i := range indices {
			indices[i] = uint32(i) % (max + 1)
		}
		words, err := packIndices(indices, bits)
		if err != nil {
			t.Fatalf("bits=%d: packIndices: %v", bits, err)
		}
		got, err := unpackIndices(words, bits, BlockVolume)
		if err != nil {
			t.Fatalf("bits=%d: unpackIndices: %v", bits, err)
		}
		for i := range indices {
			if got[i] != indices[i] {
				t.Fatalf("bits=%d: index %d: got %d, want %d", bits, i, got[i], indices[i])
			}
		}
	}
}

// TestBitPackAlternatingPatternAtBitsFour asserts that a 4096-entry array
// alternating 0 and 15 at bits=4 packs into exactly 512 words, with word 0
// equal to 0xF0F0F0F0.
func TestBitPackAlternatingPatternAtBitsFour(t *testing.T) {
	indices := make([]uint32, BlockVolume)
	for i := range indices {
		if i%2 == 1 {
			indices[i] = 15
		}
	}
	words, err := packIndices(indices, 4)
	if err != nil {
		t.Fatalf("packIndices: %v", err)
	}
	if len(words) != 512 {
		t.Fatalf("word count: got %d, want 512", len(words))
	}
	if words[0] != 0xF0F0F0F0 {
		t.Fatalf("word 0: got 0x%08X, want 0xF0F0F0F0", words[0])
	}
}

// TestSignedVarintPaletteEntryNoZigZag asserts that -1 encodes as
// FF FF FF FF 0F (the bit-cast unsigned form), not 01 (ZigZag).
func TestSignedVarintPaletteEntryNoZigZag(t *testing.T) {
	w := binary.NewWriter()
	w.WriteVarintSigned32(-1)
	want := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}
	got := w.Bytes()
	if len(got) != len(want) {
		t.Fatalf("encoded length: got %d, want %d (%x)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got 0x%02x, want 0x%02x", i, got[i], want[i])
		}
	}
	r := binary.NewReader(got)
	v, err := r.ReadVarintSigned32()
	if err != nil {
		t.Fatalf("ReadVarintSigned32: %v", err)
	}
	if v != -1 {
		t.Fatalf("round trip: got %d, want -1", v)
	}
}

// TestRuntimeIDDeterministic asserts that the same (name, states, version)
// triple always yields the same hash.
func TestRuntimeIDDeterministic(t *testing.T) {
	version := GameVersion(1, 21, 50, 1)
	a := RuntimeID("minecraft:stone", map[string]any{}, version)
	b := RuntimeID("minecraft:stone", map[string]any{}, version)
	if a != b {
		t.Fatalf("hash not deterministic: got %d and %d", a, b)
	}
}

// TestRuntimeIDSensitiveToVersion ensures two distinct game versions for
// the same block state produce distinct runtime ids.
func TestRuntimeIDSensitiveToVersion(t *testing.T) {
	v1 := GameVersion(1, 21, 50, 1)
	v2 := GameVersion(1, 26, 0, 1)
	h1 := RuntimeID("minecraft:stone", map[string]any{}, v1)
	h2 := RuntimeID("minecraft:stone", map[string]any{}, v2)
	if h1 == h2 {
		t.Fatalf("expected distinct hashes for distinct versions, both got %d", h1)
	}
}

// TestRuntimeIDRejectsRawLittleEndianVersionBug asserts that a hand-built
// encoding that writes `version` as a raw little-endian 32-bit integer
// instead of a ZigZag varint (inside the network-NBT TAG_Int) must hash
// differently from the correct encoding, proving the two are not silently
// compatible.
func TestRuntimeIDRejectsRawLittleEndianVersionBug(t *testing.T) {
	version := GameVersion(1, 21, 50, 1)
	correct := RuntimeID("minecraft:stone", map[string]any{}, version)

	// Hand-build the buggy compound: identical name/states/version tag
	// framing, but `version`'s payload is a fixed-width LE32 rather than
	// a ZigZag varint.
	w := binary.NewWriter()
	w.WriteByte(0x0a) // TAG_Compound
	w.WriteVarint32(0)

	w.WriteByte(0x08) // TAG_String "name"
	w.WriteVarint32(uint32(len("name")))
	w.WriteBytes([]byte("name"))
	w.WriteVarint32(uint32(len("minecraft:stone")))
	w.WriteBytes([]byte("minecraft:stone"))

	w.WriteByte(0x0a) // TAG_Compound "states" (empty)
	w.WriteVarint32(uint32(len("states")))
	w.WriteBytes([]byte("states"))
	w.WriteByte(0x00) // TAG_End

	w.WriteByte(0x03) // TAG_Int "version"
	w.WriteVarint32(uint32(len("version")))
	w.WriteBytes([]byte("version"))
	w.WriteInt32LE(version) // the bug: fixed LE32 instead of ZigZag varint

	w.WriteByte(0x00) // TAG_End (root)

	buggy := fnv1a32(w.Bytes())
	if buggy == correct {
		t.Fatal("raw little-endian version encoding must not hash the same as the correct ZigZag encoding")
	}
}

// TestColumnEncodeDecodeRoundTrip exercises a full column with a
// non-trivial palette through Encode/Decode.
func TestColumnEncodeDecodeRoundTrip(t *testing.T) {
	indices := make([]uint32, BlockVolume)
	for i := range indices {
		indices[i] = uint32(i % 3)
	}
	palette := []int32{
		int32(RuntimeID("minecraft:air", map[string]any{}, GameVersion(1, 21, 50, 1))),
		int32(RuntimeID("minecraft:stone", map[string]any{}, GameVersion(1, 21, 50, 1))),
		int32(RuntimeID("minecraft:dirt", map[string]any{}, GameVersion(1, 21, 50, 1))),
	}

	var col Column
	for i := 0; i < ColumnSectionCount; i++ {
		col.Sections[i] = &Section{Y: int8(i - 4), Layers: []*Layer{NewIntLayer(indices, palette)}}
	}
	biomeIndices := make([]uint32, BiomeVolume)
	for i := 0; i < ColumnSectionCount; i++ {
		col.Biomes[i] = NewIntLayer(biomeIndices, []int32{1})
	}

	encoded, err := col.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(encoded, false)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := 0; i < ColumnSectionCount; i++ {
		got := decoded.Sections[i]
		want := col.Sections[i]
		if got.Y != want.Y {
			t.Fatalf("section %d: y got %d, want %d", i, got.Y, want.Y)
		}
		if len(got.Layers) != 1 || len(got.Layers[0].Palette) != len(palette) {
			t.Fatalf("section %d: layer/palette shape mismatch", i)
		}
		for j, idx := range got.Layers[0].Indices {
			if idx != indices[j] {
				t.Fatalf("section %d: index %d: got %d, want %d", i, j, idx, indices[j])
			}
		}
	}
}

// TestBitsForPaletteSizeChoosesNarrowestValidWidth spot-checks the
// palette-size-to-bits-per-entry selection the encoder relies on.
func TestBitsForPaletteSizeChoosesNarrowestValidWidth(t *testing.T) {
	cases := map[int]byte{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 16: 4, 17: 5, 64: 6, 257: 16}
	for size, want := range cases {
		if got := bitsForPaletteSize(size); got != want {
			t.Fatalf("bitsForPaletteSize(%d): got %d, want %d", size, got, want)
		}
	}
}
