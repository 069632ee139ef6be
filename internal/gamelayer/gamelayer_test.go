package gamelayer

import (
	"testing"

	"github.com/bedrockd/bedrockd/world/chunk"
)

func TestRegistryJoinIsDeterministicPerXUID(t *testing.T) {
	r := NewRegistry()
	a := r.Join("2535400000000001", "Steve")
	r.Leave(a.UUID)
	b := r.Join("2535400000000001", "Steve")
	if a.UUID != b.UUID {
		t.Fatalf("expected same XUID to mint the same UUID, got %s and %s", a.UUID, b.UUID)
	}
}

func TestRegistryCount(t *testing.T) {
	r := NewRegistry()
	r.Join("1", "A")
	r.Join("2", "B")
	if got := r.Count(); got != 2 {
		t.Fatalf("Count: got %d, want 2", got)
	}
}

func TestFlatWorldFetchProducesFullColumn(t *testing.T) {
	w := NewFlatWorld(chunk.GameVersion(1, 21, 50, 1))
	col, err := w.Fetch(chunk.Coord{X: 0, Z: 0})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	for i, s := range col.Sections {
		if s == nil {
			t.Fatalf("section %d is nil", i)
		}
	}
	for i, b := range col.Biomes {
		if b == nil {
			t.Fatalf("biome section %d is nil", i)
		}
	}
	if _, err := col.Encode(); err != nil {
		t.Fatalf("Encode: %v", err)
	}
}

func TestFlatWorldFloorSectionHasBedrockAtFloor(t *testing.T) {
	w := NewFlatWorld(chunk.GameVersion(1, 21, 50, 1))
	col, err := w.Fetch(chunk.Coord{X: 5, Z: -3})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	floor := col.Sections[0] // y = -4
	if floor.Y != -4 {
		t.Fatalf("expected first section at y=-4, got %d", floor.Y)
	}
	idx := floor.Layers[0].Indices[0] // (yy=0, zz=0, xx=0)
	paletteID := floor.Layers[0].Palette[idx]
	if paletteID != int32(w.bedrock) {
		t.Fatalf("floor block: got palette id %d, want bedrock %d", paletteID, w.bedrock)
	}
}
