package gamelayer

import (
	"github.com/bedrockd/bedrockd/world/chunk"
)

// FlatWorld is a world/chunk.Source that fabricates an infinite
// superflat column: bedrock, three layers of dirt, one of grass, air
// above. It exists to exercise the core's chunk-delivery path without a
// real world store.
type FlatWorld struct {
	version int32
	air     int32
	bedrock int32
	dirt    int32
	grass   int32
}

// NewFlatWorld builds a FlatWorld targeting the given game version (see
// chunk.GameVersion), pre-resolving the handful of runtime ids every
// column needs.
func NewFlatWorld(version int32) *FlatWorld {
	return &FlatWorld{
		version: version,
		air:     int32(chunk.RuntimeID("minecraft:air", map[string]any{}, version)),
		bedrock: int32(chunk.RuntimeID("minecraft:bedrock", map[string]any{"infiniburn_bit": byte(0)}, version)),
		dirt:    int32(chunk.RuntimeID("minecraft:dirt", map[string]any{}, version)),
		grass:   int32(chunk.RuntimeID("minecraft:grass", map[string]any{}, version)),
	}
}

// Fetch implements chunk.Source. Every coordinate returns the same
// terrain shape: a flat world has no column-to-column variation.
func (w *FlatWorld) Fetch(coord chunk.Coord) (*chunk.Column, error) {
	var col chunk.Column
	for i := 0; i < chunk.ColumnSectionCount; i++ {
		y := int8(i - 4)
		col.Sections[i] = &chunk.Section{Y: y, Layers: []*chunk.Layer{w.sectionLayer(y)}}
		col.Biomes[i] = chunk.NewIntLayer(make([]uint32, chunk.BiomeVolume), []int32{1})
	}
	return &col, nil
}

// sectionLayer builds the single block layer for section y: bedrock at
// the world floor, dirt/grass just above it, air everywhere else.
func (w *FlatWorld) sectionLayer(y int8) *chunk.Layer {
	indices := make([]uint32, chunk.BlockVolume)
	palette := []int32{w.air, w.bedrock, w.dirt, w.grass}

	if y != -4 {
		return chunk.NewIntLayer(indices, palette) // all air, index 0
	}
	// Section y=-4 is the world floor: y-in-section 0 is bedrock, 1-3
	// dirt, 4 grass, the rest air, matching a classic superflat preset.
	for yy := 0; yy < 16; yy++ {
		var idx uint32
		switch {
		case yy == 0:
			idx = 1 // bedrock
		case yy >= 1 && yy <= 3:
			idx = 2 // dirt
		case yy == 4:
			idx = 3 // grass
		default:
			idx = 0 // air
		}
		for xx := 0; xx < 16; xx++ {
			for zz := 0; zz < 16; zz++ {
				indices[(yy*16+zz)*16+xx] = idx
			}
		}
	}
	return chunk.NewIntLayer(indices, palette)
}
