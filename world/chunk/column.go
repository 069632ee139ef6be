package chunk

import (
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

// ColumnSectionCount is the number of vertical sections in a full column
// (384 world-height blocks / 16 per section), and likewise the number of
// biome sections.
const ColumnSectionCount = 24

// borderBlocksByte terminates every column; the format reserves it for a
// border-blocks feature the core never populates.
const borderBlocksByte = 0x00

// Column is one bit-exact chunk column: 24 block sections followed by 24
// biome sections and a trailing border-blocks byte. The wire producer is
// exact — any byte difference and the client refuses the world.
type Column struct {
	Sections [ColumnSectionCount]*Section
	Biomes   [ColumnSectionCount]*Layer
}

// Encode serializes a column to its exact wire bytes.
func (c *Column) Encode() ([]byte, error) {
	w := binary.NewWriter()
	for i, s := range c.Sections {
		if s == nil {
			return nil, fmt.Errorf("chunk: column section %d is nil", i)
		}
		if err := writeSection(w, s); err != nil {
			return nil, err
		}
	}
	for i, b := range c.Biomes {
		if b == nil {
			return nil, fmt.Errorf("chunk: column biome section %d is nil", i)
		}
		if err := writeLayer(w, b, BiomeVolume, kindBiome); err != nil {
			return nil, fmt.Errorf("chunk: biome section %d: %w", i, err)
		}
	}
	w.WriteByte(borderBlocksByte)
	return w.Bytes(), nil
}

// Decode parses a column from data encoded by Encode. disk selects
// whether block sections are parsed as the network (runtime-id) or disk
// (NBT-compound) palette form.
func Decode(data []byte, disk bool) (*Column, error) {
	r := binary.NewReader(data)
	c := &Column{}
	for i := 0; i < ColumnSectionCount; i++ {
		s, err := readSection(r, disk)
		if err != nil {
			return nil, fmt.Errorf("chunk: section %d: %w", i, err)
		}
		c.Sections[i] = s
	}
	for i := 0; i < ColumnSectionCount; i++ {
		b, err := readLayer(r, BiomeVolume, kindBiome)
		if err != nil {
			return nil, fmt.Errorf("chunk: biome section %d: %w", i, err)
		}
		c.Biomes[i] = b
	}
	border, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("chunk: border-blocks byte: %w", err)
	}
	if border != borderBlocksByte {
		return nil, fmt.Errorf("chunk: border-blocks byte is 0x%02x, want 0x%02x", border, borderBlocksByte)
	}
	return c, nil
}
