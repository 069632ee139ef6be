package chunk

import (
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/binary"
	"github.com/bedrockd/bedrockd/protocol/nbt"
)

// SectionVersion is the wire version this package produces and expects.
const SectionVersion byte = 9

// BlockVolume is the number of block entries in one 16x16x16 section.
const BlockVolume = 16 * 16 * 16

// BiomeVolume is the number of biome entries in one 4x4x4 biome section.
const BiomeVolume = 4 * 4 * 4

// layerKind distinguishes the three paletted-layer shapes the wire format
// uses. Only block layers let the header's is-runtime bit vary; biome
// layers always clear it even though, like the network block form, their
// palette entries are plain integers rather than NBT compounds — biome
// ids are never runtime-hashed.
type layerKind int

const (
	kindBlockNetwork layerKind = iota
	kindBlockDisk
	kindBiome
)

func (k layerKind) headerBit() byte {
	if k == kindBlockNetwork {
		return 1
	}
	return 0
}

func (k layerKind) intPalette() bool {
	return k != kindBlockDisk
}

// Layer is one paletted storage layer: a dense index array plus the
// palette those indices select into. Palette holds the network/biome
// integer form; DiskPalette holds the disk NBT-compound form. Only the
// field matching the layer's kind is populated.
type Layer struct {
	BitsPerEntry byte
	Indices      []uint32
	Palette      []int32
	DiskPalette  []*nbt.Compound
}

func (l *Layer) paletteLen(k layerKind) int {
	if k.intPalette() {
		return len(l.Palette)
	}
	return len(l.DiskPalette)
}

// NewIntLayer builds a network-form block layer or a biome layer (both use
// plain integer palette entries) from a dense index array, choosing the
// narrowest valid bits-per-entry automatically.
func NewIntLayer(indices []uint32, palette []int32) *Layer {
	return &Layer{
		BitsPerEntry: bitsForPaletteSize(len(palette)),
		Indices:      indices,
		Palette:      palette,
	}
}

func writeLayer(w *binary.Writer, l *Layer, volume int, k layerKind) error {
	if len(l.Indices) != volume {
		return fmt.Errorf("chunk: layer has %d indices, want %d", len(l.Indices), volume)
	}
	header := k.headerBit() | l.BitsPerEntry<<1
	w.WriteByte(header)

	words, err := packIndices(l.Indices, l.BitsPerEntry)
	if err != nil {
		return err
	}
	for _, word := range words {
		w.WriteUint32LE(word)
	}

	w.WriteVarintSigned32(int32(l.paletteLen(k)))
	if k.intPalette() {
		for _, id := range l.Palette {
			w.WriteVarintSigned32(id)
		}
	} else {
		for _, compound := range l.DiskPalette {
			w.WriteBytes(nbt.Encode(nbt.LittleEndian, compound))
		}
	}
	return nil
}

func readLayer(r *binary.Reader, volume int, k layerKind) (*Layer, error) {
	header, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("chunk: layer header: %w", err)
	}
	bitsPerEntry := header >> 1
	if !validBitsPerEntry[bitsPerEntry] {
		return nil, fmt.Errorf("chunk: invalid bits-per-entry %d in layer header", bitsPerEntry)
	}
	l := &Layer{BitsPerEntry: bitsPerEntry}

	words := make([]uint32, wordCount(l.BitsPerEntry, volume))
	for i := range words {
		w, err := r.ReadUint32LE()
		if err != nil {
			return nil, fmt.Errorf("chunk: packed word %d: %w", i, err)
		}
		words[i] = w
	}
	indices, err := unpackIndices(words, l.BitsPerEntry, volume)
	if err != nil {
		return nil, err
	}
	l.Indices = indices

	size, err := r.ReadVarintSigned32()
	if err != nil {
		return nil, fmt.Errorf("chunk: palette size: %w", err)
	}
	if k.intPalette() {
		l.Palette = make([]int32, size)
		for i := range l.Palette {
			v, err := r.ReadVarintSigned32()
			if err != nil {
				return nil, fmt.Errorf("chunk: palette entry %d: %w", i, err)
			}
			l.Palette[i] = v
		}
	} else {
		l.DiskPalette = make([]*nbt.Compound, size)
		for i := range l.DiskPalette {
			c, err := nbt.DecodeFrom(r, nbt.LittleEndian)
			if err != nil {
				return nil, fmt.Errorf("chunk: disk palette entry %d: %w", i, err)
			}
			l.DiskPalette[i] = c
		}
	}
	return l, nil
}

// Section is one 16-wide vertical slice of a column: 1 or 2 block layers
// (the second layer, when present, holds waterlogging) plus its signed
// section-Y index. Disk is true when every layer in the section is the
// NBT-compound disk form; sections are never mixed-kind.
type Section struct {
	Y      int8
	Disk   bool
	Layers []*Layer
}

func (s *Section) kind() layerKind {
	if s.Disk {
		return kindBlockDisk
	}
	return kindBlockNetwork
}

func writeSection(w *binary.Writer, s *Section) error {
	w.WriteByte(SectionVersion)
	w.WriteByte(byte(len(s.Layers)))
	w.WriteByte(byte(s.Y))
	for _, l := range s.Layers {
		if err := writeLayer(w, l, BlockVolume, s.kind()); err != nil {
			return fmt.Errorf("chunk: section y=%d: %w", s.Y, err)
		}
	}
	return nil
}

func readSection(r *binary.Reader, disk bool) (*Section, error) {
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("chunk: section version: %w", err)
	}
	if version != SectionVersion {
		return nil, fmt.Errorf("chunk: unsupported section version %d, want %d", version, SectionVersion)
	}
	layerCount, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("chunk: layer count: %w", err)
	}
	yByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("chunk: section y: %w", err)
	}
	s := &Section{Y: int8(yByte), Disk: disk, Layers: make([]*Layer, layerCount)}
	for i := 0; i < int(layerCount); i++ {
		l, err := readLayer(r, BlockVolume, s.kind())
		if err != nil {
			return nil, fmt.Errorf("chunk: section y=%d layer %d: %w", s.Y, i, err)
		}
		s.Layers[i] = l
	}
	return s, nil
}
