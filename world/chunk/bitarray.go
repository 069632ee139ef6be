package chunk

import "fmt"

// validBitsPerEntry are the only widths the paletted storage format is
// allowed to use.
var validBitsPerEntry = map[byte]bool{
	1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 8: true, 16: true,
}

// entriesPerWord returns how many bits-per-entry-wide entries fit in one
// 32-bit word, packed from the low bit upward with any remaining high bits
// left zero.
func entriesPerWord(bitsPerEntry byte) int {
	return 32 / int(bitsPerEntry)
}

// wordCount returns how many 32-bit words are needed to hold n entries at
// the given width.
func wordCount(bitsPerEntry byte, n int) int {
	perWord := entriesPerWord(bitsPerEntry)
	return (n + perWord - 1) / perWord
}

// packIndices bit-packs indices (each required to fit in bitsPerEntry
// bits) into little-endian 32-bit words: each word holds floor(32/bits)
// entries packed from the low bit upward.
func packIndices(indices []uint32, bitsPerEntry byte) ([]uint32, error) {
	if !validBitsPerEntry[bitsPerEntry] {
		return nil, fmt.Errorf("chunk: invalid bits-per-entry %d", bitsPerEntry)
	}
	mask := uint32(1)<<bitsPerEntry - 1
	perWord := entriesPerWord(bitsPerEntry)
	words := make([]uint32, wordCount(bitsPerEntry, len(indices)))
	for i, v := range indices {
		if v > mask {
			return nil, fmt.Errorf("chunk: index %d does not fit in %d bits", v, bitsPerEntry)
		}
		word := i / perWord
		shift := uint((i % perWord)) * uint(bitsPerEntry)
		words[word] |= v << shift
	}
	return words, nil
}

// unpackIndices reverses packIndices, producing exactly n entries.
func unpackIndices(words []uint32, bitsPerEntry byte, n int) ([]uint32, error) {
	if !validBitsPerEntry[bitsPerEntry] {
		return nil, fmt.Errorf("chunk: invalid bits-per-entry %d", bitsPerEntry)
	}
	mask := uint32(1)<<bitsPerEntry - 1
	perWord := entriesPerWord(bitsPerEntry)
	if len(words) < wordCount(bitsPerEntry, n) {
		return nil, fmt.Errorf("chunk: not enough words for %d entries at %d bits", n, bitsPerEntry)
	}
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		word := words[i/perWord]
		shift := uint((i % perWord)) * uint(bitsPerEntry)
		out[i] = (word >> shift) & mask
	}
	return out, nil
}

// bitsForPaletteSize returns the narrowest valid bits-per-entry able to
// address a palette of size n (n >= 1).
func bitsForPaletteSize(n int) byte {
	if n <= 1 {
		return 1
	}
	needed := 0
	for (1 << needed) < n {
		needed++
	}
	for _, b := range []byte{1, 2, 3, 4, 5, 6, 8, 16} {
		if int(b) >= needed {
			return b
		}
	}
	return 16
}
