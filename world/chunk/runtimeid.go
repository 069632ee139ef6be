// Package chunk implements the bit-exact chunk-column wire format:
// paletted block-storage sections, biome sections, and the FNV-1a
// block-state runtime-id hash the client recomputes locally once
// BlockNetworkIDsAreHashes is set.
package chunk

import (
	"hash/fnv"
	"sort"

	"github.com/bedrockd/bedrockd/protocol/nbt"
)

// GameVersion packs major.minor.patch.revision into the single integer the
// block-state `version` field carries.
func GameVersion(major, minor, patch, revision byte) int32 {
	return int32(uint32(major)<<24 | uint32(minor)<<16 | uint32(patch)<<8 | uint32(revision))
}

// blockStateNetworkNBT builds the network-NBT encoding of the block-state
// compound { name, states, version } with states keys in ascending
// byte-wise order, hashed for the runtime id. Kept separate from
// RuntimeID so the exact bytes being hashed can be produced on their own.
func blockStateNetworkNBT(name string, states map[string]any, version int32) []byte {
	statesCompound := nbt.NewCompound()
	keys := make([]string, 0, len(states))
	for k := range states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		statesCompound.Put(k, states[k])
	}

	root := nbt.NewCompound()
	root.Put("name", name)
	root.Put("states", statesCompound)
	root.Put("version", version)

	return nbt.Encode(nbt.NetworkLittleEndian, root)
}

// fnv1a32 is the 32-bit Fowler-Noll-Vo 1a hash used for block-state
// runtime ids — exposed at package level (rather than inlined) so a test
// can hash a deliberately malformed encoding to prove the version-encoding
// pitfall actually changes the result.
func fnv1a32(data []byte) uint32 {
	h := fnv.New32a()
	h.Write(data)
	return h.Sum32()
}

// RuntimeID computes the stable 32-bit block-state runtime id for a
// (name, states, version) triple. The same triple always yields the same
// id; this must hold across process restarts, which is
// guaranteed here because FNV-1a and the network-NBT encoding are both
// deterministic with no process-local salt.
func RuntimeID(name string, states map[string]any, version int32) uint32 {
	return fnv1a32(blockStateNetworkNBT(name, states, version))
}
