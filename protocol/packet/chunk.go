package packet

import (
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

func init() {
	Register(IDLevelChunk, func() Packet { return &LevelChunk{} })
}

// LevelChunk delivers one chunk column's bit-exact wire bytes. RawPayload
// is produced by world/chunk.Column.Encode and carried here opaquely —
// the codec pipeline never interprets it, only frames it.
type LevelChunk struct {
	ChunkX, ChunkZ int32
	SubChunkCount  uint32
	CacheEnabled   bool
	RawPayload     []byte
}

func (p *LevelChunk) ID() uint32 { return IDLevelChunk }

func (p *LevelChunk) Marshal(w *binary.Writer) {
	w.WriteVarZigZag32(p.ChunkX)
	w.WriteVarZigZag32(p.ChunkZ)
	w.WriteVarint32(p.SubChunkCount)
	w.WriteBool(p.CacheEnabled)
	w.WriteByteSlice(p.RawPayload)
}

func (p *LevelChunk) Unmarshal(r *binary.Reader) error {
	var err error
	if p.ChunkX, err = r.ReadVarZigZag32(); err != nil {
		return fmt.Errorf("LevelChunk: x: %w", err)
	}
	if p.ChunkZ, err = r.ReadVarZigZag32(); err != nil {
		return fmt.Errorf("LevelChunk: z: %w", err)
	}
	if p.SubChunkCount, err = r.ReadVarint32(); err != nil {
		return fmt.Errorf("LevelChunk: sub chunk count: %w", err)
	}
	if p.CacheEnabled, err = r.ReadBool(); err != nil {
		return fmt.Errorf("LevelChunk: cache enabled: %w", err)
	}
	if p.RawPayload, err = r.ReadByteSlice(); err != nil {
		return fmt.Errorf("LevelChunk: payload: %w", err)
	}
	return nil
}
