package server

import (
	"github.com/bedrockd/bedrockd/internal/logging"
	"github.com/bedrockd/bedrockd/protocol/binary"
	"github.com/bedrockd/bedrockd/protocol/compress"
	"github.com/bedrockd/bedrockd/protocol/nbt"
	"github.com/bedrockd/bedrockd/protocol/packet"
	"github.com/bedrockd/bedrockd/session"
	"github.com/bedrockd/bedrockd/world/chunk"
)

// spawnViewRadius is how many chunks out from spawn are pushed to a
// freshly joined player before SetLocalPlayerAsInitialized is expected.
const spawnViewRadius = 2

// gamemodeNumeric maps the configured gamemode name onto the wire's
// integer gamemode id; unrecognized names fall back to survival.
func gamemodeNumeric(name string) int32 {
	switch name {
	case "creative":
		return 1
	case "adventure":
		return 2
	case "spectator":
		return 6
	default:
		return 0
	}
}

// sendStartGame builds and sends the world-bootstrap packet every session
// receives exactly once, immediately after resource pack negotiation
// completes.
func (s *Server) sendStartGame(sess *session.Session) {
	props := nbt.NewCompound()
	props.Put("commandblocksenabled", byte(1))

	sg := &packet.StartGame{
		PlayerUniqueID:  1,
		PlayerRuntimeID: 1,
		Gamemode:        gamemodeNumeric(s.Config.Gamemode),
		Position:        binary.Vec3{X: 0, Y: 64, Z: 0},
		Rotation:        binary.Vec2{X: 0, Y: 0},
		WorldSeed:       s.Config.WorldSeed,
		DimensionID:     0,
		GeneratorKind:   1,
		SpawnPosition:   binary.BlockPos{X: 0, Y: 64, Z: 0},
		Difficulty:      2,
		GameRules: []packet.GameRule{
			{Name: "dodaylightcycle", Type: packet.GameRuleBool, BoolValue: true, PlayerModifiable: true},
			{Name: "doweathercycle", Type: packet.GameRuleBool, BoolValue: true, PlayerModifiable: true},
			{Name: "showcoordinates", Type: packet.GameRuleBool, BoolValue: false, PlayerModifiable: true},
		},
		ServerAuthoritativeMovement: 1,
		CurrentTick:                 0,
		PropertyData:                props,
		BlockNetworkIDsAreHashes:    true,
	}
	s.sendPackets(sess, sg)
}

// deliverSpawnChunks pushes the chunk columns around spawn so the client
// has ground to stand on before it reports itself initialized. Column
// encoding runs on the worker pool since it is pure CPU work independent
// of the tick loop.
func (s *Server) deliverSpawnChunks(sess *session.Session) {
	if s.ChunkSource == nil {
		logging.Warn("%s: no chunk source configured, skipping chunk delivery", sess.Addr)
		return
	}
	for x := -spawnViewRadius; x <= spawnViewRadius; x++ {
		for z := -spawnViewRadius; z <= spawnViewRadius; z++ {
			coord := chunk.Coord{X: int32(x), Z: int32(z)}
			s.workers.submit(func() {
				s.encodeAndSendChunk(sess, coord)
			})
		}
	}
}

func (s *Server) encodeAndSendChunk(sess *session.Session, coord chunk.Coord) {
	column, err := s.ChunkSource.Fetch(coord)
	if err != nil {
		logging.Warn("%s: fetch chunk (%d,%d): %v", sess.Addr, coord.X, coord.Z, err)
		return
	}
	raw, err := column.Encode()
	if err != nil {
		logging.Warn("%s: encode chunk (%d,%d): %v", sess.Addr, coord.X, coord.Z, err)
		return
	}
	s.sendPackets(sess, &packet.LevelChunk{
		ChunkX:        coord.X,
		ChunkZ:        coord.Z,
		SubChunkCount: chunk.ColumnSectionCount,
		RawPayload:    raw,
	})
}

// noCompressionCodec is the Codec used for bootstrap packets sent before
// a session has negotiated NetworkSettings.
func noCompressionCodec() compress.Codec {
	codec, _ := compress.ForAlgorithm(compress.None)
	return codec
}
