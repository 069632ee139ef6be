package packet

import (
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/binary"
	"github.com/bedrockd/bedrockd/protocol/nbt"
)

func init() {
	Register(IDStartGame, func() Packet { return &StartGame{} })
}

// GameRuleType tags which typed value a GameRule carries.
type GameRuleType byte

const (
	GameRuleBool GameRuleType = iota
	GameRuleInt
	GameRuleFloat
)

// GameRule is one entry of StartGame's game-rules list.
type GameRule struct {
	Name             string
	PlayerModifiable bool
	Type             GameRuleType
	BoolValue        bool
	IntValue         int32
	FloatValue       float32
}

func writeGameRule(w *binary.Writer, g GameRule) {
	w.WriteString(g.Name)
	w.WriteBool(g.PlayerModifiable)
	w.WriteVarint32(uint32(g.Type))
	switch g.Type {
	case GameRuleBool:
		w.WriteBool(g.BoolValue)
	case GameRuleInt:
		w.WriteVarZigZag32(g.IntValue)
	case GameRuleFloat:
		w.WriteFloat32LE(g.FloatValue)
	}
}

func readGameRule(r *binary.Reader) (GameRule, error) {
	var g GameRule
	var err error
	if g.Name, err = r.ReadString(); err != nil {
		return g, err
	}
	if g.PlayerModifiable, err = r.ReadBool(); err != nil {
		return g, err
	}
	t, err := r.ReadVarint32()
	if err != nil {
		return g, err
	}
	g.Type = GameRuleType(t)
	switch g.Type {
	case GameRuleBool:
		if g.BoolValue, err = r.ReadBool(); err != nil {
			return g, err
		}
	case GameRuleInt:
		if g.IntValue, err = r.ReadVarZigZag32(); err != nil {
			return g, err
		}
	case GameRuleFloat:
		if g.FloatValue, err = r.ReadFloat32LE(); err != nil {
			return g, err
		}
	default:
		return g, fmt.Errorf("game rule %q: unknown type %d", g.Name, t)
	}
	return g, nil
}

// StartGame is the monolithic world-bootstrap packet sent once resource
// packs are settled. The client freezes at "creating world" if
// PropertyData's block-state hashing disagrees with the server's — see
// the chunk package's runtime-id hashing for the pitfall this packet's
// BlockNetworkIDsAreHashes flag depends on.
type StartGame struct {
	PlayerUniqueID              int64
	PlayerRuntimeID             uint64
	Gamemode                    int32
	Position                    binary.Vec3
	Rotation                    binary.Vec2
	WorldSeed                   int64
	DimensionID                 int32
	GeneratorKind               int32
	SpawnPosition               binary.BlockPos
	Difficulty                  int32
	GameRules                   []GameRule
	ServerAuthoritativeMovement int32
	CurrentTick                 int64
	PropertyData                *nbt.Compound
	BlockNetworkIDsAreHashes    bool
}

func (p *StartGame) ID() uint32 { return IDStartGame }

func (p *StartGame) Marshal(w *binary.Writer) {
	w.WriteVarZigZag64(p.PlayerUniqueID)
	w.WriteVarint64(p.PlayerRuntimeID)
	w.WriteVarZigZag32(p.Gamemode)
	w.WriteVec3(p.Position)
	w.WriteVec2(p.Rotation)
	w.WriteInt64LE(p.WorldSeed)
	w.WriteVarZigZag32(p.DimensionID)
	w.WriteVarZigZag32(p.GeneratorKind)
	w.WriteBlockPos(p.SpawnPosition)
	w.WriteVarZigZag32(p.Difficulty)
	w.WriteVarint32(uint32(len(p.GameRules)))
	for _, g := range p.GameRules {
		writeGameRule(w, g)
	}
	w.WriteVarZigZag32(p.ServerAuthoritativeMovement)
	w.WriteInt64LE(p.CurrentTick)
	propertyData := p.PropertyData
	if propertyData == nil {
		propertyData = nbt.NewCompound()
	}
	w.WriteBytes(nbt.Encode(nbt.NetworkLittleEndian, propertyData))
	w.WriteBool(p.BlockNetworkIDsAreHashes)
}

func (p *StartGame) Unmarshal(r *binary.Reader) error {
	var err error
	if p.PlayerUniqueID, err = r.ReadVarZigZag64(); err != nil {
		return fmt.Errorf("StartGame: player unique id: %w", err)
	}
	if p.PlayerRuntimeID, err = r.ReadVarint64(); err != nil {
		return fmt.Errorf("StartGame: player runtime id: %w", err)
	}
	if p.Gamemode, err = r.ReadVarZigZag32(); err != nil {
		return fmt.Errorf("StartGame: gamemode: %w", err)
	}
	if p.Position, err = r.ReadVec3(); err != nil {
		return fmt.Errorf("StartGame: position: %w", err)
	}
	if p.Rotation, err = r.ReadVec2(); err != nil {
		return fmt.Errorf("StartGame: rotation: %w", err)
	}
	if p.WorldSeed, err = r.ReadInt64LE(); err != nil {
		return fmt.Errorf("StartGame: world seed: %w", err)
	}
	if p.DimensionID, err = r.ReadVarZigZag32(); err != nil {
		return fmt.Errorf("StartGame: dimension id: %w", err)
	}
	if p.GeneratorKind, err = r.ReadVarZigZag32(); err != nil {
		return fmt.Errorf("StartGame: generator kind: %w", err)
	}
	if p.SpawnPosition, err = r.ReadBlockPos(); err != nil {
		return fmt.Errorf("StartGame: spawn position: %w", err)
	}
	if p.Difficulty, err = r.ReadVarZigZag32(); err != nil {
		return fmt.Errorf("StartGame: difficulty: %w", err)
	}
	count, err := r.ReadVarint32()
	if err != nil {
		return fmt.Errorf("StartGame: game rule count: %w", err)
	}
	for i := 0; i < int(count); i++ {
		g, err := readGameRule(r)
		if err != nil {
			return fmt.Errorf("StartGame: game rule %d: %w", i, err)
		}
		p.GameRules = append(p.GameRules, g)
	}
	if p.ServerAuthoritativeMovement, err = r.ReadVarZigZag32(); err != nil {
		return fmt.Errorf("StartGame: server authoritative movement: %w", err)
	}
	if p.CurrentTick, err = r.ReadInt64LE(); err != nil {
		return fmt.Errorf("StartGame: current tick: %w", err)
	}
	property, err := nbt.DecodeFrom(r, nbt.NetworkLittleEndian)
	if err != nil {
		return fmt.Errorf("StartGame: property data: %w", err)
	}
	p.PropertyData = property
	if p.BlockNetworkIDsAreHashes, err = r.ReadBool(); err != nil {
		return fmt.Errorf("StartGame: block network ids are hashes: %w", err)
	}
	return nil
}
