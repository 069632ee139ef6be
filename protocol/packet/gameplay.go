package packet

import (
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

func init() {
	Register(IDText, func() Packet { return &Text{} })
	Register(IDMoveEntityAbsolute, func() Packet { return &MoveEntityAbsolute{} })
	Register(IDMoveEntityDelta, func() Packet { return &MoveEntityDelta{} })
	Register(IDSetEntityMotion, func() Packet { return &SetEntityMotion{} })
	Register(IDUpdateAttributes, func() Packet { return &UpdateAttributes{} })
}

// Text chat/system-message text types.
const (
	TextTypeRaw byte = iota
	TextTypeChat
	TextTypeTranslation
	TextTypePopup
	TextTypeJukeboxPopup
	TextTypeTip
	TextTypeSystem
	TextTypeWhisper
	TextTypeAnnouncement
	TextTypeObjectWhisper
	TextTypeObject
	TextTypeObjectAnnouncement
)

// Text carries chat, system messages, and popups.
type Text struct {
	TextType         byte
	NeedsTranslation bool
	SourceName       string
	Message          string
	Parameters       []string
	XUID             string
	PlatformChatID   string
}

func (p *Text) ID() uint32 { return IDText }

func (p *Text) Marshal(w *binary.Writer) {
	w.WriteByte(p.TextType)
	w.WriteBool(p.NeedsTranslation)
	switch p.TextType {
	case TextTypeChat, TextTypeWhisper, TextTypeAnnouncement:
		w.WriteString(p.SourceName)
		w.WriteString(p.Message)
	case TextTypeTranslation, TextTypePopup, TextTypeJukeboxPopup:
		w.WriteString(p.Message)
		w.WriteVarint32(uint32(len(p.Parameters)))
		for _, param := range p.Parameters {
			w.WriteString(param)
		}
	default:
		w.WriteString(p.Message)
	}
	w.WriteString(p.XUID)
	w.WriteString(p.PlatformChatID)
}

func (p *Text) Unmarshal(r *binary.Reader) error {
	var err error
	if p.TextType, err = r.ReadByte(); err != nil {
		return fmt.Errorf("Text: type: %w", err)
	}
	if p.NeedsTranslation, err = r.ReadBool(); err != nil {
		return fmt.Errorf("Text: needs translation: %w", err)
	}
	switch p.TextType {
	case TextTypeChat, TextTypeWhisper, TextTypeAnnouncement:
		if p.SourceName, err = r.ReadString(); err != nil {
			return fmt.Errorf("Text: source name: %w", err)
		}
		if p.Message, err = r.ReadString(); err != nil {
			return fmt.Errorf("Text: message: %w", err)
		}
	case TextTypeTranslation, TextTypePopup, TextTypeJukeboxPopup:
		if p.Message, err = r.ReadString(); err != nil {
			return fmt.Errorf("Text: message: %w", err)
		}
		count, err := r.ReadVarint32()
		if err != nil {
			return fmt.Errorf("Text: parameter count: %w", err)
		}
		for i := 0; i < int(count); i++ {
			param, err := r.ReadString()
			if err != nil {
				return fmt.Errorf("Text: parameter %d: %w", i, err)
			}
			p.Parameters = append(p.Parameters, param)
		}
	default:
		if p.Message, err = r.ReadString(); err != nil {
			return fmt.Errorf("Text: message: %w", err)
		}
	}
	if p.XUID, err = r.ReadString(); err != nil {
		return fmt.Errorf("Text: xuid: %w", err)
	}
	if p.PlatformChatID, err = r.ReadString(); err != nil {
		return fmt.Errorf("Text: platform chat id: %w", err)
	}
	return nil
}

// MoveEntityAbsolute teleports an entity to an exact position and
// rotation. Unlike MoveEntityDelta it is not droppable — it is the
// authoritative correction a delta stream periodically resyncs against.
type MoveEntityAbsolute struct {
	RuntimeEntityID uint64
	Position        binary.Vec3
	Rotation        binary.Vec3
	OnGround        bool
	Teleported      bool
}

func (p *MoveEntityAbsolute) ID() uint32 { return IDMoveEntityAbsolute }

func (p *MoveEntityAbsolute) Marshal(w *binary.Writer) {
	w.WriteVarint64(p.RuntimeEntityID)
	flags := byte(0)
	if p.OnGround {
		flags |= 0x01
	}
	if p.Teleported {
		flags |= 0x02
	}
	w.WriteByte(flags)
	w.WriteVec3(p.Position)
	w.WriteByte(byte(p.Rotation.X))
	w.WriteByte(byte(p.Rotation.Y))
	w.WriteByte(byte(p.Rotation.Z))
}

func (p *MoveEntityAbsolute) Unmarshal(r *binary.Reader) error {
	var err error
	if p.RuntimeEntityID, err = r.ReadVarint64(); err != nil {
		return fmt.Errorf("MoveEntityAbsolute: entity id: %w", err)
	}
	flags, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("MoveEntityAbsolute: flags: %w", err)
	}
	p.OnGround = flags&0x01 != 0
	p.Teleported = flags&0x02 != 0
	if p.Position, err = r.ReadVec3(); err != nil {
		return fmt.Errorf("MoveEntityAbsolute: position: %w", err)
	}
	x, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("MoveEntityAbsolute: pitch: %w", err)
	}
	y, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("MoveEntityAbsolute: yaw: %w", err)
	}
	z, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("MoveEntityAbsolute: head yaw: %w", err)
	}
	p.Rotation = binary.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}
	return nil
}

// MoveEntityDelta is the high-frequency, droppable position-update
// variant (session.Droppable classifies it so back-pressure sheds it
// instead of blocking the broadcast).
type MoveEntityDelta struct {
	RuntimeEntityID uint64
	Flags           uint16
	X, Y, Z         float32
	Pitch, Yaw      float32
	HeadYaw         float32
}

func (p *MoveEntityDelta) ID() uint32 { return IDMoveEntityDelta }

func (p *MoveEntityDelta) Marshal(w *binary.Writer) {
	w.WriteVarint64(p.RuntimeEntityID)
	w.WriteUint16LE(p.Flags)
	w.WriteFloat32LE(p.X)
	w.WriteFloat32LE(p.Y)
	w.WriteFloat32LE(p.Z)
	w.WriteByte(byte(p.Pitch))
	w.WriteByte(byte(p.Yaw))
	w.WriteByte(byte(p.HeadYaw))
}

func (p *MoveEntityDelta) Unmarshal(r *binary.Reader) error {
	var err error
	if p.RuntimeEntityID, err = r.ReadVarint64(); err != nil {
		return fmt.Errorf("MoveEntityDelta: entity id: %w", err)
	}
	if p.Flags, err = r.ReadUint16LE(); err != nil {
		return fmt.Errorf("MoveEntityDelta: flags: %w", err)
	}
	if p.X, err = r.ReadFloat32LE(); err != nil {
		return fmt.Errorf("MoveEntityDelta: x: %w", err)
	}
	if p.Y, err = r.ReadFloat32LE(); err != nil {
		return fmt.Errorf("MoveEntityDelta: y: %w", err)
	}
	if p.Z, err = r.ReadFloat32LE(); err != nil {
		return fmt.Errorf("MoveEntityDelta: z: %w", err)
	}
	pitch, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("MoveEntityDelta: pitch: %w", err)
	}
	yaw, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("MoveEntityDelta: yaw: %w", err)
	}
	headYaw, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("MoveEntityDelta: head yaw: %w", err)
	}
	p.Pitch, p.Yaw, p.HeadYaw = float32(pitch), float32(yaw), float32(headYaw)
	return nil
}

// SetEntityMotion is a droppable velocity update: session.DroppablePacket
// classifies it so back-pressure sheds it instead of blocking the
// broadcast.
type SetEntityMotion struct {
	RuntimeEntityID uint64
	Velocity        binary.Vec3
}

func (p *SetEntityMotion) ID() uint32 { return IDSetEntityMotion }

func (p *SetEntityMotion) Marshal(w *binary.Writer) {
	w.WriteVarint64(p.RuntimeEntityID)
	w.WriteVec3(p.Velocity)
}

func (p *SetEntityMotion) Unmarshal(r *binary.Reader) error {
	var err error
	if p.RuntimeEntityID, err = r.ReadVarint64(); err != nil {
		return fmt.Errorf("SetEntityMotion: entity id: %w", err)
	}
	if p.Velocity, err = r.ReadVec3(); err != nil {
		return fmt.Errorf("SetEntityMotion: velocity: %w", err)
	}
	return nil
}

// Attribute is one named, bounded, floating-point stat (health, hunger,
// movement speed, ...) carried by UpdateAttributes.
type Attribute struct {
	Name    string
	Min     float32
	Max     float32
	Current float32
	Default float32
}

func writeAttribute(w *binary.Writer, a Attribute) {
	w.WriteFloat32LE(a.Min)
	w.WriteFloat32LE(a.Max)
	w.WriteFloat32LE(a.Current)
	w.WriteFloat32LE(a.Default)
	w.WriteString(a.Name)
}

func readAttribute(r *binary.Reader) (Attribute, error) {
	var a Attribute
	var err error
	if a.Min, err = r.ReadFloat32LE(); err != nil {
		return a, err
	}
	if a.Max, err = r.ReadFloat32LE(); err != nil {
		return a, err
	}
	if a.Current, err = r.ReadFloat32LE(); err != nil {
		return a, err
	}
	if a.Default, err = r.ReadFloat32LE(); err != nil {
		return a, err
	}
	if a.Name, err = r.ReadString(); err != nil {
		return a, err
	}
	return a, nil
}

// UpdateAttributes is a droppable stat-sync (session.DroppablePacket): a
// later update always supersedes an earlier one for the same entity.
type UpdateAttributes struct {
	RuntimeEntityID uint64
	Attributes      []Attribute
	Tick            uint64
}

func (p *UpdateAttributes) ID() uint32 { return IDUpdateAttributes }

func (p *UpdateAttributes) Marshal(w *binary.Writer) {
	w.WriteVarint64(p.RuntimeEntityID)
	w.WriteVarint32(uint32(len(p.Attributes)))
	for _, a := range p.Attributes {
		writeAttribute(w, a)
	}
	w.WriteVarint64(p.Tick)
}

func (p *UpdateAttributes) Unmarshal(r *binary.Reader) error {
	var err error
	if p.RuntimeEntityID, err = r.ReadVarint64(); err != nil {
		return fmt.Errorf("UpdateAttributes: entity id: %w", err)
	}
	count, err := r.ReadVarint32()
	if err != nil {
		return fmt.Errorf("UpdateAttributes: count: %w", err)
	}
	for i := 0; i < int(count); i++ {
		a, err := readAttribute(r)
		if err != nil {
			return fmt.Errorf("UpdateAttributes: attribute %d: %w", i, err)
		}
		p.Attributes = append(p.Attributes, a)
	}
	if p.Tick, err = r.ReadVarint64(); err != nil {
		return fmt.Errorf("UpdateAttributes: tick: %w", err)
	}
	return nil
}
