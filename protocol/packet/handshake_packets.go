package packet

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

// Play-status values the server sends in a PlayStatus packet.
const (
	PlayStatusLoginSuccess          int32 = 0
	PlayStatusLoginFailedClient     int32 = 1
	PlayStatusLoginFailedServer     int32 = 2
	PlayStatusPlayerSpawn           int32 = 3
	PlayStatusLoginFailedInvalid    int32 = 4
	PlayStatusLoginFailedVersionOld int32 = 5
	PlayStatusLoginFailedVersionNew int32 = 6
)

func init() {
	Register(IDRequestNetworkSettings, func() Packet { return &RequestNetworkSettings{} })
	Register(IDNetworkSettings, func() Packet { return &NetworkSettings{} })
	Register(IDLogin, func() Packet { return &Login{} })
	Register(IDPlayStatus, func() Packet { return &PlayStatus{} })
	Register(IDServerToClientHandshake, func() Packet { return &ServerToClientHandshake{} })
	Register(IDClientToServerHandshake, func() Packet { return &ClientToServerHandshake{} })
	Register(IDDisconnect, func() Packet { return &Disconnect{} })
	Register(IDResourcePacksInfo, func() Packet { return &ResourcePacksInfo{} })
	Register(IDResourcePackStack, func() Packet { return &ResourcePackStack{} })
	Register(IDResourcePackClientResponse, func() Packet { return &ResourcePackClientResponse{} })
	Register(IDSetLocalPlayerAsInitialized, func() Packet { return &SetLocalPlayerAsInitialized{} })
}

// RequestNetworkSettings is the first packet a client sends once the
// connected handshake finishes: its protocol version, big-endian, unlike
// nearly every other integer on the wire.
type RequestNetworkSettings struct {
	ClientProtocolVersion int32
}

func (p *RequestNetworkSettings) ID() uint32 { return IDRequestNetworkSettings }

func (p *RequestNetworkSettings) Marshal(w *binary.Writer) {
	w.WriteUint32BE(uint32(p.ClientProtocolVersion))
}

func (p *RequestNetworkSettings) Unmarshal(r *binary.Reader) error {
	v, err := r.ReadUint32BE()
	if err != nil {
		return fmt.Errorf("RequestNetworkSettings: %w", err)
	}
	p.ClientProtocolVersion = int32(v)
	return nil
}

// NetworkSettings announces the compression algorithm and threshold that
// govern every subsequent batch.
type NetworkSettings struct {
	CompressionThreshold  uint16
	CompressionAlgorithm  uint16
	ClientThrottleEnabled bool
	ClientThrottleScalar  float32
	ClientThrottleDelay   uint16
}

func (p *NetworkSettings) ID() uint32 { return IDNetworkSettings }

func (p *NetworkSettings) Marshal(w *binary.Writer) {
	w.WriteUint16LE(p.CompressionThreshold)
	w.WriteUint16LE(p.CompressionAlgorithm)
	w.WriteBool(p.ClientThrottleEnabled)
	w.WriteByte(byte(p.ClientThrottleScalar))
	w.WriteUint16LE(p.ClientThrottleDelay)
}

func (p *NetworkSettings) Unmarshal(r *binary.Reader) error {
	var err error
	if p.CompressionThreshold, err = r.ReadUint16LE(); err != nil {
		return fmt.Errorf("NetworkSettings: threshold: %w", err)
	}
	if p.CompressionAlgorithm, err = r.ReadUint16LE(); err != nil {
		return fmt.Errorf("NetworkSettings: algorithm: %w", err)
	}
	if p.ClientThrottleEnabled, err = r.ReadBool(); err != nil {
		return fmt.Errorf("NetworkSettings: throttle enabled: %w", err)
	}
	scalar, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("NetworkSettings: throttle scalar: %w", err)
	}
	p.ClientThrottleScalar = float32(scalar)
	if p.ClientThrottleDelay, err = r.ReadUint16LE(); err != nil {
		return fmt.Errorf("NetworkSettings: throttle delay: %w", err)
	}
	return nil
}

// Login carries the client's protocol version and its login chain: a JSON
// array of JWTs verified during the Login→Encryption transition.
// ConnectionRequest is left as an opaque payload here; the chain itself is
// parsed and verified by protocol/crypto.VerifyLoginChain at the session
// layer, which owns the online/offline root-key decision.
type Login struct {
	ClientProtocolVersion int32
	ConnectionRequest     []byte
}

func (p *Login) ID() uint32 { return IDLogin }

func (p *Login) Marshal(w *binary.Writer) {
	w.WriteUint32BE(uint32(p.ClientProtocolVersion))
	w.WriteByteSlice(p.ConnectionRequest)
}

func (p *Login) Unmarshal(r *binary.Reader) error {
	v, err := r.ReadUint32BE()
	if err != nil {
		return fmt.Errorf("Login: protocol version: %w", err)
	}
	p.ClientProtocolVersion = int32(v)
	if p.ConnectionRequest, err = r.ReadByteSlice(); err != nil {
		return fmt.Errorf("Login: connection request: %w", err)
	}
	return nil
}

// PlayStatus reports a login-flow milestone or failure reason to the
// client: a protocol-version mismatch is refused with a play-status
// login-failed packet rather than silently dropped.
type PlayStatus struct {
	Status int32
}

func (p *PlayStatus) ID() uint32 { return IDPlayStatus }

func (p *PlayStatus) Marshal(w *binary.Writer) { w.WriteUint32BE(uint32(p.Status)) }

func (p *PlayStatus) Unmarshal(r *binary.Reader) error {
	v, err := r.ReadUint32BE()
	if err != nil {
		return fmt.Errorf("PlayStatus: %w", err)
	}
	p.Status = int32(v)
	return nil
}

// ServerToClientHandshake carries the server's ephemeral ECDH public key
// and salt as a signed JWT, sent during the Login→Encryption transition.
type ServerToClientHandshake struct {
	JWT string
}

func (p *ServerToClientHandshake) ID() uint32 { return IDServerToClientHandshake }

func (p *ServerToClientHandshake) Marshal(w *binary.Writer) { w.WriteString(p.JWT) }

func (p *ServerToClientHandshake) Unmarshal(r *binary.Reader) error {
	s, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("ServerToClientHandshake: %w", err)
	}
	p.JWT = s
	return nil
}

// ClientToServerHandshake has no body; its arrival is the Encryption →
// ResourcePacks transition signal.
type ClientToServerHandshake struct{}

func (p *ClientToServerHandshake) ID() uint32                     { return IDClientToServerHandshake }
func (p *ClientToServerHandshake) Marshal(w *binary.Writer)       {}
func (p *ClientToServerHandshake) Unmarshal(r *binary.Reader) error { return nil }

// Disconnect ends a session from either side.
type Disconnect struct {
	HideDisconnectScreen bool
	Message              string
}

func (p *Disconnect) ID() uint32 { return IDDisconnect }

func (p *Disconnect) Marshal(w *binary.Writer) {
	w.WriteBool(p.HideDisconnectScreen)
	if !p.HideDisconnectScreen {
		w.WriteString(p.Message)
	}
}

func (p *Disconnect) Unmarshal(r *binary.Reader) error {
	var err error
	if p.HideDisconnectScreen, err = r.ReadBool(); err != nil {
		return fmt.Errorf("Disconnect: %w", err)
	}
	if !p.HideDisconnectScreen {
		if p.Message, err = r.ReadString(); err != nil {
			return fmt.Errorf("Disconnect: message: %w", err)
		}
	}
	return nil
}

// ResourcePackEntry names one pack in a ResourcePacksInfo or
// ResourcePackStack listing.
type ResourcePackEntry struct {
	UUID        uuid.UUID
	Version     string
	Size        uint64
	ContentKey  string
	SubPackName string
}

func writeResourcePackEntry(w *binary.Writer, e ResourcePackEntry) {
	w.WriteString(e.UUID.String())
	w.WriteString(e.Version)
	w.WriteUint64LE(e.Size)
	w.WriteString(e.ContentKey)
	w.WriteString(e.SubPackName)
}

func readResourcePackEntry(r *binary.Reader) (ResourcePackEntry, error) {
	var e ResourcePackEntry
	var err error
	idStr, err := r.ReadString()
	if err != nil {
		return e, err
	}
	if e.UUID, err = uuid.Parse(idStr); err != nil {
		return e, fmt.Errorf("resource pack entry: uuid: %w", err)
	}
	if e.Version, err = r.ReadString(); err != nil {
		return e, err
	}
	if e.Size, err = r.ReadUint64LE(); err != nil {
		return e, err
	}
	if e.ContentKey, err = r.ReadString(); err != nil {
		return e, err
	}
	if e.SubPackName, err = r.ReadString(); err != nil {
		return e, err
	}
	return e, nil
}

// ResourcePacksInfo announces available packs; the client pulls any it is
// missing.
type ResourcePacksInfo struct {
	MustAccept          bool
	HasScripts          bool
	TexturePackRequired bool
	BehaviorPacks       []ResourcePackEntry
	TexturePacks        []ResourcePackEntry
}

func (p *ResourcePacksInfo) ID() uint32 { return IDResourcePacksInfo }

func (p *ResourcePacksInfo) Marshal(w *binary.Writer) {
	w.WriteBool(p.MustAccept)
	w.WriteBool(p.HasScripts)
	w.WriteBool(p.TexturePackRequired)
	w.WriteUint16LE(uint16(len(p.BehaviorPacks)))
	for _, e := range p.BehaviorPacks {
		writeResourcePackEntry(w, e)
	}
	w.WriteUint16LE(uint16(len(p.TexturePacks)))
	for _, e := range p.TexturePacks {
		writeResourcePackEntry(w, e)
	}
}

func (p *ResourcePacksInfo) Unmarshal(r *binary.Reader) error {
	var err error
	if p.MustAccept, err = r.ReadBool(); err != nil {
		return fmt.Errorf("ResourcePacksInfo: %w", err)
	}
	if p.HasScripts, err = r.ReadBool(); err != nil {
		return fmt.Errorf("ResourcePacksInfo: %w", err)
	}
	if p.TexturePackRequired, err = r.ReadBool(); err != nil {
		return fmt.Errorf("ResourcePacksInfo: %w", err)
	}
	behaviorCount, err := r.ReadUint16LE()
	if err != nil {
		return fmt.Errorf("ResourcePacksInfo: behavior count: %w", err)
	}
	for i := 0; i < int(behaviorCount); i++ {
		e, err := readResourcePackEntry(r)
		if err != nil {
			return fmt.Errorf("ResourcePacksInfo: behavior pack %d: %w", i, err)
		}
		p.BehaviorPacks = append(p.BehaviorPacks, e)
	}
	textureCount, err := r.ReadUint16LE()
	if err != nil {
		return fmt.Errorf("ResourcePacksInfo: texture count: %w", err)
	}
	for i := 0; i < int(textureCount); i++ {
		e, err := readResourcePackEntry(r)
		if err != nil {
			return fmt.Errorf("ResourcePacksInfo: texture pack %d: %w", i, err)
		}
		p.TexturePacks = append(p.TexturePacks, e)
	}
	return nil
}

// ResourcePackStack orders the packs the client must apply, sent after the
// client has fetched everything ResourcePacksInfo named.
type ResourcePackStack struct {
	MustAccept    bool
	BehaviorPacks []ResourcePackEntry
	TexturePacks  []ResourcePackEntry
	GameVersion   string
}

func (p *ResourcePackStack) ID() uint32 { return IDResourcePackStack }

func (p *ResourcePackStack) Marshal(w *binary.Writer) {
	w.WriteBool(p.MustAccept)
	w.WriteVarint32(uint32(len(p.BehaviorPacks)))
	for _, e := range p.BehaviorPacks {
		writeResourcePackEntry(w, e)
	}
	w.WriteVarint32(uint32(len(p.TexturePacks)))
	for _, e := range p.TexturePacks {
		writeResourcePackEntry(w, e)
	}
	w.WriteString(p.GameVersion)
}

func (p *ResourcePackStack) Unmarshal(r *binary.Reader) error {
	var err error
	if p.MustAccept, err = r.ReadBool(); err != nil {
		return fmt.Errorf("ResourcePackStack: %w", err)
	}
	behaviorCount, err := r.ReadVarint32()
	if err != nil {
		return fmt.Errorf("ResourcePackStack: behavior count: %w", err)
	}
	for i := 0; i < int(behaviorCount); i++ {
		e, err := readResourcePackEntry(r)
		if err != nil {
			return fmt.Errorf("ResourcePackStack: behavior pack %d: %w", i, err)
		}
		p.BehaviorPacks = append(p.BehaviorPacks, e)
	}
	textureCount, err := r.ReadVarint32()
	if err != nil {
		return fmt.Errorf("ResourcePackStack: texture count: %w", err)
	}
	for i := 0; i < int(textureCount); i++ {
		e, err := readResourcePackEntry(r)
		if err != nil {
			return fmt.Errorf("ResourcePackStack: texture pack %d: %w", i, err)
		}
		p.TexturePacks = append(p.TexturePacks, e)
	}
	if p.GameVersion, err = r.ReadString(); err != nil {
		return fmt.Errorf("ResourcePackStack: game version: %w", err)
	}
	return nil
}

// ResourcePackClientResponse reports pack-fetch progress or the final
// "completed" status that triggers the StartGame transition.
type ResourcePackClientResponse struct {
	Status  byte
	PackIDs []string
}

func (p *ResourcePackClientResponse) ID() uint32 { return IDResourcePackClientResponse }

func (p *ResourcePackClientResponse) Marshal(w *binary.Writer) {
	w.WriteByte(p.Status)
	w.WriteUint16LE(uint16(len(p.PackIDs)))
	for _, id := range p.PackIDs {
		w.WriteString(id)
	}
}

func (p *ResourcePackClientResponse) Unmarshal(r *binary.Reader) error {
	var err error
	if p.Status, err = r.ReadByte(); err != nil {
		return fmt.Errorf("ResourcePackClientResponse: %w", err)
	}
	count, err := r.ReadUint16LE()
	if err != nil {
		return fmt.Errorf("ResourcePackClientResponse: count: %w", err)
	}
	for i := 0; i < int(count); i++ {
		id, err := r.ReadString()
		if err != nil {
			return fmt.Errorf("ResourcePackClientResponse: pack %d: %w", i, err)
		}
		p.PackIDs = append(p.PackIDs, id)
	}
	return nil
}

// SetLocalPlayerAsInitialized is the client's readiness acknowledgment
// that drives the ChunkSync → InGame transition.
type SetLocalPlayerAsInitialized struct {
	RuntimeEntityID uint64
}

func (p *SetLocalPlayerAsInitialized) ID() uint32 { return IDSetLocalPlayerAsInitialized }

func (p *SetLocalPlayerAsInitialized) Marshal(w *binary.Writer) {
	w.WriteVarint64(p.RuntimeEntityID)
}

func (p *SetLocalPlayerAsInitialized) Unmarshal(r *binary.Reader) error {
	v, err := r.ReadVarint64()
	if err != nil {
		return fmt.Errorf("SetLocalPlayerAsInitialized: %w", err)
	}
	p.RuntimeEntityID = v
	return nil
}
