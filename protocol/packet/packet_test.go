package packet

import (
	"testing"

	"github.com/google/uuid"

	"github.com/bedrockd/bedrockd/protocol/binary"
	"github.com/bedrockd/bedrockd/protocol/compress"
	"github.com/bedrockd/bedrockd/protocol/crypto"
	"github.com/bedrockd/bedrockd/protocol/nbt"
)

// roundTrip marshals p, then unmarshals into a freshly allocated instance
// via the registry, asserting Unmarshal(Marshal(p)) == p for every packet
// variant.
func roundTrip(t *testing.T, p Packet) Packet {
	t.Helper()
	w := binary.NewWriter()
	p.Marshal(w)

	out, ok := New(p.ID())
	if !ok {
		t.Fatalf("packet id %d not registered", p.ID())
	}
	if err := out.Unmarshal(binary.NewReader(w.Bytes())); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return out
}

func TestRequestNetworkSettingsRoundTrip(t *testing.T) {
	in := &RequestNetworkSettings{ClientProtocolVersion: 686}
	out := roundTrip(t, in).(*RequestNetworkSettings)
	if *out != *in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestNetworkSettingsRoundTrip(t *testing.T) {
	in := &NetworkSettings{CompressionThreshold: 512, CompressionAlgorithm: uint16(compress.Deflate)}
	out := roundTrip(t, in).(*NetworkSettings)
	if *out != *in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	in := &Login{ClientProtocolVersion: 686, ConnectionRequest: []byte(`{"chain":[]}`)}
	out := roundTrip(t, in).(*Login)
	if out.ClientProtocolVersion != in.ClientProtocolVersion || string(out.ConnectionRequest) != string(in.ConnectionRequest) {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestPlayStatusRoundTrip(t *testing.T) {
	in := &PlayStatus{Status: PlayStatusLoginFailedClient}
	out := roundTrip(t, in).(*PlayStatus)
	if *out != *in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestDisconnectRoundTrip(t *testing.T) {
	in := &Disconnect{HideDisconnectScreen: false, Message: "kicked for flying"}
	out := roundTrip(t, in).(*Disconnect)
	if *out != *in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestDisconnectHiddenScreenOmitsMessage(t *testing.T) {
	in := &Disconnect{HideDisconnectScreen: true, Message: "unused"}
	out := roundTrip(t, in).(*Disconnect)
	if !out.HideDisconnectScreen || out.Message != "" {
		t.Fatalf("expected empty message with hidden screen, got %+v", out)
	}
}

func TestResourcePacksInfoRoundTrip(t *testing.T) {
	in := &ResourcePacksInfo{
		MustAccept: true,
		BehaviorPacks: []ResourcePackEntry{
			{UUID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Version: "1.0.0", Size: 1024},
		},
		TexturePacks: []ResourcePackEntry{
			{UUID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Version: "2.0.0", Size: 2048, SubPackName: "hd"},
		},
	}
	out := roundTrip(t, in).(*ResourcePacksInfo)
	if len(out.BehaviorPacks) != 1 || out.BehaviorPacks[0] != in.BehaviorPacks[0] {
		t.Fatalf("behavior packs mismatch: %+v", out.BehaviorPacks)
	}
	if len(out.TexturePacks) != 1 || out.TexturePacks[0] != in.TexturePacks[0] {
		t.Fatalf("texture packs mismatch: %+v", out.TexturePacks)
	}
}

func TestResourcePackClientResponseRoundTrip(t *testing.T) {
	in := &ResourcePackClientResponse{Status: 4, PackIDs: []string{"a_1.0.0", "b_2.0.0"}}
	out := roundTrip(t, in).(*ResourcePackClientResponse)
	if out.Status != in.Status || len(out.PackIDs) != 2 || out.PackIDs[1] != "b_2.0.0" {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestSetLocalPlayerAsInitializedRoundTrip(t *testing.T) {
	in := &SetLocalPlayerAsInitialized{RuntimeEntityID: 12345}
	out := roundTrip(t, in).(*SetLocalPlayerAsInitialized)
	if *out != *in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestTextChatRoundTrip(t *testing.T) {
	in := &Text{TextType: TextTypeChat, SourceName: "steve", Message: "hello", XUID: "123"}
	out := roundTrip(t, in).(*Text)
	if out.SourceName != in.SourceName || out.Message != in.Message || out.XUID != in.XUID {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestTextTranslationRoundTrip(t *testing.T) {
	in := &Text{TextType: TextTypeTranslation, Message: "%multiplayer.joined", Parameters: []string{"steve"}}
	out := roundTrip(t, in).(*Text)
	if out.Message != in.Message || len(out.Parameters) != 1 || out.Parameters[0] != "steve" {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestMoveEntityAbsoluteRoundTrip(t *testing.T) {
	in := &MoveEntityAbsolute{
		RuntimeEntityID: 7,
		Position:        binary.Vec3{X: 1, Y: 64, Z: -1},
		Rotation:        binary.Vec3{X: 10, Y: 20, Z: 30},
		OnGround:        true,
	}
	out := roundTrip(t, in).(*MoveEntityAbsolute)
	if out.RuntimeEntityID != in.RuntimeEntityID || out.Position != in.Position || !out.OnGround {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestMoveEntityDeltaRoundTrip(t *testing.T) {
	in := &MoveEntityDelta{RuntimeEntityID: 9, X: 1, Y: 2, Z: 3}
	out := roundTrip(t, in).(*MoveEntityDelta)
	if out.RuntimeEntityID != in.RuntimeEntityID || out.X != in.X || out.Y != in.Y || out.Z != in.Z {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestUpdateAttributesRoundTrip(t *testing.T) {
	in := &UpdateAttributes{
		RuntimeEntityID: 3,
		Attributes:      []Attribute{{Name: "minecraft:health", Min: 0, Max: 20, Current: 20, Default: 20}},
		Tick:            100,
	}
	out := roundTrip(t, in).(*UpdateAttributes)
	if len(out.Attributes) != 1 || out.Attributes[0] != in.Attributes[0] || out.Tick != in.Tick {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestStartGameRoundTrip(t *testing.T) {
	props := nbt.NewCompound().Put("commandsEnabled", int8(1))
	in := &StartGame{
		PlayerUniqueID:              -1,
		PlayerRuntimeID:             1,
		Gamemode:                    0,
		Position:                    binary.Vec3{X: 0, Y: 70, Z: 0},
		Rotation:                    binary.Vec2{X: 0, Y: 90},
		WorldSeed:                   42,
		DimensionID:                 0,
		GeneratorKind:               1,
		SpawnPosition:               binary.BlockPos{X: 0, Y: 70, Z: 0},
		Difficulty:                  2,
		GameRules:                   []GameRule{{Name: "doDaylightCycle", PlayerModifiable: true, Type: GameRuleBool, BoolValue: true}},
		ServerAuthoritativeMovement: 1,
		CurrentTick:                 1000,
		PropertyData:                props,
		BlockNetworkIDsAreHashes:    true,
	}
	out := roundTrip(t, in).(*StartGame)
	if out.PlayerUniqueID != in.PlayerUniqueID || out.WorldSeed != in.WorldSeed {
		t.Fatalf("scalar mismatch: %+v", out)
	}
	if !out.BlockNetworkIDsAreHashes {
		t.Fatal("expected BlockNetworkIDsAreHashes to survive round trip")
	}
	if len(out.GameRules) != 1 || out.GameRules[0].Name != "doDaylightCycle" || !out.GameRules[0].BoolValue {
		t.Fatalf("game rules mismatch: %+v", out.GameRules)
	}
	v, ok := out.PropertyData.Get("commandsEnabled")
	if !ok || v.(int8) != 1 {
		t.Fatalf("property data mismatch: %+v", out.PropertyData)
	}
}

// TestFullPipelineUncompressedUnencrypted exercises batch -> compress
// (below threshold) -> envelope, and its inverse, with no cipher active —
// the state before the Login->Encryption transition.
func TestFullPipelineUncompressedUnencrypted(t *testing.T) {
	packets := []Packet{
		&RequestNetworkSettings{ClientProtocolVersion: 686},
		&PlayStatus{Status: PlayStatusLoginSuccess},
	}
	codec, err := compress.ForAlgorithm(compress.None)
	if err != nil {
		t.Fatalf("ForAlgorithm: %v", err)
	}
	encoded, err := EncodePipeline(packets, codec, 256, nil)
	if err != nil {
		t.Fatalf("EncodePipeline: %v", err)
	}
	if encoded[0] != EnvelopeByte {
		t.Fatalf("expected envelope byte 0x%02x, got 0x%02x", EnvelopeByte, encoded[0])
	}

	decoded, err := DecodePipeline(encoded, codec, nil)
	if err != nil {
		t.Fatalf("DecodePipeline: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(decoded))
	}
	first, ok := decoded[0].Packet.(*RequestNetworkSettings)
	if !ok || first.ClientProtocolVersion != 686 {
		t.Fatalf("first packet mismatch: %+v", decoded[0])
	}
	second, ok := decoded[1].Packet.(*PlayStatus)
	if !ok || second.Status != PlayStatusLoginSuccess {
		t.Fatalf("second packet mismatch: %+v", decoded[1])
	}
}

// TestFullPipelineCompressedEncrypted exercises the complete post-Encryption
// pipeline: deflate compression above threshold, AES-CFB8 with integrity
// tags, and the envelope byte, matched against an independent decode-side
// cipher advancing the same counters in lockstep.
func TestFullPipelineCompressedEncrypted(t *testing.T) {
	secretKey := make([]byte, 32)
	for i := range secretKey {
		secretKey[i] = byte(i)
	}
	iv := make([]byte, 16)
	for i := range iv {
		iv[i] = byte(i + 1)
	}

	sendCipher, err := crypto.NewCFB8Cipher(secretKey, iv)
	if err != nil {
		t.Fatalf("NewCFB8Cipher (send): %v", err)
	}
	recvCipherOnSender, err := crypto.NewCFB8Cipher(secretKey, iv)
	if err != nil {
		t.Fatalf("NewCFB8Cipher: %v", err)
	}
	var senderSendCounter, senderRecvCounter uint64
	senderCipher := NewSessionCipher(sendCipher, recvCipherOnSender, secretKey, &senderSendCounter, &senderRecvCounter)

	decryptOnReceiver, err := crypto.NewCFB8Cipher(secretKey, iv)
	if err != nil {
		t.Fatalf("NewCFB8Cipher: %v", err)
	}
	unusedEncryptOnReceiver, err := crypto.NewCFB8Cipher(secretKey, iv)
	if err != nil {
		t.Fatalf("NewCFB8Cipher: %v", err)
	}
	var receiverSendCounter, receiverRecvCounter uint64
	receiverCipher := NewSessionCipher(unusedEncryptOnReceiver, decryptOnReceiver, secretKey, &receiverSendCounter, &receiverRecvCounter)

	codec, err := compress.ForAlgorithm(compress.Deflate)
	if err != nil {
		t.Fatalf("ForAlgorithm: %v", err)
	}

	packets := []Packet{&Text{TextType: TextTypeSystem, Message: "the compression threshold is crossed by padding this message out well past two hundred and fifty six bytes so the deflate path actually engages during this test run, otherwise it would fall through to the raw none-marker branch and this test would not exercise what it claims to exercise at all"}}

	encoded, err := EncodePipeline(packets, codec, 32, senderCipher)
	if err != nil {
		t.Fatalf("EncodePipeline: %v", err)
	}

	decoded, err := DecodePipeline(encoded, codec, receiverCipher)
	if err != nil {
		t.Fatalf("DecodePipeline: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(decoded))
	}
	text, ok := decoded[0].Packet.(*Text)
	if !ok || text.Message != packets[0].(*Text).Message {
		t.Fatalf("decoded text mismatch: %+v", decoded[0])
	}
}

func TestDecodeBatchUnknownIDIsForwardCompatible(t *testing.T) {
	w := binary.NewWriter()
	w.WriteVarint32(9999)
	w.WriteBytes([]byte("unrecognized payload"))
	entryLen := binary.NewWriter()
	entryLen.WriteByteSlice(w.Bytes())

	decoded, err := DecodeBatch(entryLen.Bytes())
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Packet != nil || decoded[0].RawID != 9999 {
		t.Fatalf("expected one unrecognized entry, got %+v", decoded)
	}
}
