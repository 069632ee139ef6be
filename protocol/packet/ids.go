package packet

// Packet ids, in wire order. Values match the public Bedrock protocol so a
// vanilla client can be pointed at this server without a translation layer.
const (
	IDLogin                       uint32 = 1
	IDPlayStatus                  uint32 = 2
	IDServerToClientHandshake     uint32 = 3
	IDClientToServerHandshake     uint32 = 4
	IDDisconnect                  uint32 = 5
	IDResourcePacksInfo           uint32 = 6
	IDResourcePackStack           uint32 = 7
	IDResourcePackClientResponse  uint32 = 8
	IDText                        uint32 = 9
	IDStartGame                   uint32 = 11
	IDLevelChunk                  uint32 = 58
	IDMoveEntityAbsolute          uint32 = 57
	IDMoveEntityDelta             uint32 = 111
	IDSetEntityMotion             uint32 = 33
	IDUpdateAttributes            uint32 = 29
	IDSetLocalPlayerAsInitialized uint32 = 113
	IDNetworkSettings             uint32 = 143
	IDRequestNetworkSettings      uint32 = 193
)
