package server

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/bedrockd/bedrockd/internal/logging"
	"github.com/bedrockd/bedrockd/protocol/compress"
	"github.com/bedrockd/bedrockd/protocol/crypto"
	"github.com/bedrockd/bedrockd/protocol/packet"
	"github.com/bedrockd/bedrockd/raknet"
	"github.com/bedrockd/bedrockd/session"
)

// handleOffline answers the three pre-session handshake packets:
// unconnected ping, and the two open-connection request/reply pairs that
// negotiate MTU and create the peer.
func (s *Server) handleOffline(data []byte, addr *net.UDPAddr) {
	switch data[0] {
	case raknet.IDUnconnectedPing:
		ping, err := raknet.DecodeUnconnectedPing(data)
		if err != nil {
			logging.Debug("bad unconnected ping from %s: %v", addr, err)
			return
		}
		s.writeUDP(raknet.EncodeUnconnectedPong(ping.Timestamp, s.guid, s.motd()), addr)

	case raknet.IDOpenConnectionRequest1:
		_, mtu, err := raknet.DecodeOpenConnectionRequest1(data)
		if err != nil {
			logging.Debug("bad open-connection-request-1 from %s: %v", addr, err)
			return
		}
		negotiated := mtu
		if negotiated > raknet.MaxMTU {
			negotiated = raknet.MaxMTU
		}
		s.writeUDP(raknet.EncodeOpenConnectionReply1(s.guid, uint16(negotiated)), addr)

	case raknet.IDOpenConnectionRequest2:
		req, err := raknet.DecodeOpenConnectionRequest2(data)
		if err != nil {
			logging.Debug("bad open-connection-request-2 from %s: %v", addr, err)
			return
		}
		s.writeUDP(raknet.EncodeOpenConnectionReply2(s.guid, addr, req.MTU), addr)

		peer := raknet.NewPeer(addr, req.MTU, time.Now())
		peer.GUID = req.ClientGUID
		sess := session.New(peer, time.Now())
		s.addSession(sess)
		logging.Info("peer connecting from %s (guid %d, mtu %d)", addr, req.ClientGUID, req.MTU)
	}
}

// motd builds the status line returned by an unconnected pong from the
// server's current configuration and live player count.
func (s *Server) motd() raknet.MOTD {
	return raknet.MOTD{
		DisplayName:     s.Config.ServerName,
		ProtocolVersion: int(s.Config.ProtocolVersion),
		GameVersion:     "1.21.50",
		CurrentPlayers:  s.PlayerCount(),
		MaxPlayers:      s.Config.MaxPlayers,
		ServerGUID:      s.guid,
		SecondaryName:   s.Config.MOTD,
		GamemodeLabel:   s.Config.Gamemode,
		GamemodeNumeric: 1,
		IPv4Port:        uint16(s.Config.Port),
		IPv6Port:        uint16(s.Config.Port),
	}
}

// handleConnectionRequest completes the connected handshake and advances
// the session past OfflineHandshake.
func (s *Server) handleConnectionRequest(sess *session.Session, payload []byte) {
	req, err := raknet.DecodeConnectionRequest(payload)
	if err != nil {
		logging.Warn("bad connection request from %s: %v", sess.Addr, err)
		return
	}
	now := time.Now()
	accepted := raknet.EncodeConnectionRequestAccepted(sess.Addr, req.Timestamp, uint64(now.UnixMilli()))
	s.sendRaw(sess, accepted, raknet.Reliable, 0)

	if err := sess.Machine.Advance(session.ConnectedHandshake); err != nil {
		logging.Warn("%s: %v", sess.Addr, err)
	}
}

// handleGameBatch decodes a game-packet envelope riding the reliable-
// ordered channel and dispatches each entry by the session's current
// state.
func (s *Server) handleGameBatch(sess *session.Session, payload []byte) {
	codec := sess.CompressionCodec()
	if codec == nil {
		codec = noCompressionCodec()
	}
	entries, err := packet.DecodePipeline(payload, codec, sess.PacketCipher())
	if err != nil {
		logging.Warn("%s: decode game batch: %v", sess.Addr, err)
		return
	}
	for _, entry := range entries {
		if entry.Packet == nil {
			logging.Debug("%s: unrecognized packet id %d (%d bytes), ignoring", sess.Addr, entry.RawID, len(entry.RawData))
			continue
		}
		s.dispatch(sess, entry.Packet)
	}
}

func (s *Server) dispatch(sess *session.Session, p packet.Packet) {
	switch pk := p.(type) {
	case *packet.RequestNetworkSettings:
		s.handleRequestNetworkSettings(sess, pk)
	case *packet.Login:
		s.handleLogin(sess, pk)
	case *packet.ClientToServerHandshake:
		s.handleClientToServerHandshake(sess)
	case *packet.ResourcePackClientResponse:
		s.handleResourcePackClientResponse(sess, pk)
	case *packet.SetLocalPlayerAsInitialized:
		s.handleSetLocalPlayerAsInitialized(sess)
	case *packet.Text:
		s.handleText(sess, pk)
	default:
		logging.Debug("%s: unhandled packet %T in state %s", sess.Addr, pk, sess.Machine.Current())
	}
}

// sendPackets marshals pkts through the session's negotiated compression
// and cipher and queues the result on the reliable-ordered channel. If the
// peer is back-pressured (its unacked-frame window is saturated), any
// droppable packet variants are shed instead of queued, so a slow client
// falls behind on non-critical updates rather than stalling critical
// traffic behind them. If nothing is left to send, the call is a no-op.
func (s *Server) sendPackets(sess *session.Session, pkts ...packet.Packet) {
	if sess.Peer.BackPressured() {
		kept := pkts[:0]
		for _, p := range pkts {
			if session.DroppablePacket(p) {
				logging.Debug("%s: dropping %T, peer back-pressured", sess.Addr, p)
				continue
			}
			kept = append(kept, p)
		}
		pkts = kept
	}
	if len(pkts) == 0 {
		return
	}
	encoded, err := packet.EncodePipeline(pkts, sess.CompressionCodec(), sess.CompressionThreshold, sess.PacketCipher())
	if err != nil {
		logging.Warn("%s: encode batch: %v", sess.Addr, err)
		return
	}
	s.sendRaw(sess, encoded, raknet.ReliableOrdered, 0)
}

func (s *Server) handleRequestNetworkSettings(sess *session.Session, p *packet.RequestNetworkSettings) {
	if err := sess.Machine.RequireState(session.ConnectedHandshake, "RequestNetworkSettings"); err != nil {
		logging.Warn("%v", err)
		return
	}
	if p.ClientProtocolVersion != s.Config.ProtocolVersion {
		// Refuse mismatched protocol versions with a play-status
		// login-failed packet rather than silently dropping the client.
		status := packet.PlayStatusLoginFailedClient
		if p.ClientProtocolVersion > s.Config.ProtocolVersion {
			status = packet.PlayStatusLoginFailedServer
		}
		s.sendUncompressed(sess, &packet.PlayStatus{Status: status})
		s.disconnect(sess, "protocol version mismatch")
		return
	}

	algo, err := algorithmFor(s.Config.CompressionAlgorithm)
	if err != nil {
		logging.Warn("%s: %v", sess.Addr, err)
		algo = compress.Deflate
	}
	if err := sess.NegotiateCompression(algo, s.Config.CompressionThreshold); err != nil {
		logging.Warn("%s: negotiate compression: %v", sess.Addr, err)
		return
	}

	// NetworkSettings itself is sent uncompressed/unencrypted — it is the
	// packet that tells the client which compression to expect from now on.
	s.sendUncompressed(sess, &packet.NetworkSettings{
		CompressionThreshold: uint16(s.Config.CompressionThreshold),
		CompressionAlgorithm: uint16(algo),
	})

	if err := sess.Machine.Advance(session.NetworkSettings); err != nil {
		logging.Warn("%v", err)
	}
}

// sendUncompressed marshals a single packet through the envelope with
// whatever compression has already been negotiated (none before
// NetworkSettings completes) but never encryption — used for every packet
// up through the handshake JWT, since the client does not start decrypting
// until it has sent its own ClientToServerHandshake.
func (s *Server) sendUncompressed(sess *session.Session, p packet.Packet) {
	codec := sess.CompressionCodec()
	if codec == nil {
		codec = noCompressionCodec()
	}
	encoded, err := packet.EncodePipeline([]packet.Packet{p}, codec, sess.CompressionThreshold, nil)
	if err != nil {
		logging.Warn("%s: encode %T: %v", sess.Addr, p, err)
		return
	}
	s.sendRaw(sess, encoded, raknet.ReliableOrdered, 0)
}

func algorithmFor(name string) (compress.Algorithm, error) {
	switch name {
	case "deflate", "zlib", "":
		return compress.Deflate, nil
	case "snappy":
		return compress.Snappy, nil
	case "none":
		return compress.None, nil
	default:
		return compress.None, fmt.Errorf("server: unknown compression algorithm %q", name)
	}
}

// loginConnectionRequest mirrors the JSON body carried by Login's
// ConnectionRequest field: a chain of JWTs proving identity, plus a
// separately-signed client-data token this core does not need to trust.
type loginConnectionRequest struct {
	Chain []string `json:"chain"`
}

func parseLoginChain(connectionRequest []byte) ([]string, error) {
	var req loginConnectionRequest
	if err := json.Unmarshal(connectionRequest, &req); err != nil {
		return nil, fmt.Errorf("server: parse connection request: %w", err)
	}
	if len(req.Chain) == 0 {
		return nil, fmt.Errorf("server: connection request carries an empty chain")
	}
	return req.Chain, nil
}

func (s *Server) handleLogin(sess *session.Session, p *packet.Login) {
	if err := sess.Machine.RequireState(session.NetworkSettings, "Login"); err != nil {
		logging.Warn("%v", err)
		return
	}

	chain, err := parseLoginChain(p.ConnectionRequest)
	if err != nil {
		s.sendUncompressed(sess, &packet.PlayStatus{Status: packet.PlayStatusLoginFailedClient})
		s.disconnect(sess, fmt.Sprintf("malformed login chain: %v", err))
		return
	}

	identity, err := crypto.VerifyLoginChain(chain, s.RootKey)
	if err != nil {
		s.sendUncompressed(sess, &packet.PlayStatus{Status: packet.PlayStatusLoginFailedInvalid})
		s.disconnect(sess, fmt.Sprintf("login chain rejected: %v", err))
		return
	}
	sess.Identity = &session.Identity{XUID: identity.XUID, DisplayName: identity.DisplayName}

	if err := sess.Machine.Advance(session.Login); err != nil {
		logging.Warn("%v", err)
		return
	}

	if err := s.beginEncryption(sess, identity); err != nil {
		logging.Warn("%s: begin encryption: %v", sess.Addr, err)
		s.disconnect(sess, "encryption setup failed")
		return
	}
	if err := sess.Machine.Advance(session.Encryption); err != nil {
		logging.Warn("%v", err)
	}
}

// beginEncryption runs the server side of the ECDH handshake: generate an
// ephemeral ES384 keypair, derive the shared secret against the client's
// login-chain public key, and send the signed handshake JWT carrying the
// server's public key and a random salt. The two CFB8 streams are seeded
// identically but evolve independently from this point on.
func (s *Server) beginEncryption(sess *session.Session, identity *crypto.Identity) error {
	serverPriv, err := crypto.GenerateHandshakeKeyPair()
	if err != nil {
		return err
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("server: generate handshake salt: %w", err)
	}

	clientECDH, err := identity.PublicKey.ECDH()
	if err != nil {
		return fmt.Errorf("server: client public key is not ECDH-capable: %w", err)
	}
	serverECDH, err := serverPriv.ECDH()
	if err != nil {
		return fmt.Errorf("server: handshake key is not ECDH-capable: %w", err)
	}
	shared, err := crypto.SharedSecret(serverECDH, clientECDH)
	if err != nil {
		return fmt.Errorf("server: compute shared secret: %w", err)
	}
	secretKey := crypto.DeriveSecretKey(salt, shared)
	iv := secretKey[:16]

	encrypt, err := crypto.NewCFB8Cipher(secretKey, iv)
	if err != nil {
		return err
	}
	decrypt, err := crypto.NewCFB8Cipher(secretKey, iv)
	if err != nil {
		return err
	}
	sess.EstablishCipher(encrypt, decrypt, secretKey)

	token, err := crypto.SignHandshakeToken(serverPriv, salt)
	if err != nil {
		return err
	}
	s.sendUncompressed(sess, &packet.ServerToClientHandshake{JWT: token})
	return nil
}

// resourcePackResponseCompleted is the status value the client sends once
// every named pack has been fetched and applied.
const resourcePackResponseCompleted byte = 3

func (s *Server) handleClientToServerHandshake(sess *session.Session) {
	if err := sess.Machine.RequireState(session.Encryption, "ClientToServerHandshake"); err != nil {
		logging.Warn("%v", err)
		return
	}
	if err := sess.Machine.Advance(session.ResourcePacks); err != nil {
		logging.Warn("%v", err)
		return
	}
	s.sendPackets(sess, &packet.ResourcePacksInfo{})
}

func (s *Server) handleResourcePackClientResponse(sess *session.Session, p *packet.ResourcePackClientResponse) {
	if err := sess.Machine.RequireState(session.ResourcePacks, "ResourcePackClientResponse"); err != nil {
		logging.Warn("%v", err)
		return
	}
	if p.Status != resourcePackResponseCompleted {
		// The client is still negotiating pack downloads; re-send the
		// stack and wait for the next response.
		s.sendPackets(sess, &packet.ResourcePackStack{GameVersion: "1.21.50"})
		return
	}
	if err := sess.Machine.Advance(session.StartGame); err != nil {
		logging.Warn("%v", err)
		return
	}
	s.sendStartGame(sess)
	if err := sess.Machine.Advance(session.ChunkSync); err != nil {
		logging.Warn("%v", err)
		return
	}
	s.deliverSpawnChunks(sess)
}

func (s *Server) handleSetLocalPlayerAsInitialized(sess *session.Session) {
	if err := sess.Machine.RequireState(session.ChunkSync, "SetLocalPlayerAsInitialized"); err != nil {
		logging.Warn("%v", err)
		return
	}
	if err := sess.Machine.Advance(session.InGame); err != nil {
		logging.Warn("%v", err)
		return
	}
	xuid := ""
	if sess.Identity != nil {
		xuid = sess.Identity.XUID
	}
	s.Players.Join(xuid, displayNameOf(sess))
	logging.Success("%s joined as %s", sess.Addr, displayNameOf(sess))
}

func displayNameOf(sess *session.Session) string {
	if sess.Identity != nil && sess.Identity.DisplayName != "" {
		return sess.Identity.DisplayName
	}
	return sess.Addr.String()
}

// handleText relays chat to every other session currently in-game; a
// malicious or buggy client attempting chat before InGame is ignored
// rather than trusted.
func (s *Server) handleText(sess *session.Session, p *packet.Text) {
	if sess.Machine.Current() != session.InGame || p.TextType != packet.TextTypeChat {
		return
	}
	msg := &packet.Text{
		TextType:   packet.TextTypeChat,
		SourceName: displayNameOf(sess),
		Message:    p.Message,
	}
	s.broadcast(msg, sess)
}

// broadcast sends p to every in-game session except exclude (pass nil to
// include everyone). Callers reaching this through the codec pipeline are
// already running on the tick/read path, not the worker pool.
func (s *Server) broadcast(p packet.Packet, exclude *session.Session) {
	s.mu.RLock()
	targets := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess == exclude || sess.Machine.Current() != session.InGame {
			continue
		}
		targets = append(targets, sess)
	}
	s.mu.RUnlock()
	for _, target := range targets {
		s.sendPackets(target, p)
	}
}
