package session

import (
	"net"
	"reflect"
	"time"

	"github.com/bedrockd/bedrockd/protocol/compress"
	"github.com/bedrockd/bedrockd/protocol/crypto"
	"github.com/bedrockd/bedrockd/protocol/packet"
	"github.com/bedrockd/bedrockd/raknet"
)

// Identity is the peer identity extracted from the login chain, attached
// to the session once Login completes.
type Identity struct {
	XUID        string
	DisplayName string
}

// CipherState holds the two independently evolving AES-CFB8 directions and
// their send/receive integrity-tag counters, established once the
// encryption handshake completes.
type CipherState struct {
	Encrypt *crypto.CFB8Cipher
	Decrypt *crypto.CFB8Cipher

	SendCounter uint64
	RecvCounter uint64

	SecretKey []byte
}

// Session is one connected peer: its RakNet transport, state machine,
// negotiated parameters, and identity. Compression and cipher fields stay
// nil until negotiated.
type Session struct {
	Peer *raknet.Peer
	Addr *net.UDPAddr
	GUID uint64

	Machine *Machine

	CompressionAlgo      compress.Algorithm
	CompressionThreshold int
	compressionCodec     compress.Codec

	Cipher *CipherState

	Identity *Identity

	CreatedAt time.Time
}

// New creates a Session for a peer whose RakNet transport has just
// completed the offline handshake.
func New(peer *raknet.Peer, now time.Time) *Session {
	return &Session{
		Peer:      peer,
		Addr:      peer.Addr,
		GUID:      peer.GUID,
		Machine:   NewMachine(),
		CreatedAt: now,
	}
}

// NegotiateCompression records the algorithm and threshold chosen during
// NetworkSettings, preparing the per-direction codec used by every batch
// from this point on.
func (s *Session) NegotiateCompression(algo compress.Algorithm, threshold int) error {
	codec, err := compress.ForAlgorithm(algo)
	if err != nil {
		return err
	}
	s.CompressionAlgo = algo
	s.CompressionThreshold = threshold
	s.compressionCodec = codec
	return nil
}

// CompressionCodec returns the codec negotiated for this session, or nil
// if NetworkSettings has not yet run.
func (s *Session) CompressionCodec() compress.Codec { return s.compressionCodec }

// EstablishCipher activates encryption for all subsequent batches, during
// the Login → Encryption transition.
func (s *Session) EstablishCipher(encrypt, decrypt *crypto.CFB8Cipher, secretKey []byte) {
	s.Cipher = &CipherState{Encrypt: encrypt, Decrypt: decrypt, SecretKey: secretKey}
}

// Encrypted reports whether the encryption handshake has completed.
func (s *Session) Encrypted() bool { return s.Cipher != nil }

// PacketCipher adapts the session's cipher state into the packet codec
// pipeline's Cipher interface, or returns nil before encryption is active.
func (s *Session) PacketCipher() packet.Cipher {
	if s.Cipher == nil {
		return nil
	}
	return packet.NewSessionCipher(s.Cipher.Encrypt, s.Cipher.Decrypt, s.Cipher.SecretKey, &s.Cipher.SendCounter, &s.Cipher.RecvCounter)
}

// Droppable reports whether a packet variant named kind may be silently
// discarded under back-pressure instead of blocking the broadcast.
func Droppable(kind string) bool {
	switch kind {
	case "MoveEntityDelta", "SetEntityMotion", "UpdateAttributes":
		return true
	default:
		return false
	}
}

// DroppablePacket reports whether p's concrete variant is droppable, by
// its type name (e.g. "*packet.MoveEntityDelta" -> "MoveEntityDelta").
func DroppablePacket(p packet.Packet) bool {
	t := reflect.TypeOf(p)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return false
	}
	return Droppable(t.Name())
}
