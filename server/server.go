// Package server wires the transport, session and protocol-codec layers
// into one running process: a UDP listener, a peer registry, a 20Hz game
// tick, and a bounded worker pool for the chunk-column encoding that
// spawn-chunk delivery would otherwise do inline.
package server

import (
	"crypto/ecdsa"
	"fmt"
	"math/rand"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/bedrockd/bedrockd/internal/config"
	"github.com/bedrockd/bedrockd/internal/gamelayer"
	"github.com/bedrockd/bedrockd/internal/logging"
	"github.com/bedrockd/bedrockd/raknet"
	"github.com/bedrockd/bedrockd/session"
	"github.com/bedrockd/bedrockd/world/chunk"
)

// TickInterval is the server's fixed simulation rate.
const TickInterval = 50 * time.Millisecond

const cleanupInterval = 5 * time.Second

// Server owns the UDP socket, every connected peer/session pair, and the
// goroutines driving them.
type Server struct {
	Config config.Config

	conn *net.UDPConn
	guid uint64

	mu       sync.RWMutex
	sessions map[string]*session.Session
	running  bool

	// RootKey, when non-nil, requires the login chain to be signed by
	// Mojang's root key (online mode). Left nil, any self-consistent
	// chain is accepted (offline mode), matching VerifyLoginChain's
	// documented fallback.
	RootKey *ecdsa.PublicKey

	ChunkSource chunk.Source
	Players     *gamelayer.Registry

	workers *workerPool

	startedAt time.Time
}

// New builds a Server from cfg. It does not bind a socket until Start is
// called.
func New(cfg config.Config) *Server {
	return &Server{
		Config:   cfg,
		guid:     rand.Uint64(),
		sessions: make(map[string]*session.Session),
		Players:  gamelayer.NewRegistry(),
		workers:  newWorkerPool(runtime.NumCPU()),
	}
}

// Start binds the UDP socket and blocks, serving packets, until Stop is
// called or the socket errors out.
func (s *Server) Start() error {
	addr := &net.UDPAddr{IP: net.ParseIP(s.Config.Host), Port: s.Config.Port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("server: bind udp socket: %w", err)
	}
	s.conn = conn
	s.startedAt = time.Now()

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.workers.start()

	logging.Info("listening on %s:%d (guid %d)", s.Config.Host, s.Config.Port, s.guid)

	go s.tickLoop()
	go s.cleanupLoop()

	return s.listen()
}

// Stop halts the accept loop and releases the socket. Safe to call once.
func (s *Server) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
	}
	s.workers.stop()
	logging.Info("server stopped")
}

func (s *Server) isRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// listen reads datagrams off the socket and routes each to the offline
// handshake or to an established peer. Datagrams are handled inline on
// this goroutine, one at a time, rather than dispatched to a goroutine
// per packet, so per-peer state never races across goroutines for the
// same peer.
func (s *Server) listen() error {
	buf := make([]byte, raknet.MaxMTU)
	for s.isRunning() {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.isRunning() {
				logging.Warn("read error: %v", err)
			}
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		s.handlePacket(data, addr)
	}
	return nil
}

// handlePacket routes one inbound datagram by its leading id byte: offline
// handshake ids are handled without any session state, everything else is
// handed to the addr's established peer/session pair.
func (s *Server) handlePacket(data []byte, addr *net.UDPAddr) {
	if len(data) == 0 {
		return
	}

	if isOfflineID(data[0]) {
		s.handleOffline(data, addr)
		return
	}

	sess, ok := s.sessionFor(addr)
	if !ok {
		logging.Debug("datagram from unknown peer %s, dropping", addr)
		return
	}

	now := time.Now()
	switch {
	case data[0] == raknet.IDAck:
		if err := sess.Peer.HandleAck(data, now); err != nil {
			logging.Warn("ack decode from %s: %v", addr, err)
		}
	case data[0] == raknet.IDNack:
		if err := sess.Peer.HandleNack(data); err != nil {
			logging.Warn("nack decode from %s: %v", addr, err)
		}
	default:
		payloads, err := sess.Peer.HandleDatagram(data, now)
		if err != nil {
			logging.Warn("datagram decode from %s: %v", addr, err)
			return
		}
		for _, payload := range payloads {
			s.handlePeerPayload(sess, payload)
		}
	}
}

func isOfflineID(id byte) bool {
	switch id {
	case raknet.IDUnconnectedPing, raknet.IDOpenConnectionRequest1, raknet.IDOpenConnectionRequest2:
		return true
	default:
		return false
	}
}

// handlePeerPayload dispatches one reassembled reliability-layer payload:
// either a connected-handshake control packet (fixed ids below
// raknet.datagramFlag) or a game-packet batch wrapped in the protocol
// envelope byte.
func (s *Server) handlePeerPayload(sess *session.Session, payload []byte) {
	if len(payload) == 0 {
		return
	}
	switch payload[0] {
	case raknet.IDConnectionRequest:
		s.handleConnectionRequest(sess, payload)
	case raknet.IDNewIncomingConnection:
		// Connected handshake complete; nothing further to acknowledge.
	case raknet.IDDisconnectNotification:
		s.disconnect(sess, "client disconnected")
	default:
		s.handleGameBatch(sess, payload)
	}
}

// sessionFor looks up the session already established for addr.
func (s *Server) sessionFor(addr *net.UDPAddr) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[addr.String()]
	return sess, ok
}

func (s *Server) addSession(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Addr.String()] = sess
}

func (s *Server) removeSession(addr *net.UDPAddr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, addr.String())
}

func (s *Server) disconnect(sess *session.Session, reason string) {
	sess.Machine.Disconnect()
	s.removeSession(sess.Addr)
	if sess.Identity != nil {
		s.Players.LeaveByXUID(sess.Identity.XUID)
	}
	logging.Info("%s disconnected: %s", sess.Addr, reason)
}

// tickLoop drives the fixed-rate simulation step: flushing every peer's
// outbound queue and, eventually, the game-layer's per-tick broadcasts.
func (s *Server) tickLoop() {
	ticker := time.NewTicker(s.tickInterval())
	defer ticker.Stop()
	for s.isRunning() {
		<-ticker.C
		s.tick(time.Now())
	}
}

// tickInterval derives the simulation period from the configured tick
// rate, falling back to TickInterval's 20Hz default if unset.
func (s *Server) tickInterval() time.Duration {
	if s.Config.TickRate <= 0 {
		return TickInterval
	}
	return time.Second / time.Duration(s.Config.TickRate)
}

func (s *Server) tick(now time.Time) {
	s.mu.RLock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess := sess
		if sess.Peer.NeedsKeepalive(now) {
			s.sendRaw(sess, raknet.EncodeUnconnectedPing(uint64(now.UnixMilli()), s.guid), raknet.Unreliable, 0)
			sess.Peer.LastPingTime = now
		}
		sess.Peer.ExpireFragments(now)
		for _, datagram := range sess.Peer.Flush(now) {
			s.writeUDP(datagram, sess.Addr)
		}
	}
}

// cleanupLoop drops peers that have gone silent past SessionTimeout.
func (s *Server) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for s.isRunning() {
		<-ticker.C
		now := time.Now()
		s.mu.RLock()
		var stale []*session.Session
		for _, sess := range s.sessions {
			if sess.Peer.TimedOut(now) {
				stale = append(stale, sess)
			}
		}
		s.mu.RUnlock()
		for _, sess := range stale {
			s.disconnect(sess, "timed out")
		}
	}
}

func (s *Server) writeUDP(data []byte, addr *net.UDPAddr) {
	if _, err := s.conn.WriteToUDP(data, addr); err != nil {
		logging.Warn("write to %s: %v", addr, err)
	}
}

// sendRaw queues payload on sess's peer for the next Flush.
func (s *Server) sendRaw(sess *session.Session, payload []byte, reliability raknet.Reliability, channel uint8) {
	sess.Peer.Send(payload, reliability, channel)
}

// Uptime reports how long Start has been running.
func (s *Server) Uptime() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

// PlayerCount reports the number of sessions that have reached InGame.
func (s *Server) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.Machine.Current() == session.InGame {
			n++
		}
	}
	return n
}
