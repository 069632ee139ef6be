package raknet

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

// MOTD is the server status line returned by an unconnected-pong, parsed
// into exactly 12 semicolon-separated fields.
type MOTD struct {
	DisplayName     string
	ProtocolVersion int
	GameVersion     string
	CurrentPlayers  int
	MaxPlayers      int
	ServerGUID      uint64
	SecondaryName   string
	GamemodeLabel   string
	GamemodeNumeric int
	IPv4Port        uint16
	IPv6Port        uint16
}

// String renders the MOTD as the semicolon-separated line the client
// parses, field 0 always the literal "MCPE".
func (m MOTD) String() string {
	fields := []string{
		"MCPE",
		m.DisplayName,
		strconv.Itoa(m.ProtocolVersion),
		m.GameVersion,
		strconv.Itoa(m.CurrentPlayers),
		strconv.Itoa(m.MaxPlayers),
		strconv.FormatUint(m.ServerGUID, 10),
		m.SecondaryName,
		m.GamemodeLabel,
		strconv.Itoa(m.GamemodeNumeric),
		strconv.Itoa(int(m.IPv4Port)),
		strconv.Itoa(int(m.IPv6Port)),
	}
	return strings.Join(fields, ";")
}

// ParseMOTD splits a received MOTD line back into its 12 fields, failing
// if the count or the literal MCPE marker don't match.
func ParseMOTD(s string) (MOTD, error) {
	fields := strings.Split(s, ";")
	if len(fields) != 12 {
		return MOTD{}, fmt.Errorf("raknet: motd has %d fields, want 12", len(fields))
	}
	if fields[0] != "MCPE" {
		return MOTD{}, fmt.Errorf("raknet: motd missing MCPE marker, got %q", fields[0])
	}
	atoi := func(s string) int { n, _ := strconv.Atoi(s); return n }
	guid, _ := strconv.ParseUint(fields[6], 10, 64)
	return MOTD{
		DisplayName:     fields[1],
		ProtocolVersion: atoi(fields[2]),
		GameVersion:     fields[3],
		CurrentPlayers:  atoi(fields[4]),
		MaxPlayers:      atoi(fields[5]),
		ServerGUID:      guid,
		SecondaryName:   fields[7],
		GamemodeLabel:   fields[8],
		GamemodeNumeric: atoi(fields[9]),
		IPv4Port:        uint16(atoi(fields[10])),
		IPv6Port:        uint16(atoi(fields[11])),
	}, nil
}

// EncodeUnconnectedPing writes an unconnected-ping packet.
func EncodeUnconnectedPing(timestamp uint64, clientGUID uint64) []byte {
	w := binary.NewWriter()
	w.WriteByte(IDUnconnectedPing)
	w.WriteUint64LE(timestamp)
	w.WriteBytes(OfflineMagic[:])
	w.WriteUint64LE(clientGUID)
	return w.Bytes()
}

// UnconnectedPing is a decoded unconnected-ping packet body.
type UnconnectedPing struct {
	Timestamp  uint64
	ClientGUID uint64
}

func DecodeUnconnectedPing(data []byte) (*UnconnectedPing, error) {
	r := binary.NewReader(data)
	if err := skipID(r, IDUnconnectedPing); err != nil {
		return nil, err
	}
	ts, err := r.ReadUint64LE()
	if err != nil {
		return nil, err
	}
	if err := expectMagic(r); err != nil {
		return nil, err
	}
	guid, err := r.ReadUint64LE()
	if err != nil {
		return nil, err
	}
	return &UnconnectedPing{Timestamp: ts, ClientGUID: guid}, nil
}

// EncodeUnconnectedPong writes an unconnected-pong reply carrying motd.
func EncodeUnconnectedPong(timestamp, serverGUID uint64, motd MOTD) []byte {
	w := binary.NewWriter()
	w.WriteByte(IDUnconnectedPong)
	w.WriteUint64LE(timestamp)
	w.WriteUint64LE(serverGUID)
	w.WriteBytes(OfflineMagic[:])
	w.WriteString(motd.String())
	return w.Bytes()
}

// UnconnectedPong is a decoded unconnected-pong packet body.
type UnconnectedPong struct {
	Timestamp  uint64
	ServerGUID uint64
	MOTD       MOTD
}

func DecodeUnconnectedPong(data []byte) (*UnconnectedPong, error) {
	r := binary.NewReader(data)
	if err := skipID(r, IDUnconnectedPong); err != nil {
		return nil, err
	}
	ts, err := r.ReadUint64LE()
	if err != nil {
		return nil, err
	}
	guid, err := r.ReadUint64LE()
	if err != nil {
		return nil, err
	}
	if err := expectMagic(r); err != nil {
		return nil, err
	}
	motdStr, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	motd, err := ParseMOTD(motdStr)
	if err != nil {
		return nil, err
	}
	return &UnconnectedPong{Timestamp: ts, ServerGUID: guid, MOTD: motd}, nil
}

// EncodeOpenConnectionRequest1 pads the request to desiredMTU bytes with
// zero padding, the mechanism the client uses to probe path MTU.
func EncodeOpenConnectionRequest1(desiredMTU int) []byte {
	w := binary.NewWriter()
	w.WriteByte(IDOpenConnectionRequest1)
	w.WriteBytes(OfflineMagic[:])
	w.WriteByte(ProtocolVersion)
	padding := desiredMTU - w.Len() - 28 // leave room for the UDP/IP headers
	if padding > 0 {
		w.WriteBytes(make([]byte, padding))
	}
	return w.Bytes()
}

func DecodeOpenConnectionRequest1(data []byte) (rakVersion byte, mtu int, err error) {
	r := binary.NewReader(data)
	if err := skipID(r, IDOpenConnectionRequest1); err != nil {
		return 0, 0, err
	}
	if err := expectMagic(r); err != nil {
		return 0, 0, err
	}
	rakVersion, err = r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	// MTU is implied by the total datagram length (header + magic + version
	// byte + padding), matching the client's own probe construction.
	return rakVersion, len(data) + 28, nil
}

// EncodeOpenConnectionReply1 replies with the accepted MTU
// (min(client-requested, server cap)) and the server's guid.
func EncodeOpenConnectionReply1(serverGUID uint64, mtu uint16) []byte {
	w := binary.NewWriter()
	w.WriteByte(IDOpenConnectionReply1)
	w.WriteBytes(OfflineMagic[:])
	w.WriteUint64LE(serverGUID)
	w.WriteByte(0) // use-security: always off, core never implements RakNet's own security cookie
	w.WriteUint16BE(mtu)
	return w.Bytes()
}

func DecodeOpenConnectionReply1(data []byte) (serverGUID uint64, mtu uint16, err error) {
	r := binary.NewReader(data)
	if err := skipID(r, IDOpenConnectionReply1); err != nil {
		return 0, 0, err
	}
	if err := expectMagic(r); err != nil {
		return 0, 0, err
	}
	serverGUID, err = r.ReadUint64LE()
	if err != nil {
		return 0, 0, err
	}
	if _, err := r.ReadByte(); err != nil {
		return 0, 0, err
	}
	mtu, err = r.ReadUint16BE()
	return serverGUID, mtu, err
}

// EncodeOpenConnectionRequest2 carries the client's view of the server
// endpoint, its desired MTU, and its guid.
func EncodeOpenConnectionRequest2(serverAddr *net.UDPAddr, mtu uint16, clientGUID uint64) []byte {
	w := binary.NewWriter()
	w.WriteByte(IDOpenConnectionRequest2)
	w.WriteBytes(OfflineMagic[:])
	writeAddress(w, serverAddr)
	w.WriteUint16BE(mtu)
	w.WriteUint64LE(clientGUID)
	return w.Bytes()
}

// OpenConnectionRequest2 is the decoded request-2 body.
type OpenConnectionRequest2 struct {
	MTU        uint16
	ClientGUID uint64
}

func DecodeOpenConnectionRequest2(data []byte) (*OpenConnectionRequest2, error) {
	r := binary.NewReader(data)
	if err := skipID(r, IDOpenConnectionRequest2); err != nil {
		return nil, err
	}
	if err := expectMagic(r); err != nil {
		return nil, err
	}
	if _, err := readAddress(r); err != nil {
		return nil, err
	}
	mtu, err := r.ReadUint16BE()
	if err != nil {
		return nil, err
	}
	guid, err := r.ReadUint64LE()
	if err != nil {
		return nil, err
	}
	return &OpenConnectionRequest2{MTU: mtu, ClientGUID: guid}, nil
}

// EncodeOpenConnectionReply2 echoes the negotiated MTU back to the client;
// on receipt, the session transitions to handshaking.
func EncodeOpenConnectionReply2(serverGUID uint64, clientAddr *net.UDPAddr, mtu uint16) []byte {
	w := binary.NewWriter()
	w.WriteByte(IDOpenConnectionReply2)
	w.WriteBytes(OfflineMagic[:])
	w.WriteUint64LE(serverGUID)
	writeAddress(w, clientAddr)
	w.WriteUint16BE(mtu)
	w.WriteByte(0) // use-encryption: always off at the RakNet layer, the game layer owns encryption
	return w.Bytes()
}

func skipID(r *binary.Reader, want byte) error {
	id, err := r.ReadByte()
	if err != nil {
		return err
	}
	if id != want {
		return fmt.Errorf("raknet: expected packet id 0x%02x, got 0x%02x", want, id)
	}
	return nil
}

func expectMagic(r *binary.Reader) error {
	got, err := r.ReadBytes(len(OfflineMagic))
	if err != nil {
		return err
	}
	for i, b := range got {
		if b != OfflineMagic[i] {
			return fmt.Errorf("raknet: offline magic mismatch at byte %d", i)
		}
	}
	return nil
}

// writeAddress / readAddress encode an IPv4 endpoint the way RakNet's
// offline handshake historically has: a version byte, then the 4 address
// bytes EACH BIT-INVERTED, then the port big-endian.
func writeAddress(w *binary.Writer, addr *net.UDPAddr) {
	ip4 := addr.IP.To4()
	if ip4 == nil {
		w.WriteByte(6) // IPv6 addresses are carried unmodified, no inversion
		w.WriteBytes(addr.IP.To16())
		w.WriteUint16BE(uint16(addr.Port))
		return
	}
	w.WriteByte(4)
	for _, b := range ip4 {
		w.WriteByte(^b)
	}
	w.WriteUint16BE(uint16(addr.Port))
}

func readAddress(r *binary.Reader) (*net.UDPAddr, error) {
	version, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch version {
	case 4:
		raw, err := r.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		ip := make(net.IP, 4)
		for i, b := range raw {
			ip[i] = ^b
		}
		port, err := r.ReadUint16BE()
		if err != nil {
			return nil, err
		}
		return &net.UDPAddr{IP: ip, Port: int(port)}, nil
	case 6:
		raw, err := r.ReadBytes(16)
		if err != nil {
			return nil, err
		}
		port, err := r.ReadUint16BE()
		if err != nil {
			return nil, err
		}
		return &net.UDPAddr{IP: raw, Port: int(port)}, nil
	default:
		return nil, fmt.Errorf("raknet: unsupported address version %d", version)
	}
}

// EncodeConnectionRequest begins the connected handshake: client guid and
// a wall-clock timestamp used to synchronize a session-relative clock.
func EncodeConnectionRequest(clientGUID uint64, timestamp uint64) []byte {
	w := binary.NewWriter()
	w.WriteByte(IDConnectionRequest)
	w.WriteUint64LE(clientGUID)
	w.WriteUint64LE(timestamp)
	w.WriteByte(0) // use-security: off
	return w.Bytes()
}

// ConnectionRequest is the decoded connection-request body.
type ConnectionRequest struct {
	ClientGUID uint64
	Timestamp  uint64
}

func DecodeConnectionRequest(data []byte) (*ConnectionRequest, error) {
	r := binary.NewReader(data)
	if err := skipID(r, IDConnectionRequest); err != nil {
		return nil, err
	}
	guid, err := r.ReadUint64LE()
	if err != nil {
		return nil, err
	}
	ts, err := r.ReadUint64LE()
	if err != nil {
		return nil, err
	}
	return &ConnectionRequest{ClientGUID: guid, Timestamp: ts}, nil
}

// EncodeConnectionRequestAccepted replies to the connected handshake,
// echoing the client's timestamp alongside the server's own so both sides
// can compute clock offset.
func EncodeConnectionRequestAccepted(clientAddr *net.UDPAddr, clientTimestamp, serverTimestamp uint64) []byte {
	w := binary.NewWriter()
	w.WriteByte(IDConnectionRequestAccepted)
	writeAddress(w, clientAddr)
	w.WriteUint16BE(0) // system index, unused by this core
	w.WriteUint64LE(clientTimestamp)
	w.WriteUint64LE(serverTimestamp)
	return w.Bytes()
}

// EncodeNewIncomingConnection completes the connected handshake from the
// client's side.
func EncodeNewIncomingConnection(serverAddr *net.UDPAddr, clientTimestamp, serverTimestamp uint64) []byte {
	w := binary.NewWriter()
	w.WriteByte(IDNewIncomingConnection)
	writeAddress(w, serverAddr)
	w.WriteUint64LE(clientTimestamp)
	w.WriteUint64LE(serverTimestamp)
	return w.Bytes()
}
