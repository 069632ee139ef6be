// Package raknet implements the RakNet-flavored reliable-datagram transport
// a Bedrock session rides on: the offline discovery handshake, the framed
// reliability layer (ack/nack, retransmission, 32 ordering channels,
// fragmentation), and congestion control. It knows nothing about game
// packets — it moves opaque payload byte slices for the session layer above
// it.
package raknet

import "time"

// Protocol-wide constants.
const (
	ProtocolVersion = 11

	MaxMTU     = 1492
	MinMTU     = 576
	DefaultMTU = 1400

	MaxOrderingChannels = 32
	OrderingChannelCap  = 256 // park-buffer capacity before drop-oldest

	FragmentationOverheadEstimate = 60 // bytes reserved for framing headers
	FragmentBufferExpiry          = 30 * time.Second
	MaxFragmentationBufferBytes   = 16 << 20 // 16 MiB per session

	KeepAliveInterval = 5 * time.Second
	SessionTimeout    = 10 * time.Second

	MaxUnackedFrames = 1024 // back-pressure window

	MinRetransmitTimeout = 50 * time.Millisecond
	MaxRetransmitTimeout = 3 * time.Second
)

// OfflineMagic is the 16-byte marker prefixing every offline-handshake
// packet, identical on every RakNet-derived implementation so unrelated UDP
// traffic on the port is rejected outright.
var OfflineMagic = [16]byte{
	0x00, 0xff, 0xff, 0x00, 0xfe, 0xfe, 0xfe, 0xfe,
	0xfd, 0xfd, 0xfd, 0xfd, 0x12, 0x34, 0x56, 0x78,
}

// Offline / connected-handshake packet ids.
const (
	IDConnectedPing            = 0x00
	IDUnconnectedPing          = 0x01
	IDConnectedPong            = 0x03
	IDOpenConnectionRequest1   = 0x05
	IDOpenConnectionReply1     = 0x06
	IDOpenConnectionRequest2   = 0x07
	IDOpenConnectionReply2     = 0x08
	IDConnectionRequest        = 0x09
	IDConnectionRequestAccepted = 0x10
	IDNewIncomingConnection    = 0x13
	IDDisconnectNotification   = 0x15
	IDIncompatibleProtocol     = 0x19
	IDUnconnectedPong          = 0x1c
)

// Frameset datagrams carry the top bit set; ack/nack use distinct fixed ids.
const (
	datagramFlag byte = 0x80
	IDAck        byte = 0xc0
	IDNack       byte = 0xa0
)

// Reliability identifies one of the eight RakNet reliability modes. Core
// transport only needs Unreliable and ReliableOrdered for game traffic;
// the others are parsed for completeness and used by ping/ack.
type Reliability byte

const (
	Unreliable Reliability = iota
	UnreliableSequenced
	Reliable
	ReliableOrdered
	ReliableSequenced
	UnreliableWithAckReceipt
	ReliableWithAckReceipt
	ReliableOrderedWithAckReceipt
)

func (r Reliability) isReliable() bool {
	switch r {
	case Reliable, ReliableOrdered, ReliableSequenced, ReliableWithAckReceipt, ReliableOrderedWithAckReceipt:
		return true
	default:
		return false
	}
}

func (r Reliability) isOrdered() bool {
	return r == ReliableOrdered || r == ReliableOrderedWithAckReceipt
}

func (r Reliability) isSequenced() bool {
	return r == UnreliableSequenced || r == ReliableSequenced
}
