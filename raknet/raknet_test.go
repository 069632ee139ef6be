package raknet

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestDatagramRoundTrip(t *testing.T) {
	d := &Datagram{
		SequenceNumber: 42,
		Frames: []*Frame{
			{Reliability: Unreliable, Payload: []byte("ping")},
			{Reliability: ReliableOrdered, OrderChannel: 0, MessageIndex: 7, OrderIndex: 3, Payload: []byte("game packet")},
		},
	}
	encoded := EncodeDatagram(d)
	decoded, err := DecodeDatagram(encoded)
	if err != nil {
		t.Fatalf("DecodeDatagram: %v", err)
	}
	if decoded.SequenceNumber != d.SequenceNumber {
		t.Fatalf("sequence number: got %d, want %d", decoded.SequenceNumber, d.SequenceNumber)
	}
	if len(decoded.Frames) != len(d.Frames) {
		t.Fatalf("frame count: got %d, want %d", len(decoded.Frames), len(d.Frames))
	}
	for i, f := range decoded.Frames {
		if !bytes.Equal(f.Payload, d.Frames[i].Payload) {
			t.Fatalf("frame %d payload mismatch: got %q, want %q", i, f.Payload, d.Frames[i].Payload)
		}
	}
}

func TestAckRecordsCoalesceRuns(t *testing.T) {
	sequences := []uint32{1, 2, 3, 5, 6, 9}
	records := ackRecords(sequences)
	want := [][2]uint32{{1, 3}, {5, 6}, {9, 9}}
	if len(records) != len(want) {
		t.Fatalf("record count: got %d, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Fatalf("record %d: got %v, want %v", i, records[i], want[i])
		}
	}
}

func TestAckEncodeDecodeRoundTrip(t *testing.T) {
	sequences := []uint32{0, 1, 2, 10, 11, 20}
	encoded := EncodeAck(sequences)
	decoded, err := DecodeAckLike(encoded)
	if err != nil {
		t.Fatalf("DecodeAckLike: %v", err)
	}
	if len(decoded) != len(sequences) {
		t.Fatalf("decoded count: got %d, want %d", len(decoded), len(sequences))
	}
	for i := range sequences {
		if decoded[i] != sequences[i] {
			t.Fatalf("decoded[%d]: got %d, want %d", i, decoded[i], sequences[i])
		}
	}
}

func TestMOTDRoundTrip(t *testing.T) {
	m := MOTD{
		DisplayName:     "bedrockd",
		ProtocolVersion: 686,
		GameVersion:     "1.21.50",
		CurrentPlayers:  3,
		MaxPlayers:      20,
		ServerGUID:      0xDEADBEEF,
		SecondaryName:   "bedrockd",
		GamemodeLabel:   "Survival",
		GamemodeNumeric: 1,
		IPv4Port:        19132,
		IPv6Port:        19133,
	}
	line := m.String()
	fields := bytes.Count([]byte(line), []byte(";"))
	if fields != 11 {
		t.Fatalf("expected 11 semicolons (12 fields), got %d in %q", fields, line)
	}
	parsed, err := ParseMOTD(line)
	if err != nil {
		t.Fatalf("ParseMOTD: %v", err)
	}
	if parsed != m {
		t.Fatalf("round-trip mismatch:\n got  %+v\n want %+v", parsed, m)
	}
}

func TestUnconnectedPingPongRoundTrip(t *testing.T) {
	// Spec §8 scenario 1: timestamp T=1234, client guid G=0xDEADBEEF.
	ping := EncodeUnconnectedPing(1234, 0xDEADBEEF)
	decodedPing, err := DecodeUnconnectedPing(ping)
	if err != nil {
		t.Fatalf("DecodeUnconnectedPing: %v", err)
	}
	if decodedPing.Timestamp != 1234 || decodedPing.ClientGUID != 0xDEADBEEF {
		t.Fatalf("decoded ping mismatch: %+v", decodedPing)
	}

	motd := MOTD{
		DisplayName:     "bedrockd",
		ProtocolVersion: ProtocolVersion,
		GameVersion:     "1.21.50",
		CurrentPlayers:  0,
		MaxPlayers:      10,
		ServerGUID:      0x1122334455,
		SecondaryName:   "bedrockd",
		GamemodeLabel:   "Survival",
		GamemodeNumeric: 1,
		IPv4Port:        19132,
		IPv6Port:        19133,
	}
	pong := EncodeUnconnectedPong(decodedPing.Timestamp, motd.ServerGUID, motd)
	decodedPong, err := DecodeUnconnectedPong(pong)
	if err != nil {
		t.Fatalf("DecodeUnconnectedPong: %v", err)
	}
	if decodedPong.Timestamp != 1234 {
		t.Fatalf("pong timestamp: got %d, want 1234", decodedPong.Timestamp)
	}
	if decodedPong.MOTD.ProtocolVersion != ProtocolVersion {
		t.Fatalf("motd protocol version: got %d, want %d", decodedPong.MOTD.ProtocolVersion, ProtocolVersion)
	}
}

func TestMTUNegotiationRoundTrip(t *testing.T) {
	// Spec §8 scenario 2: request-1 padded to 1500; reply with MTU <= 1500,
	// then request-2 at mtu=1500 gets the same MTU echoed back.
	req1 := EncodeOpenConnectionRequest1(1500)
	if len(req1) < 1500-28 {
		t.Fatalf("request-1 padding too small: %d bytes", len(req1))
	}
	_, mtu, err := DecodeOpenConnectionRequest1(req1)
	if err != nil {
		t.Fatalf("DecodeOpenConnectionRequest1: %v", err)
	}
	if mtu > 1500 {
		t.Fatalf("negotiated mtu %d exceeds requested 1500", mtu)
	}

	reply1 := EncodeOpenConnectionReply1(0x1, uint16(mtu))
	_, replyMTU, err := DecodeOpenConnectionReply1(reply1)
	if err != nil {
		t.Fatalf("DecodeOpenConnectionReply1: %v", err)
	}
	if replyMTU != uint16(mtu) {
		t.Fatalf("reply-1 mtu: got %d, want %d", replyMTU, mtu)
	}

	clientAddr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 19132}
	req2 := EncodeOpenConnectionRequest2(clientAddr, 1500, 0xABCDEF)
	decodedReq2, err := DecodeOpenConnectionRequest2(req2)
	if err != nil {
		t.Fatalf("DecodeOpenConnectionRequest2: %v", err)
	}
	if decodedReq2.MTU != 1500 {
		t.Fatalf("request-2 mtu: got %d, want 1500", decodedReq2.MTU)
	}
}

// TestReliableOrderedDeliveryUnderLoss covers ordered sequence numbers
// 0..4 on channel 0, with 1 and 3 initially dropped; after they're
// retransmitted and fed in, delivery must be 0,1,2,3,4 with no
// duplicates, regardless of arrival order of the retransmissions.
func TestReliableOrderedDeliveryUnderLoss(t *testing.T) {
	ch := newOrderingChannel()

	var delivered [][]byte
	deliver := func(index, sequence uint32, payload []byte) {
		out, _, _ := ch.receive(index, sequence, payload)
		delivered = append(delivered, out...)
	}

	// First transmission: 1 and 3 are dropped before reaching the receiver.
	deliver(0, 100, []byte("p0"))
	deliver(2, 102, []byte("p2"))
	deliver(4, 104, []byte("p4"))

	if len(delivered) != 1 {
		t.Fatalf("expected only p0 delivered before the gap fills, got %d", len(delivered))
	}

	// Retransmission arrives, possibly in a different order than sent.
	deliver(3, 203, []byte("p3"))
	deliver(1, 201, []byte("p1"))

	want := []string{"p0", "p1", "p2", "p3", "p4"}
	if len(delivered) != len(want) {
		t.Fatalf("delivered count: got %d, want %d (%v)", len(delivered), len(want), delivered)
	}
	for i, w := range want {
		if string(delivered[i]) != w {
			t.Fatalf("delivered[%d]: got %q, want %q", i, delivered[i], w)
		}
	}

	// Duplicate redelivery of an already-delivered index must be dropped.
	dup, _, evicted := ch.receive(2, 999, []byte("p2-dup"))
	if dup != nil || evicted {
		t.Fatalf("expected duplicate redelivery to be dropped, got %v", dup)
	}
}

// TestOrderingChannelOverflowForcesNack fills the park buffer past its
// capacity and checks that the oldest parked entry's datagram sequence
// number is reported for a forced NACK rather than silently discarded.
func TestOrderingChannelOverflowForcesNack(t *testing.T) {
	ch := newOrderingChannel()

	// Index 0 never arrives, so every later index parks instead of delivering.
	for i := uint32(1); i <= OrderingChannelCap+1; i++ {
		_, evictedSeq, evicted := ch.receive(i, 1000+i, []byte("p"))
		if i <= OrderingChannelCap {
			if evicted {
				t.Fatalf("unexpected eviction at index %d before buffer is full", i)
			}
			continue
		}
		if !evicted {
			t.Fatalf("expected an eviction once the park buffer went past capacity")
		}
		if evictedSeq != 1001 {
			t.Fatalf("expected the oldest parked sequence 1001 evicted, got %d", evictedSeq)
		}
	}
}

// TestFragmentationRoundTrip asserts that any payload fragmented then
// reassembled in any arrival order reconstructs the original bytes
// exactly.
func TestFragmentationRoundTrip(t *testing.T) {
	fr := newFragmenter()
	payload := bytes.Repeat([]byte("0123456789abcdef"), 4000) // 64000 bytes
	frames := fr.split(payload, 1200, 0)
	if len(frames) < 2 {
		t.Fatalf("expected payload to be split into multiple frames, got %d", len(frames))
	}

	// Feed fragments in reverse order to prove arrival order doesn't matter.
	recv := newFragmenter()
	now := time.Now()
	var reassembled []byte
	for i := len(frames) - 1; i >= 0; i-- {
		out, err := recv.receive(frames[i], now)
		if err != nil {
			t.Fatalf("receive fragment %d: %v", i, err)
		}
		if out != nil {
			reassembled = out
		}
	}
	if !bytes.Equal(reassembled, payload) {
		t.Fatalf("reassembled payload mismatch: got %d bytes, want %d bytes", len(reassembled), len(payload))
	}
}

func TestFragmentBufferExpiry(t *testing.T) {
	fr := newFragmenter()
	start := time.Now()
	frame := &Frame{Split: true, SplitCount: 2, SplitID: 1, SplitIndex: 0, Payload: []byte("half")}
	if _, err := fr.receive(frame, start); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(fr.buffers) != 1 {
		t.Fatalf("expected one pending buffer before expiry")
	}
	fr.expireStale(start.Add(FragmentBufferExpiry + time.Second))
	if len(fr.buffers) != 0 {
		t.Fatalf("expected stale fragmentation buffer to be expired")
	}
}

func TestPeerSendFlushRoundTrip(t *testing.T) {
	now := time.Now()
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 19132}
	sender := NewPeer(addr, DefaultMTU, now)
	sender.Send([]byte("hello world"), ReliableOrdered, 0)

	datagrams := sender.Flush(now)
	if len(datagrams) == 0 {
		t.Fatal("expected at least one datagram from Flush")
	}

	receiver := NewPeer(addr, DefaultMTU, now)
	var payloads [][]byte
	for _, dg := range datagrams {
		out, err := receiver.HandleDatagram(dg, now)
		if err != nil {
			t.Fatalf("HandleDatagram: %v", err)
		}
		payloads = append(payloads, out...)
	}
	if len(payloads) != 1 || string(payloads[0]) != "hello world" {
		t.Fatalf("unexpected payloads: %v", payloads)
	}
}

func TestTokenBucketBackOffOnSustainedNacks(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(now)
	initial := b.bandwidth
	for i := 0; i < 4; i++ {
		b.onNack()
	}
	if b.bandwidth >= initial {
		t.Fatalf("expected bandwidth to decrease after sustained nacks: got %f, was %f", b.bandwidth, initial)
	}
}
