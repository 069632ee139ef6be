package raknet

import (
	"fmt"
	"net"
	"sort"
	"time"
)

// Peer is the reliability-layer state for one connected endpoint: sequence
// counters, the retransmission queue, 32 ordering channels, fragment
// reassembly and congestion control. It moves opaque payload byte slices;
// the session state machine above it gives those payloads meaning.
type Peer struct {
	Addr *net.UDPAddr
	GUID uint64
	MTU  uint16

	outSequence    uint32
	outMessageIdx  uint32
	outOrderIdx    [MaxOrderingChannels]uint32
	outFragmenter  *fragmenter
	sendQueue      []*Frame
	retransmit     *retransmitQueue
	congestion     *tokenBucket

	inSequences     map[uint32]struct{} // dedup + pending-ack set
	pendingAcks     []uint32
	pendingNacks    []uint32
	highestSeqSeen  int64 // -1 until first datagram
	inReliableSeen  map[uint32]struct{}
	inOrdering      [MaxOrderingChannels]*orderingChannel
	inFragmenter    *fragmenter

	LastReceiveTime time.Time
	LastSendTime    time.Time
	LastPingTime    time.Time
}

// NewPeer constructs a Peer for addr, negotiated to mtu bytes.
func NewPeer(addr *net.UDPAddr, mtu uint16, now time.Time) *Peer {
	p := &Peer{
		Addr:            addr,
		MTU:             mtu,
		outFragmenter:   newFragmenter(),
		retransmit:      newRetransmitQueue(),
		congestion:      newTokenBucket(now),
		inSequences:     make(map[uint32]struct{}),
		inReliableSeen:  make(map[uint32]struct{}),
		inFragmenter:    newFragmenter(),
		highestSeqSeen:  -1,
		LastReceiveTime: now,
		LastSendTime:    now,
	}
	for i := range p.inOrdering {
		p.inOrdering[i] = newOrderingChannel()
	}
	return p
}

// safePayloadSize returns the maximum single-frame payload size that fits
// under this peer's MTU after framing overhead.
func (p *Peer) safePayloadSize() int {
	n := int(p.MTU) - FragmentationOverheadEstimate
	if n < 0 {
		return 0
	}
	return n
}

// Send enqueues payload for delivery under reliability on channel,
// splitting it into multiple frames first if it exceeds the MTU budget.
// Frames are not sent until Flush is called.
func (p *Peer) Send(payload []byte, reliability Reliability, channel uint8) {
	var frames []*Frame
	if reliability.isOrdered() || reliability.isSequenced() || len(payload) > p.safePayloadSize() {
		frames = p.outFragmenter.split(payload, p.safePayloadSize(), channel)
		for _, f := range frames {
			if f.Reliability == ReliableOrdered {
				f.Reliability = reliability
			}
		}
	} else {
		frames = []*Frame{{Reliability: reliability, OrderChannel: channel, Payload: payload}}
	}

	for _, f := range frames {
		if f.Reliability.isReliable() {
			f.MessageIndex = p.outMessageIdx
			p.outMessageIdx++
		}
		if f.Reliability.isOrdered() || f.Reliability.isSequenced() {
			f.OrderIndex = p.outOrderIdx[channel]
			p.outOrderIdx[channel]++
		}
	}
	p.sendQueue = append(p.sendQueue, frames...)
}

// Flush drains pending acks, nacks, retransmissions and queued frames into
// raw UDP payloads ready to send, respecting the congestion window and the
// unacked-frame back-pressure cap.
func (p *Peer) Flush(now time.Time) [][]byte {
	var out [][]byte

	if len(p.pendingAcks) > 0 {
		sort.Slice(p.pendingAcks, func(i, j int) bool { return p.pendingAcks[i] < p.pendingAcks[j] })
		out = append(out, EncodeAck(p.pendingAcks))
		p.pendingAcks = nil
	}
	if len(p.pendingNacks) > 0 {
		sort.Slice(p.pendingNacks, func(i, j int) bool { return p.pendingNacks[i] < p.pendingNacks[j] })
		out = append(out, EncodeNack(p.pendingNacks))
		p.pendingNacks = nil
	}

	if expired := p.retransmit.expired(now); len(expired) > 0 {
		p.sendQueue = append(expired, p.sendQueue...)
	}

	if p.BackPressured() {
		return out
	}

	maxPayload := p.safePayloadSize() + FragmentationOverheadEstimate
	framesSent := 0
	for _, batch := range fitFrames(p.sendQueue, maxPayload) {
		datagram := EncodeDatagram(&Datagram{SequenceNumber: p.outSequence, Frames: batch})
		if !p.congestion.allow(len(datagram), now) {
			break
		}
		var reliable []*Frame
		for _, f := range batch {
			if f.Reliability.isReliable() {
				reliable = append(reliable, f)
			}
		}
		if len(reliable) > 0 {
			p.retransmit.track(p.outSequence, reliable, now)
		}
		p.outSequence++
		out = append(out, datagram)
		p.LastSendTime = now
		framesSent += len(batch)
	}
	p.sendQueue = p.sendQueue[framesSent:]
	return out
}

// BackPressured reports whether this peer has exceeded the unacked-frame
// window and should have outbound game-layer emission paused.
func (p *Peer) BackPressured() bool {
	return p.retransmit.len() >= MaxUnackedFrames
}

// HandleDatagram decodes a received frameset, updates ack/ordering/
// fragmentation state, and returns the fully reassembled payloads ready for
// the session layer, in delivery order.
func (p *Peer) HandleDatagram(data []byte, now time.Time) ([][]byte, error) {
	d, err := DecodeDatagram(data)
	if err != nil {
		return nil, err
	}
	p.LastReceiveTime = now

	if _, dup := p.inSequences[d.SequenceNumber]; dup {
		return nil, nil // duplicate datagram, drop silently
	}
	p.inSequences[d.SequenceNumber] = struct{}{}
	p.pendingAcks = append(p.pendingAcks, d.SequenceNumber)

	if p.highestSeqSeen >= 0 && int64(d.SequenceNumber) > p.highestSeqSeen+1 {
		for missing := p.highestSeqSeen + 1; missing < int64(d.SequenceNumber); missing++ {
			p.pendingNacks = append(p.pendingNacks, uint32(missing))
		}
	}
	if int64(d.SequenceNumber) > p.highestSeqSeen {
		p.highestSeqSeen = int64(d.SequenceNumber)
	}

	var payloads [][]byte
	for _, f := range d.Frames {
		if f.Reliability.isReliable() {
			if _, dup := p.inReliableSeen[f.MessageIndex]; dup {
				continue
			}
			p.inReliableSeen[f.MessageIndex] = struct{}{}
		}

		payload := f.Payload
		if f.Split {
			reassembled, err := p.inFragmenter.receive(f, now)
			if err != nil {
				return nil, fmt.Errorf("raknet: fragmentation: %w", err)
			}
			if reassembled == nil {
				continue // still waiting on more fragments
			}
			payload = reassembled
		}

		if f.Reliability.isOrdered() {
			delivered, evictedSeq, evicted := p.inOrdering[f.OrderChannel].receive(f.OrderIndex, d.SequenceNumber, payload)
			if evicted {
				p.pendingNacks = append(p.pendingNacks, evictedSeq)
			}
			payloads = append(payloads, delivered...)
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

// HandleAck releases acknowledged frames from the retransmission queue and
// informs the congestion controller of the successful round trip.
func (p *Peer) HandleAck(data []byte, now time.Time) error {
	sequences, err := DecodeAckLike(data)
	if err != nil {
		return err
	}
	p.retransmit.ack(sequences, now)
	p.congestion.onAck()
	return nil
}

// HandleNack immediately resends the frames carried by the nacked
// sequence numbers and signals the congestion controller to back off.
func (p *Peer) HandleNack(data []byte) error {
	sequences, err := DecodeAckLike(data)
	if err != nil {
		return err
	}
	frames := p.retransmit.nack(sequences)
	p.sendQueue = append(frames, p.sendQueue...)
	p.congestion.onNack()
	return nil
}

// TimedOut reports whether this peer has gone silent longer than
// SessionTimeout.
func (p *Peer) TimedOut(now time.Time) bool {
	return now.Sub(p.LastReceiveTime) > SessionTimeout
}

// NeedsKeepalive reports whether an unreliable ping should be sent now.
func (p *Peer) NeedsKeepalive(now time.Time) bool {
	return now.Sub(p.LastPingTime) >= KeepAliveInterval
}

// ExpireFragments drops stale incomplete reassembly buffers.
func (p *Peer) ExpireFragments(now time.Time) {
	p.inFragmenter.expireStale(now)
}
