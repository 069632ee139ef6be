package raknet

import (
	"bytes"
	"fmt"
	"time"
)

// fragmentBuffer accumulates the pieces of one split payload until every
// fragment index has arrived.
type fragmentBuffer struct {
	total     uint32
	pieces    map[uint32][]byte
	totalSize int
	touched   time.Time
}

// fragmenter tracks in-flight reassembly buffers for one peer, keyed by
// split id, plus the next split id to hand out for outbound splitting.
type fragmenter struct {
	nextSplitID uint16
	buffers     map[uint16]*fragmentBuffer
	totalBytes  int
}

func newFragmenter() *fragmenter {
	return &fragmenter{buffers: make(map[uint16]*fragmentBuffer)}
}

// split breaks payload into frames of at most maxPayload bytes each, all
// reliable-ordered on channel, sharing a freshly allocated split id. Used
// when a logical payload exceeds the MTU budget.
func (fr *fragmenter) split(payload []byte, maxPayload int, channel uint8) []*Frame {
	if len(payload) <= maxPayload {
		return []*Frame{{
			Reliability:  ReliableOrdered,
			OrderChannel: channel,
			Payload:      payload,
		}}
	}

	splitID := fr.nextSplitID
	fr.nextSplitID++

	count := (len(payload) + maxPayload - 1) / maxPayload
	frames := make([]*Frame, 0, count)
	for i := 0; i < count; i++ {
		start := i * maxPayload
		end := start + maxPayload
		if end > len(payload) {
			end = len(payload)
		}
		frames = append(frames, &Frame{
			Reliability:  ReliableOrdered,
			OrderChannel: channel,
			Split:        true,
			SplitCount:   uint32(count),
			SplitID:      splitID,
			SplitIndex:   uint32(i),
			Payload:      payload[start:end],
		})
	}
	return frames
}

// receive feeds one fragment into its reassembly buffer. It returns the
// reassembled payload once every fragment has arrived, or nil while more
// are outstanding. An error indicates the per-session fragmentation budget
// was exceeded.
func (fr *fragmenter) receive(f *Frame, now time.Time) ([]byte, error) {
	buf, ok := fr.buffers[f.SplitID]
	if !ok {
		buf = &fragmentBuffer{total: f.SplitCount, pieces: make(map[uint32][]byte), touched: now}
		fr.buffers[f.SplitID] = buf
	}
	if _, dup := buf.pieces[f.SplitIndex]; !dup {
		buf.pieces[f.SplitIndex] = f.Payload
		buf.totalSize += len(f.Payload)
		fr.totalBytes += len(f.Payload)
	}
	buf.touched = now

	if fr.totalBytes > MaxFragmentationBufferBytes {
		return nil, fmt.Errorf("raknet: fragmentation buffer exceeded %d bytes", MaxFragmentationBufferBytes)
	}

	if uint32(len(buf.pieces)) < buf.total {
		return nil, nil
	}

	var out bytes.Buffer
	for i := uint32(0); i < buf.total; i++ {
		out.Write(buf.pieces[i])
	}
	fr.totalBytes -= buf.totalSize
	delete(fr.buffers, f.SplitID)
	return out.Bytes(), nil
}

// expireStale drops reassembly buffers that haven't received a new fragment
// within FragmentBufferExpiry.
func (fr *fragmenter) expireStale(now time.Time) {
	for id, buf := range fr.buffers {
		if now.Sub(buf.touched) > FragmentBufferExpiry {
			fr.totalBytes -= buf.totalSize
			delete(fr.buffers, id)
		}
	}
}
