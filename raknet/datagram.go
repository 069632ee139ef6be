package raknet

import (
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

// Datagram is a frameset: a sequence number followed by one or more frames,
// all carried in a single UDP packet.
type Datagram struct {
	SequenceNumber uint32
	Frames         []*Frame
}

// IsDatagram reports whether the first byte of a received UDP payload marks
// it as a frameset rather than an ack/nack or offline-handshake packet.
func IsDatagram(b byte) bool { return b&datagramFlag != 0 && b != IDAck && b != IDNack }

func EncodeDatagram(d *Datagram) []byte {
	w := binary.NewWriterSize(MaxMTU)
	w.WriteByte(datagramFlag)
	w.WriteUint24LE(d.SequenceNumber)
	for _, f := range d.Frames {
		writeFrame(w, f)
	}
	return w.Bytes()
}

func DecodeDatagram(data []byte) (*Datagram, error) {
	r := binary.NewReader(data)
	flags, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if flags&datagramFlag == 0 {
		return nil, fmt.Errorf("raknet: not a datagram (flags=0x%02x)", flags)
	}
	seq, err := r.ReadUint24LE()
	if err != nil {
		return nil, err
	}
	d := &Datagram{SequenceNumber: seq}
	for r.Len() > 0 {
		f, err := readFrame(r)
		if err != nil {
			return nil, fmt.Errorf("raknet: decode frame: %w", err)
		}
		d.Frames = append(d.Frames, f)
	}
	return d, nil
}

// fitFrames greedily packs frames into framesets no larger than maxSize
// bytes (Peer.Flush passes the negotiated MTU), each frameset becoming
// one Datagram. Frames individually larger than maxSize must already have
// been split by the caller (see fragmenter.split).
func fitFrames(frames []*Frame, maxSize int) [][]*Frame {
	var batches [][]*Frame
	var current []*Frame
	size := 4 // datagram flag + 24-bit sequence number
	for _, f := range frames {
		fs := f.size()
		if len(current) > 0 && size+fs > maxSize {
			batches = append(batches, current)
			current = nil
			size = 4
		}
		current = append(current, f)
		size += fs
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
