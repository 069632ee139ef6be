package raknet

import (
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

// Frame is one reliability-layer unit: an optional reliable sequence number,
// an optional ordered sequence number plus channel, an optional split
// descriptor, and a payload. Multiple frames are carried in one frameset
// datagram.
type Frame struct {
	Reliability Reliability

	MessageIndex uint32 // set iff Reliability.isReliable()
	OrderIndex   uint32 // set iff Reliability.isOrdered() or isSequenced()
	OrderChannel uint8

	Split      bool
	SplitCount uint32
	SplitID    uint16
	SplitIndex uint32

	Payload []byte
}

// size returns the on-wire byte size of the frame, used to decide how many
// frames fit under an MTU budget before a frameset must be flushed.
func (f *Frame) size() int {
	n := 3 // header byte + 16-bit length-in-bits
	if f.Reliability.isReliable() {
		n += 3
	}
	if f.Reliability.isSequenced() {
		n += 3
	}
	if f.Reliability.isOrdered() {
		n += 4
	}
	if f.Split {
		n += 10
	}
	return n + len(f.Payload)
}

func writeFrame(w *binary.Writer, f *Frame) {
	header := byte(f.Reliability) << 5
	if f.Split {
		header |= 0x10
	}
	w.WriteByte(header)
	w.WriteUint16BE(uint16(len(f.Payload)) * 8)

	if f.Reliability.isReliable() {
		w.WriteUint24LE(f.MessageIndex)
	}
	if f.Reliability.isSequenced() {
		w.WriteUint24LE(f.OrderIndex)
	}
	if f.Reliability.isOrdered() {
		w.WriteUint24LE(f.OrderIndex)
		w.WriteByte(f.OrderChannel)
	}
	if f.Split {
		w.WriteUint32BE(f.SplitCount)
		w.WriteUint16BE(f.SplitID)
		w.WriteUint32BE(f.SplitIndex)
	}
	w.WriteBytes(f.Payload)
}

func readFrame(r *binary.Reader) (*Frame, error) {
	header, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	f := &Frame{
		Reliability: Reliability((header >> 5) & 0x07),
		Split:       header&0x10 != 0,
	}

	lengthBits, err := r.ReadUint16BE()
	if err != nil {
		return nil, err
	}
	lengthBytes := int((lengthBits + 7) / 8)

	if f.Reliability.isReliable() {
		if f.MessageIndex, err = r.ReadUint24LE(); err != nil {
			return nil, err
		}
	}
	if f.Reliability.isSequenced() {
		if f.OrderIndex, err = r.ReadUint24LE(); err != nil {
			return nil, err
		}
	}
	if f.Reliability.isOrdered() {
		if f.OrderIndex, err = r.ReadUint24LE(); err != nil {
			return nil, err
		}
		if f.OrderChannel, err = r.ReadByte(); err != nil {
			return nil, err
		}
	}
	if f.Split {
		if f.SplitCount, err = r.ReadUint32BE(); err != nil {
			return nil, err
		}
		if f.SplitID, err = r.ReadUint16BE(); err != nil {
			return nil, err
		}
		if f.SplitIndex, err = r.ReadUint32BE(); err != nil {
			return nil, err
		}
	}

	if f.OrderChannel >= MaxOrderingChannels {
		return nil, fmt.Errorf("raknet: order channel %d exceeds maximum %d", f.OrderChannel, MaxOrderingChannels)
	}

	payload, err := r.ReadBytes(lengthBytes)
	if err != nil {
		return nil, err
	}
	f.Payload = payload
	return f, nil
}
