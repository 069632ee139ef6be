package raknet

import (
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/binary"
)

// ackRecords encodes a sorted, deduplicated slice of sequence numbers into
// the minimal set of range records: consecutive runs become one two-number
// range record, isolated numbers become single-number records. On the wire
// this is count: u16be, then count records, each is_range: u8 then one or
// two u24le sequence numbers.
func ackRecords(sequences []uint32) [][2]uint32 {
	if len(sequences) == 0 {
		return nil
	}
	var records [][2]uint32
	start := sequences[0]
	end := sequences[0]
	for _, seq := range sequences[1:] {
		if seq == end+1 {
			end = seq
			continue
		}
		records = append(records, [2]uint32{start, end})
		start, end = seq, seq
	}
	records = append(records, [2]uint32{start, end})
	return records
}

// EncodeAck encodes the acknowledgement of sequences (which must already be
// sorted ascending and deduplicated) as an ack datagram.
func EncodeAck(sequences []uint32) []byte {
	return encodeAckLike(IDAck, sequences)
}

// EncodeNack is EncodeAck's negative-acknowledgement counterpart.
func EncodeNack(sequences []uint32) []byte {
	return encodeAckLike(IDNack, sequences)
}

func encodeAckLike(id byte, sequences []uint32) []byte {
	records := ackRecords(sequences)
	w := binary.NewWriter()
	w.WriteByte(id)
	w.WriteUint16BE(uint16(len(records)))
	for _, rec := range records {
		if rec[0] == rec[1] {
			w.WriteByte(0)
			w.WriteUint24LE(rec[0])
		} else {
			w.WriteByte(1)
			w.WriteUint24LE(rec[0])
			w.WriteUint24LE(rec[1])
		}
	}
	return w.Bytes()
}

// DecodeAckLike parses a whole ack or nack datagram, skipping its leading
// id byte without checking it, into the full set of acknowledged sequence
// numbers, expanding range records.
func DecodeAckLike(data []byte) ([]uint32, error) {
	r := binary.NewReader(data)
	if _, err := r.ReadByte(); err != nil { // leading id byte
		return nil, err
	}
	count, err := r.ReadUint16BE()
	if err != nil {
		return nil, err
	}
	var out []uint32
	for i := uint16(0); i < count; i++ {
		isRange, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		start, err := r.ReadUint24LE()
		if err != nil {
			return nil, err
		}
		end := start
		if isRange == 1 {
			end, err = r.ReadUint24LE()
			if err != nil {
				return nil, err
			}
		}
		if end < start {
			return nil, fmt.Errorf("raknet: ack record end %d precedes start %d", end, start)
		}
		for seq := start; seq <= end; seq++ {
			out = append(out, seq)
		}
	}
	return out, nil
}
