package compress

// noneMarker is the single byte prefixing an uncompressed batch payload when
// the batch is smaller than the session's negotiated threshold. It
// deliberately collides with Algorithm(None)'s zero value: "no compression"
// and "too small to bother" are the same wire marker.
const noneMarker byte = byte(None)

// EncodeBatch applies codec to data if len(data) >= threshold, prefixing the
// result with codec's algorithm marker byte; otherwise it prefixes data,
// unmodified, with noneMarker. Both sides already know which codec is in
// play from the NetworkSettings exchange, so the marker only distinguishes
// "compressed" from "sent raw because it was small".
func EncodeBatch(codec Codec, data []byte, threshold int) ([]byte, error) {
	if codec.Algorithm() == None || len(data) < threshold {
		out := make([]byte, 1+len(data))
		out[0] = noneMarker
		copy(out[1:], data)
		return out, nil
	}
	compressed, err := codec.Compress(data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1+len(compressed))
	out[0] = byte(codec.Algorithm())
	copy(out[1:], compressed)
	return out, nil
}

// DecodeBatch strips the marker byte prefixed by EncodeBatch and, if it
// names a real algorithm, decompresses the remainder with codec. codec must
// match the algorithm negotiated for the session; a marker byte that
// disagrees with codec's own algorithm (while still naming a compressed
// payload) indicates a desynchronized or malicious peer.
func DecodeBatch(codec Codec, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errEmptyBatch
	}
	marker := data[0]
	rest := data[1:]
	if marker == noneMarker {
		return rest, nil
	}
	if marker != byte(codec.Algorithm()) {
		return nil, errAlgorithmMismatch
	}
	return codec.Decompress(rest)
}
