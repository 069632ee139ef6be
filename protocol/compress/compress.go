// Package compress implements the two wire compression algorithms a Bedrock
// session can negotiate during NetworkSettings: raw deflate and
// Snappy. Algorithm selection is per-session, decided once at
// NetworkSettings and fixed for the rest of the connection.
package compress

import (
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

var (
	errEmptyBatch        = errors.New("compress: empty batch payload")
	errAlgorithmMismatch = errors.New("compress: marker byte disagrees with negotiated algorithm")
)

// Algorithm identifies a negotiated compression scheme.
type Algorithm byte

const (
	None Algorithm = iota
	Deflate
	Snappy
)

// Codec compresses and decompresses packet batch payloads for one algorithm.
type Codec interface {
	Algorithm() Algorithm
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ForAlgorithm returns the Codec implementing algo.
func ForAlgorithm(algo Algorithm) (Codec, error) {
	switch algo {
	case None:
		return noopCodec{}, nil
	case Deflate:
		return deflateCodec{}, nil
	case Snappy:
		return snappyCodec{}, nil
	default:
		return nil, fmt.Errorf("compress: unknown algorithm %d", algo)
	}
}

type noopCodec struct{}

func (noopCodec) Algorithm() Algorithm                    { return None }
func (noopCodec) Compress(data []byte) ([]byte, error)    { return data, nil }
func (noopCodec) Decompress(data []byte) ([]byte, error)  { return data, nil }

type deflateCodec struct{}

func (deflateCodec) Algorithm() Algorithm { return Deflate }

func (deflateCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("compress: new flate writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compress: flate write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: flate close: %w", err)
	}
	return buf.Bytes(), nil
}

func (deflateCodec) Decompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("compress: flate read: %w", err)
	}
	return out, nil
}

type snappyCodec struct{}

func (snappyCodec) Algorithm() Algorithm { return Snappy }

func (snappyCodec) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCodec) Decompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("compress: snappy decode: %w", err)
	}
	return out, nil
}
