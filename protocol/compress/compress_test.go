package compress

import (
	"bytes"
	"strings"
	"testing"
)

func TestDeflateRoundTrip(t *testing.T) {
	codec, err := ForAlgorithm(Deflate)
	if err != nil {
		t.Fatalf("ForAlgorithm: %v", err)
	}
	data := []byte(strings.Repeat("minecraft:bedrock_chunk_payload ", 64))

	compressed, err := codec.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(compressed) >= len(data) {
		t.Fatalf("expected compression to shrink a repetitive payload: got %d, original %d", len(compressed), len(data))
	}
	decompressed, err := codec.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatal("round-trip mismatch")
	}
}

func TestSnappyRoundTrip(t *testing.T) {
	codec, err := ForAlgorithm(Snappy)
	if err != nil {
		t.Fatalf("ForAlgorithm: %v", err)
	}
	data := []byte(strings.Repeat("chunk-section-palette-entry", 64))

	compressed, err := codec.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	decompressed, err := codec.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatal("round-trip mismatch")
	}
}

func TestEncodeBatchBelowThresholdIsRawWithNoneMarker(t *testing.T) {
	codec, _ := ForAlgorithm(Deflate)
	data := []byte("tiny")

	out, err := EncodeBatch(codec, data, 512)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	if out[0] != noneMarker {
		t.Fatalf("marker byte: got %d, want %d (none)", out[0], noneMarker)
	}
	if !bytes.Equal(out[1:], data) {
		t.Fatal("below-threshold payload should be unmodified after the marker byte")
	}
}

func TestEncodeBatchAboveThresholdCompresses(t *testing.T) {
	codec, _ := ForAlgorithm(Deflate)
	data := []byte(strings.Repeat("x", 1024))

	out, err := EncodeBatch(codec, data, 256)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	if out[0] != byte(Deflate) {
		t.Fatalf("marker byte: got %d, want %d (deflate)", out[0], byte(Deflate))
	}
	if len(out)-1 >= len(data) {
		t.Fatal("expected compressed output to be smaller than the original repetitive payload")
	}
}

func TestDecodeBatchRoundTrip(t *testing.T) {
	codec, _ := ForAlgorithm(Snappy)
	data := []byte(strings.Repeat("round-trip-payload", 32))

	encoded, err := EncodeBatch(codec, data, 16)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	decoded, err := DecodeBatch(codec, encoded)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatal("DecodeBatch(EncodeBatch(x)) != x")
	}
}

func TestDecodeBatchRejectsMismatchedMarker(t *testing.T) {
	deflateCodec, _ := ForAlgorithm(Deflate)
	snappyCodec, _ := ForAlgorithm(Snappy)
	data := []byte(strings.Repeat("payload", 64))

	encoded, err := EncodeBatch(deflateCodec, data, 4)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	if _, err := DecodeBatch(snappyCodec, encoded); err == nil {
		t.Fatal("expected DecodeBatch to reject a marker byte that disagrees with the session's negotiated codec")
	}
}
