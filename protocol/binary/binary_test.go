package binary

import "testing"

func TestWriterReaderFixedWidth(t *testing.T) {
	w := NewWriter()
	w.WriteByte(0x42)
	w.WriteUint16LE(1234)
	w.WriteUint32LE(567890)
	w.WriteUint64LE(1 << 40)
	w.WriteFloat32LE(3.5)
	w.WriteString("Hello World")

	r := NewReader(w.Bytes())

	b, err := r.ReadByte()
	if err != nil || b != 0x42 {
		t.Fatalf("ReadByte: got %v, %v", b, err)
	}
	u16, err := r.ReadUint16LE()
	if err != nil || u16 != 1234 {
		t.Fatalf("ReadUint16LE: got %v, %v", u16, err)
	}
	u32, err := r.ReadUint32LE()
	if err != nil || u32 != 567890 {
		t.Fatalf("ReadUint32LE: got %v, %v", u32, err)
	}
	u64, err := r.ReadUint64LE()
	if err != nil || u64 != 1<<40 {
		t.Fatalf("ReadUint64LE: got %v, %v", u64, err)
	}
	f, err := r.ReadFloat32LE()
	if err != nil || f != 3.5 {
		t.Fatalf("ReadFloat32LE: got %v, %v", f, err)
	}
	s, err := r.ReadString()
	if err != nil || s != "Hello World" {
		t.Fatalf("ReadString: got %q, %v", s, err)
	}
}

func TestVarint32RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 16383, 16384, 1 << 20, 1<<32 - 1}
	for _, v := range values {
		w := NewWriter()
		w.WriteVarint32(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarint32()
		if err != nil {
			t.Fatalf("ReadVarint32(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("varint32 round-trip: want %d, got %d", v, got)
		}
	}
}

func TestVarint64RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 1 << 40, 1<<64 - 1}
	for _, v := range values {
		w := NewWriter()
		w.WriteVarint64(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarint64()
		if err != nil {
			t.Fatalf("ReadVarint64(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("varint64 round-trip: want %d, got %d", v, got)
		}
	}
}

func TestZigZagSignedRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 2147483647, -2147483648, 1000, -1000}
	for _, v := range values {
		w := NewWriter()
		w.WriteVarZigZag32(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarZigZag32()
		if err != nil {
			t.Fatalf("ReadVarZigZag32(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("zigzag32 round-trip: want %d, got %d", v, got)
		}
	}
}

func TestZigZag64RoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 1 << 62, -(1 << 62)}
	for _, v := range values {
		w := NewWriter()
		w.WriteVarZigZag64(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarZigZag64()
		if err != nil {
			t.Fatalf("ReadVarZigZag64(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("zigzag64 round-trip: want %d, got %d", v, got)
		}
	}
}

// TestSignedVarintWithoutZigZag pins scenario 5 of the spec's testable
// properties: -1 must encode as the raw two's-complement bit pattern
// written as an unsigned varint (FF FF FF FF 0F), NOT as the ZigZag
// encoding of -1 (which would be a single 0x01 byte).
func TestSignedVarintWithoutZigZag(t *testing.T) {
	w := NewWriter()
	w.WriteVarintSigned32(-1)

	want := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}
	got := w.Bytes()
	if len(got) != len(want) {
		t.Fatalf("WriteVarintSigned32(-1): got %d bytes %x, want %x", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("WriteVarintSigned32(-1) = %x, want %x", got, want)
		}
	}

	r := NewReader(got)
	v, err := r.ReadVarintSigned32()
	if err != nil {
		t.Fatalf("ReadVarintSigned32: %v", err)
	}
	if v != -1 {
		t.Errorf("ReadVarintSigned32 round-trip: want -1, got %d", v)
	}

	// A bug-bait: the ZigZag encoding of -1 is a single 0x01 byte, which
	// must NOT equal the signed-without-ZigZag encoding above.
	zz := NewWriter()
	zz.WriteVarZigZag32(-1)
	if len(zz.Bytes()) == len(got) {
		t.Fatalf("ZigZag(-1) accidentally matches signed-without-ZigZag(-1) in length")
	}
}

func TestBlockPosRoundTrip(t *testing.T) {
	w := NewWriter()
	p := BlockPos{X: -100, Y: 64, Z: 200}
	w.WriteBlockPos(p)
	r := NewReader(w.Bytes())
	got, err := r.ReadBlockPos()
	if err != nil {
		t.Fatalf("ReadBlockPos: %v", err)
	}
	if got != p {
		t.Errorf("BlockPos round-trip: want %+v, got %+v", p, got)
	}
}

func TestUUID128LittleEndianHalves(t *testing.T) {
	w := NewWriter()
	u := UUID128{Lo: 0x0102030405060708, Hi: 0x1112131415161718}
	w.WriteUUID128(u)
	r := NewReader(w.Bytes())
	got, err := r.ReadUUID128()
	if err != nil {
		t.Fatalf("ReadUUID128: %v", err)
	}
	if got != u {
		t.Errorf("UUID128 round-trip: want %+v, got %+v", u, got)
	}
}

func TestReaderBufferOverflow(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.ReadUint32LE(); err == nil {
		t.Fatal("expected buffer overflow error")
	}
}
