package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// CFB8Cipher implements AES-256 in 8-bit cipher-feedback (CFB-8) mode with
// a single evolving shift register: decrypting packet N needs every prior
// packet in this direction to have been decrypted in order, which the
// reliability layer's ordering channel 0 already guarantees.
//
// The standard library's crypto/cipher only implements full-block
// (128-bit segment) CFB, so the 8-bit segment feedback register is
// implemented here by hand, one byte of keystream at a time.
type CFB8Cipher struct {
	block cipher.Block
	state []byte // 16-byte shift register, mutated in place per byte processed
}

// NewCFB8Cipher builds a CFB8Cipher keyed by key (32 bytes for AES-256)
// with initial shift-register contents iv (16 bytes). Separate instances
// must be created for the send and receive directions — they evolve
// independently.
func NewCFB8Cipher(key, iv []byte) (*CFB8Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new aes cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("crypto: iv must be %d bytes, got %d", block.BlockSize(), len(iv))
	}
	state := make([]byte, len(iv))
	copy(state, iv)
	return &CFB8Cipher{block: block, state: state}, nil
}

// Encrypt transforms src into dst (may alias), advancing the shift register
// by one position per byte using the ciphertext it produces.
func (c *CFB8Cipher) Encrypt(dst, src []byte) {
	var o [aes.BlockSize]byte
	for i, p := range src {
		c.block.Encrypt(o[:], c.state)
		ct := p ^ o[0]
		dst[i] = ct
		c.shift(ct)
	}
}

// Decrypt transforms src into dst (may alias), advancing the shift register
// by one position per byte using the ciphertext it consumes.
func (c *CFB8Cipher) Decrypt(dst, src []byte) {
	var o [aes.BlockSize]byte
	for i, ct := range src {
		c.block.Encrypt(o[:], c.state)
		dst[i] = ct ^ o[0]
		c.shift(ct)
	}
}

// shift drops the oldest byte of the register and appends the newest
// ciphertext byte, the standard CFB-8 feedback step.
func (c *CFB8Cipher) shift(ciphertextByte byte) {
	copy(c.state, c.state[1:])
	c.state[len(c.state)-1] = ciphertextByte
}

// IntegrityTag computes the 8-byte tag appended to a packet before
// encryption: the first 8 bytes of SHA-256(counter-as-LE-u64 || plaintext
// || secretKey). counter is the per-direction send counter, initialized to
// 0 at handshake completion and incremented per encrypted packet; it
// prevents replay and, combined with the CFB-8 chaining, detects tampering.
func IntegrityTag(counter uint64, plaintext, secretKey []byte) [8]byte {
	var counterLE [8]byte
	binary.LittleEndian.PutUint64(counterLE[:], counter)

	h := sha256.New()
	h.Write(counterLE[:])
	h.Write(plaintext)
	h.Write(secretKey)
	sum := h.Sum(nil)

	var tag [8]byte
	copy(tag[:], sum[:8])
	return tag
}
