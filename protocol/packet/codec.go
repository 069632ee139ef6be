package packet

import (
	"fmt"

	"github.com/bedrockd/bedrockd/protocol/compress"
	"github.com/bedrockd/bedrockd/protocol/crypto"
)

// Cipher is the minimal surface codec.go needs from a session's encryption
// state: per-direction AES-CFB8 streams plus their independent integrity
// counters. Session.CipherState satisfies this directly; it is expressed
// as an interface here so the codec has no import-cycle dependency on the
// session package.
type Cipher interface {
	EncryptOutbound(plaintext []byte) []byte
	DecryptInbound(ciphertext []byte) ([]byte, error)
}

// EncodePipeline runs the full outbound pipeline for one logical batch:
// marshal every packet, compress the concatenation against threshold,
// optionally encrypt, then prefix the game-packet envelope byte. cipher
// may be nil before the encryption handshake completes.
func EncodePipeline(packets []Packet, codec compress.Codec, threshold int, cipher Cipher) ([]byte, error) {
	raw := EncodeBatch(packets)

	compressed, err := compress.EncodeBatch(codec, raw, threshold)
	if err != nil {
		return nil, fmt.Errorf("packet: compress batch: %w", err)
	}

	body := compressed
	if cipher != nil {
		body = cipher.EncryptOutbound(compressed)
	}

	out := make([]byte, 0, len(body)+1)
	out = append(out, EnvelopeByte)
	out = append(out, body...)
	return out, nil
}

// DecodePipeline reverses EncodePipeline: strips the envelope byte,
// decrypts if cipher is active, decompresses, then splits the batch into
// its constituent packets.
func DecodePipeline(data []byte, codec compress.Codec, cipher Cipher) ([]DecodedEntry, error) {
	if len(data) == 0 || data[0] != EnvelopeByte {
		return nil, fmt.Errorf("packet: missing envelope byte 0x%02x", EnvelopeByte)
	}
	body := data[1:]

	if cipher != nil {
		plain, err := cipher.DecryptInbound(body)
		if err != nil {
			return nil, fmt.Errorf("packet: decrypt inbound: %w", err)
		}
		body = plain
	}

	raw, err := compress.DecodeBatch(codec, body)
	if err != nil {
		return nil, fmt.Errorf("packet: decompress batch: %w", err)
	}

	return DecodeBatch(raw)
}

// sessionCipher adapts a pair of CFB8 streams plus their integrity-tag
// counters into the Cipher interface: each direction appends an 8-byte
// integrity tag to the plaintext before encrypting.
type sessionCipher struct {
	encrypt *crypto.CFB8Cipher
	decrypt *crypto.CFB8Cipher

	secretKey []byte

	sendCounter *uint64
	recvCounter *uint64
}

// NewSessionCipher builds a Cipher over a session's established CFB8
// streams. sendCounter and recvCounter are pointers into the session's
// CipherState so both directions stay in lockstep across calls.
func NewSessionCipher(encrypt, decrypt *crypto.CFB8Cipher, secretKey []byte, sendCounter, recvCounter *uint64) Cipher {
	return &sessionCipher{
		encrypt:     encrypt,
		decrypt:     decrypt,
		secretKey:   secretKey,
		sendCounter: sendCounter,
		recvCounter: recvCounter,
	}
}

func (c *sessionCipher) EncryptOutbound(plaintext []byte) []byte {
	tag := crypto.IntegrityTag(*c.sendCounter, plaintext, c.secretKey)
	*c.sendCounter++

	tagged := make([]byte, 0, len(plaintext)+len(tag))
	tagged = append(tagged, plaintext...)
	tagged = append(tagged, tag[:]...)

	ciphertext := make([]byte, len(tagged))
	c.encrypt.Encrypt(ciphertext, tagged)
	return ciphertext
}

func (c *sessionCipher) DecryptInbound(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 8 {
		return nil, fmt.Errorf("packet: ciphertext too short for integrity tag")
	}
	plaintext := make([]byte, len(ciphertext))
	c.decrypt.Decrypt(plaintext, ciphertext)

	body, gotTag := plaintext[:len(plaintext)-8], plaintext[len(plaintext)-8:]
	wantTag := crypto.IntegrityTag(*c.recvCounter, body, c.secretKey)
	if string(gotTag) != string(wantTag[:]) {
		return nil, fmt.Errorf("packet: integrity tag mismatch at counter %d", *c.recvCounter)
	}
	*c.recvCounter++
	return body, nil
}
