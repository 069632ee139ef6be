// Package crypto implements the cryptographic primitives the login and
// encryption handshake depend on: ECDH key agreaement over the 384-bit
// prime curve, AES-256 in 8-bit cipher-feedback mode, SHA-256, and JWT
// parsing with ES384 signature verification.
//
// Built on the standard library's crypto/ecdh, crypto/aes, crypto/cipher
// and crypto/sha256 — see DESIGN.md for why these primitives stay on the
// standard library rather than reach for a third-party dependency.
package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// Curve is the 384-bit prime curve (P-384 / secp384r1) the login handshake
// and the server's ephemeral ECDH keypair both use.
func Curve() ecdh.Curve { return ecdh.P384() }

// GenerateKeyPair produces a fresh ephemeral ECDH keypair on Curve, used for
// the server's side of the server-to-client handshake.
func GenerateKeyPair() (*ecdh.PrivateKey, error) {
	priv, err := Curve().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate ecdh keypair: %w", err)
	}
	return priv, nil
}

// ParsePublicKey decodes an uncompressed point on Curve (the format
// embedded in the client's login JWT and in the server's handshake JWT).
func ParsePublicKey(raw []byte) (*ecdh.PublicKey, error) {
	pub, err := Curve().NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("crypto: parse ecdh public key: %w", err)
	}
	return pub, nil
}

// SharedSecret computes the ECDH shared secret between priv and peerPub.
func SharedSecret(priv *ecdh.PrivateKey, peerPub *ecdh.PublicKey) ([]byte, error) {
	secret, err := priv.ECDH(peerPub)
	if err != nil {
		return nil, fmt.Errorf("crypto: compute shared secret: %w", err)
	}
	return secret, nil
}

// DeriveSecretKey computes secret-key = SHA-256(salt || shared-secret), the
// AES-256 key used for both the send and receive cipher directions. The
// first 16 bytes of the result double as the CFB-8 IV for both directions
// — see NewCFB8Cipher.
func DeriveSecretKey(salt, sharedSecret []byte) []byte {
	h := sha256.New()
	h.Write(salt)
	h.Write(sharedSecret)
	return h.Sum(nil)
}
