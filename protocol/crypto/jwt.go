package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the peer identity extracted from a verified login JWT chain:
// the stable account id, display name, the client's authoritative public
// key (used to verify the client's subsequent packets, e.g. skin data), and
// the chain's issuance bounds.
type Identity struct {
	XUID        string
	DisplayName string
	PublicKey   *ecdsa.PublicKey
	NotBefore   time.Time
	ExpiresAt   time.Time
}

// chainClaims mirrors the subset of the Bedrock login chain's claim set
// this server needs; other claims are ignored.
type chainClaims struct {
	jwt.RegisteredClaims
	IdentityPublicKey string          `json:"identityPublicKey"`
	ExtraData         *chainExtraData `json:"extraData,omitempty"`
}

type chainExtraData struct {
	XUID        string `json:"XUID"`
	DisplayName string `json:"displayName"`
}

// parseEC384PublicKey decodes a base64-standard-encoded DER SubjectPublicKeyInfo
// into an ECDSA P-384 public key, the format the login chain embeds in each
// token's "x5u"/"identityPublicKey" header or claim.
func parseEC384PublicKey(b64 string) (*ecdsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("crypto: decode public key base64: %w", err)
	}
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("crypto: parse public key der: %w", err)
	}
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("crypto: public key is not ECDSA")
	}
	return ecPub, nil
}

// VerifyES384 parses token and verifies its signature against pub, which
// must use the ES384 algorithm. Returns the token's claims on success.
func VerifyES384(token string, pub *ecdsa.PublicKey) (*chainClaims, error) {
	claims := &chainClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok || t.Method.Alg() != "ES384" {
			return nil, fmt.Errorf("crypto: unexpected signing method %v", t.Method.Alg())
		}
		return pub, nil
	}, jwt.WithValidMethods([]string{"ES384"}))
	if err != nil {
		return nil, fmt.Errorf("crypto: verify jwt: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("crypto: jwt signature invalid")
	}
	return claims, nil
}

// unverifiedPublicKey extracts the identityPublicKey claim from token
// without checking its signature.
func unverifiedPublicKey(token string) (*ecdsa.PublicKey, string, error) {
	claims := &chainClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"ES384"}))
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, "", fmt.Errorf("crypto: parse jwt: %w", err)
	}
	if claims.IdentityPublicKey == "" {
		return nil, "", fmt.Errorf("crypto: jwt missing identityPublicKey")
	}
	pub, err := parseEC384PublicKey(claims.IdentityPublicKey)
	return pub, claims.IdentityPublicKey, err
}

// VerifyLoginChain validates a Bedrock login JWT chain: each token's ES384
// signature is checked against the previous token's embedded
// identityPublicKey, and the chain is accepted if any token was signed by
// rootKey (online mode). The first token has no previous token: it is
// checked against rootKey in online mode, and its claims are read without
// a signature check in offline mode. In offline mode (rootKey == nil) the chain is
// accepted unconditionally once internally self-consistent, matching spec
// §4.6's "Login → Encryption" transition.
func VerifyLoginChain(chain []string, rootKey *ecdsa.PublicKey) (*Identity, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("crypto: empty login chain")
	}

	trusted := rootKey == nil // offline mode trusts the chain unconditionally
	var currentKey *ecdsa.PublicKey
	var last *chainClaims

	for i, token := range chain {
		verifyKey := currentKey
		if i == 0 {
			verifyKey = rootKey
		}

		if rootKey != nil && publicKeysEqual(verifyKey, rootKey) {
			trusted = true
		}

		var claims *chainClaims
		var err error
		if verifyKey == nil {
			claims = &chainClaims{}
			_, _, err = jwt.NewParser(jwt.WithValidMethods([]string{"ES384"})).ParseUnverified(token, claims)
		} else {
			claims, err = VerifyES384(token, verifyKey)
		}
		if err != nil {
			return nil, fmt.Errorf("crypto: chain link %d: %w", i, err)
		}
		last = claims

		nextKeyPub, err := parseEC384PublicKey(claims.IdentityPublicKey)
		if err != nil {
			return nil, fmt.Errorf("crypto: chain link %d: %w", i, err)
		}
		currentKey = nextKeyPub
	}

	if !trusted {
		return nil, fmt.Errorf("crypto: login chain not signed by a pinned root key")
	}
	if last == nil || last.ExtraData == nil {
		return nil, fmt.Errorf("crypto: login chain missing identity data")
	}

	id := &Identity{
		XUID:        last.ExtraData.XUID,
		DisplayName: last.ExtraData.DisplayName,
		PublicKey:   currentKey,
	}
	if last.NotBefore != nil {
		id.NotBefore = last.NotBefore.Time
	}
	if last.ExpiresAt != nil {
		id.ExpiresAt = last.ExpiresAt.Time
	}
	return id, nil
}

func publicKeysEqual(a, b *ecdsa.PublicKey) bool {
	if a == nil || b == nil {
		return false
	}
	return a.X.Cmp(b.X) == 0 && a.Y.Cmp(b.Y) == 0 && a.Curve == b.Curve
}

// handshakeClaims is the claim set carried by the server-to-client
// handshake JWT: just the salt the client needs to derive the same shared
// secret this server computes.
type handshakeClaims struct {
	jwt.RegisteredClaims
	Salt string `json:"salt"`
}

// GenerateHandshakeKeyPair produces the server's ES384 signing keypair for
// the encryption handshake. Its public key doubles as the server's ECDH
// key via (*ecdsa.PublicKey).ECDH() — the same P-384 keypair signs the JWT
// and derives the shared secret, mirroring how the client's login-chain
// key is reused for both purposes.
func GenerateHandshakeKeyPair() (*ecdsa.PrivateKey, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate handshake keypair: %w", err)
	}
	return priv, nil
}

// SignHandshakeToken builds and signs the server-to-client handshake JWT,
// embedding priv's public key in the x5u header (the base64 DER form
// parseEC384PublicKey decodes) and salt as a base64 claim.
func SignHandshakeToken(priv *ecdsa.PrivateKey, salt []byte) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return "", fmt.Errorf("crypto: marshal handshake public key: %w", err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES384, handshakeClaims{
		Salt: base64.StdEncoding.EncodeToString(salt),
	})
	token.Header["x5u"] = base64.StdEncoding.EncodeToString(der)
	signed, err := token.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("crypto: sign handshake token: %w", err)
	}
	return signed, nil
}
