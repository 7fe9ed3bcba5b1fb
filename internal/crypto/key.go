package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"nexus/internal/domain"
	"nexus/internal/util/memzero"
)

const (
	NonceBytes = 12
	TagBytes   = 16

	// DomainLabel separates these keys from any other use of the fingerprint.
	// Changing it breaks interoperability.
	DomainLabel = "nexus/neural-key/v1"
)

// Suite selects the AEAD construction. Every suite uses a 12-byte nonce and a
// 16-byte tag, so the ciphertext layout does not depend on it.
type Suite string

const (
	SuiteAESGCM           Suite = "aes-256-gcm"
	SuiteChaCha20Poly1305 Suite = "chacha20-poly1305"
)

// DefaultSuite is what peers use unless both are configured otherwise.
const DefaultSuite = SuiteAESGCM

// ParseSuite maps a configuration string onto a Suite. The empty string
// selects DefaultSuite.
func ParseSuite(s string) (Suite, error) {
	switch Suite(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultSuite, nil
	case SuiteAESGCM:
		return SuiteAESGCM, nil
	case SuiteChaCha20Poly1305:
		return SuiteChaCha20Poly1305, nil
	}
	return "", fmt.Errorf("unknown cipher suite %q", s)
}

// Key is derived key material bound to one AEAD instance.
type Key struct {
	suite Suite
	raw   []byte
	aead  cipher.AEAD
}

// DeriveKey hashes fingerprint || sessionID || DomainLabel with SHA-256 and
// uses the digest as the AEAD key. Equal inputs give interoperable keys on
// both peers. The fingerprint is opaque; any string is accepted.
func DeriveKey(fingerprint string, sessionID domain.SessionID, suite Suite) (*Key, error) {
	if suite == "" {
		suite = DefaultSuite
	}
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte(sessionID))
	h.Write([]byte(DomainLabel))
	raw := h.Sum(nil)

	aead, err := newAEAD(suite, raw)
	if err != nil {
		memzero.Zero(raw)
		return nil, fmt.Errorf("%w: derive key: %w", domain.ErrCrypto, err)
	}
	return &Key{suite: suite, raw: raw, aead: aead}, nil
}

func newAEAD(suite Suite, key []byte) (cipher.AEAD, error) {
	switch suite {
	case SuiteAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case SuiteChaCha20Poly1305:
		return chacha20poly1305.New(key)
	}
	return nil, fmt.Errorf("unsupported cipher suite %q", suite)
}

func (k *Key) Suite() Suite {
	if k == nil {
		return ""
	}
	return k.suite
}

func (k *Key) Usable() bool { return k != nil && k.aead != nil }

// SafetyCode is a short upper-case hex digest of the key that both users can
// read aloud to confirm they hold the same key.
func (k *Key) SafetyCode() string {
	if !k.Usable() {
		return ""
	}
	sum := sha256.Sum256(k.raw)
	return strings.ToUpper(hex.EncodeToString(sum[:4]))
}

// Destroy wipes the key bytes and drops the AEAD. It is safe to call more
// than once and on a nil key.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	memzero.Zero(k.raw)
	k.raw = nil
	k.aead = nil
}

func (k *Key) String() string {
	if !k.Usable() {
		return "crypto.Key(destroyed)"
	}
	return "crypto.Key(" + string(k.suite) + ")"
}
