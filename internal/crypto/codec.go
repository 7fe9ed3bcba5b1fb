package crypto

import (
	"crypto/rand"
	"fmt"
	"unicode/utf8"

	"nexus/internal/domain"
)

// Encrypt seals plaintext under k with a fresh random nonce and returns
// base64(nonce || ciphertext || tag).
func Encrypt(plaintext string, k *Key) (string, error) {
	if !k.Usable() {
		return "", fmt.Errorf("%w: no key available", domain.ErrCrypto)
	}
	buf := make([]byte, NonceBytes, NonceBytes+len(plaintext)+k.aead.Overhead())
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: nonce: %w", domain.ErrCrypto, err)
	}
	sealed := k.aead.Seal(buf, buf[:NonceBytes], []byte(plaintext), nil)
	return B64(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. It fails with domain.ErrCrypto if
// the key is missing, the blob is not base64, is shorter than a nonce, does
// not authenticate, or does not decode as UTF-8.
func Decrypt(blob string, k *Key) (string, error) {
	if !k.Usable() {
		return "", fmt.Errorf("%w: no key available", domain.ErrCrypto)
	}
	raw, err := unB64(blob)
	if err != nil {
		return "", fmt.Errorf("%w: malformed ciphertext: %w", domain.ErrCrypto, err)
	}
	if len(raw) < NonceBytes {
		return "", fmt.Errorf("%w: ciphertext shorter than nonce (%d bytes)", domain.ErrCrypto, len(raw))
	}
	pt, err := k.aead.Open(nil, raw[:NonceBytes], raw[NonceBytes:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", domain.ErrCrypto)
	}
	if !utf8.Valid(pt) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", domain.ErrCrypto)
	}
	return string(pt), nil
}
