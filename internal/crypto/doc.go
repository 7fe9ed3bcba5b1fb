// Package crypto holds the key derivation and message codec used once two
// peers have agreed on a fingerprint.
//
// Contents
//
//   - DeriveKey turns a synchronization fingerprint and session id into a
//     256-bit AEAD key (SHA-256 over fingerprint || session id || label).
//   - Encrypt and Decrypt seal and open chat content. The wire format is
//     base64(nonce(12) || ciphertext || tag(16)) with no associated data.
//   - Two cipher suites share that layout: AES-256-GCM (default) and
//     ChaCha20-Poly1305. Both peers must use the same one.
//
// # Notes
//
// A Key never leaves this package in raw form. It cannot be serialised and
// its String method does not print key bytes. Call Destroy when the session
// ends.
package crypto
