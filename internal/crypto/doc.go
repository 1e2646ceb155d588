// Package crypto provides cryptographic operations for blackbox.
//
// Encryption uses AES-256-CBC with:
//   - 32-byte key derived from password via PBKDF2
//   - 16-byte random IV per save, stored in the clear
//   - PKCS#7 padding, whose validity is the wrong-key signal
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt (stored unencrypted, stable per container)
//   - 65,536 iterations
//
// Both whole-buffer (Encrypt, Decrypt) and streaming (NewEncryptWriter,
// NewDecryptReader) forms produce identical bytes.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
package crypto
