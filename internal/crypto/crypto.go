package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 16    // Salt size in bytes
	IVSize       = 16    // CBC initialization vector size
	KeySize      = 32    // AES-256 key size
	DefaultIters = 65536 // PBKDF2 iterations fixed by the container format
)

var (
	ErrInvalidSalt       = errors.New("invalid key derivation parameters")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrInvalidPadding    = errors.New("invalid padding")
)

// KDF handles key derivation from passwords
type KDF struct {
	Salt       []byte
	Iterations int
}

// NewKDF creates a new KDF with a random salt
func NewKDF() (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	return &KDF{
		Salt:       salt,
		Iterations: DefaultIters,
	}, nil
}

// DeriveKey derives an encryption key from a password.
// The password content never causes an error; only malformed parameters do.
func (k *KDF) DeriveKey(password []byte) ([]byte, error) {
	if len(k.Salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt is %d bytes, want %d", ErrInvalidSalt, len(k.Salt), SaltSize)
	}
	if k.Iterations <= 0 {
		return nil, fmt.Errorf("%w: iterations must be positive", ErrInvalidSalt)
	}
	return pbkdf2.Key(password, k.Salt, k.Iterations, KeySize, sha256.New), nil
}

// Encrypt encrypts plaintext using AES-256-CBC with PKCS#7 padding
func Encrypt(plaintext, key, iv []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(plaintext) + IVSize)

	w, err := NewEncryptWriter(&buf, key, iv)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decrypt decrypts AES-256-CBC ciphertext and strips its padding.
// ErrInvalidPadding usually means the key is wrong.
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%IVSize != 0 {
		return nil, ErrInvalidCiphertext
	}

	r, err := NewDecryptReader(bytes.NewReader(ciphertext), key, iv)
	if err != nil {
		return nil, err
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		ClearBytes(plaintext)
		return nil, err
	}
	return plaintext, nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
