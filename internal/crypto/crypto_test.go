package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"io"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestDeriveKeyDeterministic(t *testing.T) {
	kdf, err := NewKDF()
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}
	if len(kdf.Salt) != SaltSize {
		t.Fatalf("salt length = %d, want %d", len(kdf.Salt), SaltSize)
	}
	if kdf.Iterations != DefaultIters {
		t.Fatalf("iterations = %d, want %d", kdf.Iterations, DefaultIters)
	}

	key1, err := kdf.DeriveKey([]byte("hunter2"))
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	key2, err := kdf.DeriveKey([]byte("hunter2"))
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if len(key1) != KeySize {
		t.Fatalf("key length = %d, want %d", len(key1), KeySize)
	}
	if !bytes.Equal(key1, key2) {
		t.Error("same password and salt produced different keys")
	}

	key3, err := kdf.DeriveKey([]byte("hunter3"))
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if bytes.Equal(key1, key3) {
		t.Error("different passwords produced the same key")
	}

	other := &KDF{Salt: bytes.Repeat([]byte{1}, SaltSize), Iterations: DefaultIters}
	key4, err := other.DeriveKey([]byte("hunter2"))
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if bytes.Equal(key1, key4) {
		t.Error("different salts produced the same key")
	}
}

func TestDeriveKeyEmptyPassword(t *testing.T) {
	kdf := &KDF{Salt: make([]byte, SaltSize), Iterations: DefaultIters}
	if _, err := kdf.DeriveKey(nil); err != nil {
		t.Errorf("empty password should derive a key, got %v", err)
	}
}

func TestDeriveKeyInvalidSalt(t *testing.T) {
	tests := []struct {
		name string
		kdf  KDF
	}{
		{"nil salt", KDF{Iterations: DefaultIters}},
		{"short salt", KDF{Salt: make([]byte, 8), Iterations: DefaultIters}},
		{"long salt", KDF{Salt: make([]byte, 32), Iterations: DefaultIters}},
		{"zero iterations", KDF{Salt: make([]byte, SaltSize)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.kdf.DeriveKey([]byte("pw")); !errors.Is(err, ErrInvalidSalt) {
				t.Errorf("DeriveKey() error = %v, want ErrInvalidSalt", err)
			}
		})
	}
}

// NIST SP 800-38A F.2.5, first block, followed by one full padding block.
func TestEncryptKnownAnswer(t *testing.T) {
	key := mustHex(t, "603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4")
	iv := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	plaintext := mustHex(t, "6bc1bee22e409f96e93d7e117393172a")
	want := mustHex(t, "f58c4c04d6e5f1ba779eabfb5f7bfbd6")

	ciphertext, err := Encrypt(plaintext, key, iv)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(ciphertext) != 2*aes.BlockSize {
		t.Fatalf("ciphertext length = %d, want %d", len(ciphertext), 2*aes.BlockSize)
	}
	if !bytes.Equal(ciphertext[:aes.BlockSize], want) {
		t.Errorf("first block = %x, want %x", ciphertext[:aes.BlockSize], want)
	}

	decrypted, err := Decrypt(ciphertext, key, iv)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("Decrypt() = %x, want %x", decrypted, plaintext)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeySize)
	iv := bytes.Repeat([]byte{9}, IVSize)

	sizes := []int{0, 1, 15, 16, 17, streamChunk - 1, streamChunk, streamChunk + 1, 3*streamChunk + 5}
	for _, size := range sizes {
		plaintext := make([]byte, size)
		for i := range plaintext {
			plaintext[i] = byte(i * 31)
		}

		ciphertext, err := Encrypt(plaintext, key, iv)
		if err != nil {
			t.Fatalf("size %d: Encrypt failed: %v", size, err)
		}
		if len(ciphertext)%aes.BlockSize != 0 || len(ciphertext) <= size {
			t.Fatalf("size %d: unexpected ciphertext length %d", size, len(ciphertext))
		}

		decrypted, err := Decrypt(ciphertext, key, iv)
		if err != nil {
			t.Fatalf("size %d: Decrypt failed: %v", size, err)
		}
		if !bytes.Equal(decrypted, plaintext) {
			t.Errorf("size %d: round trip mismatch", size)
		}
	}
}

func TestStreamingMatchesStdlibCBC(t *testing.T) {
	key := bytes.Repeat([]byte{3}, KeySize)
	iv := bytes.Repeat([]byte{5}, IVSize)
	plaintext := bytes.Repeat([]byte("0123456789abcdef"), 5000)

	var out bytes.Buffer
	w, err := NewEncryptWriter(&out, key, iv)
	if err != nil {
		t.Fatalf("NewEncryptWriter failed: %v", err)
	}
	// Write in uneven pieces
	for off := 0; off < len(plaintext); off += 1000 {
		end := off + 1000
		if end > len(plaintext) {
			end = len(plaintext)
		}
		if _, err := w.Write(plaintext[off:end]); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	block, _ := aes.NewCipher(key)
	padded := append(append([]byte(nil), plaintext...), bytes.Repeat([]byte{16}, 16)...)
	want := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(want, padded)
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatal("streaming ciphertext differs from crypto/cipher CBC")
	}

	r, err := NewDecryptReader(bytes.NewReader(want), key, iv)
	if err != nil {
		t.Fatalf("NewDecryptReader failed: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Error("streaming decrypt mismatch")
	}
}

func TestDecryptInvalidPadding(t *testing.T) {
	key := bytes.Repeat([]byte{1}, KeySize)
	iv := bytes.Repeat([]byte{2}, IVSize)

	// A raw CBC block whose plaintext ends in 0x00 is never valid PKCS#7
	block, _ := aes.NewCipher(key)
	ciphertext := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, make([]byte, aes.BlockSize))

	if _, err := Decrypt(ciphertext, key, iv); !errors.Is(err, ErrInvalidPadding) {
		t.Errorf("Decrypt() error = %v, want ErrInvalidPadding", err)
	}
}

func TestDecryptInvalidCiphertext(t *testing.T) {
	key := bytes.Repeat([]byte{1}, KeySize)
	iv := bytes.Repeat([]byte{2}, IVSize)

	for _, size := range []int{0, 1, 15, 17} {
		if _, err := Decrypt(make([]byte, size), key, iv); !errors.Is(err, ErrInvalidCiphertext) {
			t.Errorf("size %d: Decrypt() error = %v, want ErrInvalidCiphertext", size, err)
		}
	}
}

func TestUnpad(t *testing.T) {
	good := append(bytes.Repeat([]byte{'a'}, 13), 3, 3, 3)
	got, err := unpad(good)
	if err != nil || len(got) != 13 {
		t.Errorf("unpad(valid) = %d bytes, %v", len(got), err)
	}

	bad := [][]byte{
		append(bytes.Repeat([]byte{'a'}, 15), 0),
		append(bytes.Repeat([]byte{'a'}, 15), 17),
		append(bytes.Repeat([]byte{'a'}, 13), 2, 3, 3),
	}
	for i, b := range bad {
		if _, err := unpad(b); !errors.Is(err, ErrInvalidPadding) {
			t.Errorf("case %d: unpad() error = %v, want ErrInvalidPadding", i, err)
		}
	}
}

func TestInvalidKeyOrIV(t *testing.T) {
	if _, err := Encrypt([]byte("x"), make([]byte, 16), make([]byte, IVSize)); err == nil {
		t.Error("expected error for 128-bit key")
	}
	if _, err := Encrypt([]byte("x"), make([]byte, KeySize), make([]byte, 12)); err == nil {
		t.Error("expected error for short IV")
	}
}

func TestClearBytes(t *testing.T) {
	b := []byte("secret")
	ClearBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not cleared", i)
		}
	}
}
