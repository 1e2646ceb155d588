package storage

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeRaw(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func TestWriteAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.box")
	salt := bytes.Repeat([]byte{0x11}, 16)
	iv := bytes.Repeat([]byte{0x22}, 16)
	ciphertext := bytes.Repeat([]byte{0x33}, 48)

	err := WriteAtomic(path, 0600, func(w io.Writer) error {
		if err := WriteHeader(w, Header{Salt: salt, IV: iv}); err != nil {
			return err
		}
		_, err := w.Write(ciphertext)
		return err
	})
	if err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	want := append(append(append([]byte{}, salt...), iv...), ciphertext...)
	if !bytes.Equal(raw, want) {
		t.Fatalf("File layout mismatch")
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if !bytes.Equal(f.Header.Salt, salt) || !bytes.Equal(f.Header.IV, iv) {
		t.Errorf("Header mismatch: %x %x", f.Header.Salt, f.Header.IV)
	}
	if f.CiphertextSize != int64(len(ciphertext)) {
		t.Errorf("CiphertextSize = %d, want %d", f.CiphertextSize, len(ciphertext))
	}
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("Failed to read ciphertext: %v", err)
	}
	if !bytes.Equal(got, ciphertext) {
		t.Errorf("Ciphertext mismatch")
	}

	salt2, exists, err := ReadSalt(path)
	if err != nil || !exists {
		t.Fatalf("ReadSalt failed: exists=%v err=%v", exists, err)
	}
	if !bytes.Equal(salt2, salt) {
		t.Errorf("ReadSalt = %x, want %x", salt2, salt)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.box"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}

	_, exists, err := ReadSalt(filepath.Join(t.TempDir(), "missing.box"))
	if err != nil || exists {
		t.Errorf("ReadSalt on missing file: exists=%v err=%v", exists, err)
	}
}

func TestOpenTruncated(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"partial salt", 10},
		{"partial iv", 20},
		{"header only", 32},
		{"partial block", 32 + 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.box")
			writeRaw(t, path, make([]byte, tt.size))

			_, err := Open(path)
			if !errors.Is(err, ErrTruncated) {
				t.Errorf("Expected ErrTruncated, got %v", err)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "short.box")
	writeRaw(t, path, make([]byte, 5))
	if _, _, err := ReadSalt(path); !errors.Is(err, ErrTruncated) {
		t.Errorf("ReadSalt: expected ErrTruncated, got %v", err)
	}
}

func TestWriteAtomicFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.box")
	writeRaw(t, path, []byte("original"))

	boom := errors.New("boom")
	err := WriteAtomic(path, 0600, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected callback error, got %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("Original file modified: %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Temp file left behind: %d entries", len(entries))
	}
}

func TestWriteHeaderInvalid(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, Header{Salt: make([]byte, 8), IV: make([]byte, 16)}); err == nil {
		t.Error("Expected error for short salt")
	}
}
