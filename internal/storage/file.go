package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/illarion/blackbox/internal/crypto"
)

// HeaderSize is the length of the salt and IV prefix.
const HeaderSize = crypto.SaltSize + crypto.IVSize

// ErrTruncated is returned when a container file is too short to hold its
// header, or its ciphertext is not made of whole cipher blocks.
var ErrTruncated = errors.New("container file is truncated")

// Header is the unencrypted prefix of a container file
type Header struct {
	Salt []byte
	IV   []byte
}

// File is an open container file positioned at the start of the ciphertext.
type File struct {
	f      *os.File
	Header Header
	// CiphertextSize is the number of bytes after the header
	CiphertextSize int64
}

// Open opens a container file and reads its header. A missing file is
// reported with an error matching fs.ErrNotExist.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat container: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}

	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, hdr); err != nil {
		f.Close()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: header needs %d bytes", ErrTruncated, HeaderSize)
		}
		return nil, fmt.Errorf("failed to read container header: %w", err)
	}

	size := info.Size() - HeaderSize
	if size == 0 || size%crypto.IVSize != 0 {
		f.Close()
		return nil, fmt.Errorf("%w: ciphertext of %d bytes", ErrTruncated, size)
	}

	return &File{
		f: f,
		Header: Header{
			Salt: hdr[:crypto.SaltSize],
			IV:   hdr[crypto.SaltSize:],
		},
		CiphertextSize: size,
	}, nil
}

// Read reads ciphertext
func (c *File) Read(p []byte) (int, error) {
	return c.f.Read(p)
}

// Close closes the underlying file
func (c *File) Close() error {
	return c.f.Close()
}

// ReadSalt returns the salt of an existing container file. exists is false
// when there is no file at path.
func ReadSalt(path string) (salt []byte, exists bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	salt = make([]byte, crypto.SaltSize)
	if _, err := io.ReadFull(f, salt); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, true, fmt.Errorf("%w: salt needs %d bytes", ErrTruncated, crypto.SaltSize)
		}
		return nil, true, fmt.Errorf("failed to read salt: %w", err)
	}
	return salt, true, nil
}

// WriteHeader writes the salt and IV prefix.
func WriteHeader(w io.Writer, h Header) error {
	if len(h.Salt) != crypto.SaltSize || len(h.IV) != crypto.IVSize {
		return fmt.Errorf("invalid header: salt %d bytes, iv %d bytes", len(h.Salt), len(h.IV))
	}
	if _, err := w.Write(h.Salt); err != nil {
		return err
	}
	_, err := w.Write(h.IV)
	return err
}

// WriteAtomic replaces path with the bytes written by fn. The previous file,
// if any, is left untouched unless fn and the final rename both succeed.
func WriteAtomic(path string, perm os.FileMode, fn func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	committed = true
	return nil
}
