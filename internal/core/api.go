package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/illarion/blackbox/internal/crypto"
	"github.com/illarion/blackbox/internal/entry"
	"github.com/illarion/blackbox/internal/storage"
)

// The functions below work on a bare entry table for callers that keep
// their own state between calls. Each one runs a short-lived session.

// CreateContainer writes a new empty container at path and returns its
// empty table.
func CreateContainer(ctx context.Context, path string, password []byte, opts ...Option) (*entry.Table, error) {
	c, err := Create(path, password, opts...)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := c.Save(ctx, nil); err != nil {
		return nil, err
	}
	return c.detach(), nil
}

// OpenContainer decrypts the container at path and hands its table to the
// caller, who must Dispose it.
func OpenContainer(ctx context.Context, path string, password []byte, progress entry.ProgressFunc, opts ...Option) (*entry.Table, error) {
	c, err := Open(ctx, path, password, progress, opts...)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.detach(), nil
}

// SaveContainer encrypts table to path, keeping the salt of an existing
// file. The table stays owned by the caller.
func SaveContainer(ctx context.Context, path string, password []byte, table *entry.Table, progress entry.ProgressFunc, opts ...Option) error {
	salt, exists, err := storage.ReadSalt(path)
	if err != nil {
		if errors.Is(err, storage.ErrTruncated) {
			return fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return fsError(err)
	}
	if !exists {
		kdf, err := crypto.NewKDF()
		if err != nil {
			return fmt.Errorf("failed to create KDF: %w", err)
		}
		salt = kdf.Salt
	}

	c := newContainer(path, password, opts)
	if err := c.unlock(salt); err != nil {
		return err
	}
	c.table = table
	c.owned = false
	defer c.Close()

	return c.Save(ctx, progress)
}

// AddEntry compresses src into table under name and returns the table.
func AddEntry(ctx context.Context, table *entry.Table, name, mediaType string, src io.Reader, size int64, progress entry.ProgressFunc, opts ...Option) (*entry.Table, error) {
	c := newContainer("", nil, opts)
	if err := addEntry(ctx, table, c.spool, name, mediaType, src, size, progress); err != nil {
		return nil, err
	}
	return table, nil
}

// ExtractEntry writes the decompressed content of the named entry to w.
func ExtractEntry(ctx context.Context, table *entry.Table, name string, w io.Writer, progress entry.ProgressFunc) error {
	e, err := lookup(table, name)
	if err != nil {
		return err
	}
	_, err = e.Extract(ctx, w, progress)
	return err
}

// ListEntries describes every entry in table, sorted by name.
func ListEntries(table *entry.Table) ([]EntryInfo, error) {
	return listEntries(table)
}

// detach hands the table to the caller so Close does not dispose it
func (c *Container) detach() *entry.Table {
	c.owned = false
	return c.table
}

// Info is what can be learned about a container without its password
type Info struct {
	Path          string
	ID            string
	Size          int64
	Modified      time.Time
	Algorithm     string
	KDF           string
	KDFIterations int
}

// Stat reads the unencrypted header of a container.
func Stat(path string) (*Info, error) {
	f, err := storage.Open(path)
	if err != nil {
		if errors.Is(err, storage.ErrTruncated) {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return nil, fsError(err)
	}
	defer f.Close()

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fsError(err)
	}

	return &Info{
		Path:          path,
		ID:            idFromSalt(f.Header.Salt),
		Size:          fi.Size(),
		Modified:      fi.ModTime(),
		Algorithm:     "AES-256-CBC",
		KDF:           "PBKDF2-HMAC-SHA256",
		KDFIterations: crypto.DefaultIters,
	}, nil
}
