package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/illarion/blackbox/internal/entry"
	"github.com/illarion/blackbox/internal/storage"
	"go.uber.org/zap"
)

// EntryInfo describes one entry for listings. Size is the stored
// (compressed) size.
type EntryInfo struct {
	Name      string
	MediaType string
	Size      int64
}

// AddEntry compresses size bytes from src into a new entry, replacing any
// entry with the same name. size may be negative when unknown.
func (c *Container) AddEntry(ctx context.Context, name, mediaType string, src io.Reader, size int64, progress entry.ProgressFunc) error {
	if err := c.requireUnlocked(); err != nil {
		return err
	}
	if err := addEntry(ctx, c.table, c.spool, name, mediaType, src, size, progress); err != nil {
		return err
	}
	c.log.Debug("added entry", zap.String("name", name), zap.String("type", mediaType), zap.Int64("size", size))
	return nil
}

func addEntry(ctx context.Context, table *entry.Table, spool entry.Spool, name, mediaType string, src io.Reader, size int64, progress entry.ProgressFunc) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	blob, err := spool.Compress(ctx, src, size, progress)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	return table.Put(entry.New(name, mediaType, blob))
}

// AddFile adds the file at path as an entry named after its base name,
// with a sniffed media type. It returns the entry name.
func (c *Container) AddFile(ctx context.Context, path string, progress entry.ProgressFunc) (string, error) {
	if err := c.requireUnlocked(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fsError(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fsError(err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidName, path)
	}

	br := bufio.NewReaderSize(f, entry.SniffSize)
	sample, err := br.Peek(entry.SniffSize)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := filepath.Base(path)
	mediaType := entry.DetectMediaType(name, sample)
	if err := c.AddEntry(ctx, name, mediaType, br, info.Size(), progress); err != nil {
		return "", err
	}
	return name, nil
}

// RemoveEntry deletes an entry and releases its content
func (c *Container) RemoveEntry(name string) error {
	if err := c.requireUnlocked(); err != nil {
		return err
	}
	removed, err := c.table.Remove(name)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: entry %s", ErrNotFound, name)
	}
	c.log.Debug("removed entry", zap.String("name", name))
	return nil
}

// Entry returns the named entry
func (c *Container) Entry(name string) (*entry.Entry, error) {
	if err := c.requireUnlocked(); err != nil {
		return nil, err
	}
	return lookup(c.table, name)
}

func lookup(table *entry.Table, name string) (*entry.Entry, error) {
	e, ok := table.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: entry %s", ErrNotFound, name)
	}
	return e, nil
}

// List returns all entries sorted by name
func (c *Container) List() ([]EntryInfo, error) {
	if err := c.requireUnlocked(); err != nil {
		return nil, err
	}
	return listEntries(c.table)
}

func listEntries(table *entry.Table) ([]EntryInfo, error) {
	entries := table.Entries()
	infos := make([]EntryInfo, 0, len(entries))
	for _, e := range entries {
		size, err := e.Size()
		if err != nil {
			return nil, err
		}
		infos = append(infos, EntryInfo{Name: e.Name(), MediaType: e.MediaType(), Size: size})
	}
	return infos, nil
}

// Extract writes the decompressed content of an entry to w
func (c *Container) Extract(ctx context.Context, name string, w io.Writer, progress entry.ProgressFunc) (int64, error) {
	if err := c.requireUnlocked(); err != nil {
		return 0, err
	}
	e, err := lookup(c.table, name)
	if err != nil {
		return 0, err
	}
	return e.Extract(ctx, w, progress)
}

// ExtractFile writes an entry to dest. dest is replaced atomically, so a
// failed extraction leaves any existing file as it was.
func (c *Container) ExtractFile(ctx context.Context, name, dest string, progress entry.ProgressFunc) error {
	if err := c.requireUnlocked(); err != nil {
		return err
	}
	e, err := lookup(c.table, name)
	if err != nil {
		return err
	}

	err = storage.WriteAtomic(dest, FilePermSecure, func(w io.Writer) error {
		_, err := e.Extract(ctx, w, progress)
		return err
	})
	if err != nil {
		return fsError(err)
	}
	c.log.Debug("extracted entry", zap.String("name", name), zap.String("dest", dest))
	return nil
}

// Diff returns a unified diff from the stored entry to local, or an empty
// string when they are identical.
func (c *Container) Diff(ctx context.Context, name string, local []byte) (string, error) {
	if err := c.requireUnlocked(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e, err := lookup(c.table, name)
	if err != nil {
		return "", err
	}
	stored, err := e.ReadAll()
	if err != nil {
		return "", err
	}
	return GenerateUnifiedDiff(name, stored, local)
}
