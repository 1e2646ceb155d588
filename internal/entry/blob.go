package entry

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErrDisposed is returned by any read on a blob after Dispose.
var ErrDisposed = errors.New("entry content already disposed")

// Blob holds the compressed form of one entry's content.
type Blob interface {
	// Size returns the stored (compressed) size in bytes.
	Size() (int64, error)
	// Open returns a fresh decompressing reader over the content.
	Open() (io.ReadCloser, error)
	// Raw returns the compressed bytes as stored.
	Raw() (io.ReadCloser, error)
	// Dispose releases the backing memory or temp file. It is idempotent.
	Dispose() error
}

// gzipReadCloser closes both the gzip stream and its source.
type gzipReadCloser struct {
	*gzip.Reader
	src io.Closer
}

func (g *gzipReadCloser) Close() error {
	err := g.Reader.Close()
	if cerr := g.src.Close(); err == nil {
		err = cerr
	}
	return err
}

func openCompressed(raw io.ReadCloser) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("failed to open compressed content: %w", err)
	}
	return &gzipReadCloser{Reader: zr, src: raw}, nil
}

// memoryBlob keeps the compressed bytes in memory
type memoryBlob struct {
	mu       sync.Mutex
	data     []byte
	disposed bool
}

func newMemoryBlob(data []byte) *memoryBlob {
	return &memoryBlob{data: data}
}

func (m *memoryBlob) Size() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return 0, ErrDisposed
	}
	return int64(len(m.data)), nil
}

func (m *memoryBlob) Raw() (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return nil, ErrDisposed
	}
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m *memoryBlob) Open() (io.ReadCloser, error) {
	raw, err := m.Raw()
	if err != nil {
		return nil, err
	}
	return openCompressed(raw)
}

func (m *memoryBlob) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return nil
	}
	for i := range m.data {
		m.data[i] = 0
	}
	m.data = nil
	m.disposed = true
	return nil
}

// stagedBlob keeps the compressed bytes in a temp file owned by the blob
type stagedBlob struct {
	mu       sync.Mutex
	path     string
	size     int64
	disposed bool
}

func (s *stagedBlob) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return 0, ErrDisposed
	}
	return s.size, nil
}

func (s *stagedBlob) Raw() (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil, ErrDisposed
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staged content: %w", err)
	}
	return f, nil
}

func (s *stagedBlob) Open() (io.ReadCloser, error) {
	raw, err := s.Raw()
	if err != nil {
		return nil, err
	}
	return openCompressed(raw)
}

func (s *stagedBlob) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil
	}
	s.disposed = true
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove staged content: %w", err)
	}
	return nil
}

// Path returns the backing temp file; it is only meaningful before Dispose.
func (s *stagedBlob) Path() string {
	return s.path
}
