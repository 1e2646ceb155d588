package entry

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
)

// Entry is one named, typed, compressed payload.
type Entry struct {
	name      string
	mediaType string
	blob      Blob
}

// New creates an entry that takes ownership of blob.
// An empty media type is recorded as Unknown.
func New(name, mediaType string, blob Blob) *Entry {
	if mediaType == "" {
		mediaType = Unknown
	}
	return &Entry{name: name, mediaType: mediaType, blob: blob}
}

func (e *Entry) Name() string      { return e.name }
func (e *Entry) MediaType() string { return e.mediaType }
func (e *Entry) Blob() Blob        { return e.blob }

// Size returns the stored (compressed) size.
func (e *Entry) Size() (int64, error) {
	return e.blob.Size()
}

// Open returns a decompressing reader over the content.
func (e *Entry) Open() (io.ReadCloser, error) {
	return e.blob.Open()
}

// Extract decompresses the content into w. Progress follows the compressed
// bytes consumed, so it is exact for both memory and staged blobs.
func (e *Entry) Extract(ctx context.Context, w io.Writer, progress ProgressFunc) (int64, error) {
	size, err := e.blob.Size()
	if err != nil {
		return 0, err
	}
	raw, err := e.blob.Raw()
	if err != nil {
		return 0, err
	}
	defer raw.Close()

	tracker := NewTracker(progress, size)
	zr, err := gzip.NewReader(NewProgressReader(ctx, raw, tracker))
	if err != nil {
		return 0, fmt.Errorf("failed to open compressed content of %s: %w", e.name, err)
	}
	defer zr.Close()

	n, err := io.CopyBuffer(w, zr, make([]byte, copyBufferSize))
	if err != nil {
		return n, fmt.Errorf("failed to extract %s: %w", e.name, err)
	}
	tracker.Finish()
	return n, nil
}

// ReadAll returns the full decompressed content.
func (e *Entry) ReadAll() ([]byte, error) {
	rc, err := e.blob.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Dispose releases the entry's backing storage.
func (e *Entry) Dispose() error {
	return e.blob.Dispose()
}
