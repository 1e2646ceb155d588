package entry

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
)

// Mode selects where compressed content lives.
type Mode int

const (
	ModeAuto   Mode = iota // Stage content larger than the threshold
	ModeMemory             // Always keep content in memory
	ModeStaged             // Always stage content in a temp file
)

const (
	DefaultThreshold = 8 << 20 // 8 MiB
	copyBufferSize   = 8192
	tempPattern      = "blackbox-*.tmp"
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "auto":
		return ModeAuto, nil
	case "memory":
		return ModeMemory, nil
	case "staged":
		return ModeStaged, nil
	}
	return ModeAuto, fmt.Errorf("unknown stage mode %q (want auto, memory or staged)", s)
}

func (m Mode) String() string {
	switch m {
	case ModeMemory:
		return "memory"
	case ModeStaged:
		return "staged"
	default:
		return "auto"
	}
}

// Spool builds blobs, choosing between memory and staged storage.
// The zero value stages anything over DefaultThreshold in os.TempDir().
type Spool struct {
	Mode      Mode
	Threshold int64
	Dir       string
}

func (s Spool) staged(size int64) bool {
	switch s.Mode {
	case ModeMemory:
		return false
	case ModeStaged:
		return true
	}
	if size < 0 {
		return true
	}
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return size > threshold
}

// Compress reads plaintext from src and returns its compressed blob.
// size is the expected number of source bytes (negative if unknown) and
// drives both the strategy choice and progress percentages.
func (s Spool) Compress(ctx context.Context, src io.Reader, size int64, progress ProgressFunc) (Blob, error) {
	tracker := NewTracker(progress, size)
	in := NewProgressReader(ctx, src, tracker)

	var blob Blob
	var err error
	if s.staged(size) {
		blob, err = s.compressStaged(in)
	} else {
		blob, err = compressMemory(in)
	}
	if err != nil {
		return nil, err
	}

	tracker.Finish()
	return blob, nil
}

func compress(dst io.Writer, src io.Reader) error {
	zw := gzip.NewWriter(dst)
	if _, err := io.CopyBuffer(zw, src, make([]byte, copyBufferSize)); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func compressMemory(src io.Reader) (Blob, error) {
	var buf bytes.Buffer
	if err := compress(&buf, src); err != nil {
		return nil, fmt.Errorf("failed to compress content: %w", err)
	}
	return newMemoryBlob(buf.Bytes()), nil
}

func (s Spool) compressStaged(src io.Reader) (Blob, error) {
	f, err := os.CreateTemp(s.Dir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	if err := compress(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to compress content: %w", err)
	}
	return finishStaged(f)
}

// Load adopts n bytes of already-compressed content from r.
func (s Spool) Load(r io.Reader, n int64) (Blob, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid content length %d", n)
	}

	if !s.staged(n) {
		data := make([]byte, n)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, unexpectedEOF(err)
		}
		return newMemoryBlob(data), nil
	}

	f, err := os.CreateTemp(s.Dir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	if _, err := io.CopyN(f, r, n); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, unexpectedEOF(err)
	}
	return finishStaged(f)
}

func finishStaged(f *os.File) (Blob, error) {
	info, err := f.Stat()
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to stat staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close staging file: %w", err)
	}
	return &stagedBlob{path: f.Name(), size: info.Size()}, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
