package codec

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/illarion/blackbox/internal/entry"
)

// Version is the entry table schema revision. It must be incremented for
// every change that breaks compatibility with the existing binary layout.
const Version uint16 = 1

const (
	headerSize   = 4 + 2 + 4 // magic + version + count
	maxFieldSize = 64 * 1024 // Upper bound for name and type fields
)

var magic = [4]byte{'B', 'B', 'O', 'X'}

// ErrFormat is returned when the serialized table is malformed.
var ErrFormat = errors.New("malformed entry table")

func formatErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// EncodedSize returns the number of bytes Encode will write for table.
func EncodedSize(table *entry.Table) (int64, error) {
	total := int64(headerSize)
	for _, e := range table.Entries() {
		size, err := e.Size()
		if err != nil {
			return 0, fmt.Errorf("entry %s: %w", e.Name(), err)
		}
		total += 4 + int64(len(e.Name())) + 4 + int64(len(e.MediaType())) + 8 + size
	}
	return total, nil
}

// Encode writes table to w. Entries are written in name order so equal
// tables encode to equal bytes.
func Encode(ctx context.Context, w io.Writer, table *entry.Table) error {
	if table.Len() > math.MaxUint32 {
		return fmt.Errorf("too many entries: %d", table.Len())
	}

	var hdr [headerSize]byte
	copy(hdr[:4], magic[:])
	binary.BigEndian.PutUint16(hdr[4:6], Version)
	binary.BigEndian.PutUint32(hdr[6:10], uint32(table.Len()))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}

	buf := make([]byte, 32*1024)
	for _, e := range table.Entries() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := encodeEntry(w, e, buf); err != nil {
			return fmt.Errorf("entry %s: %w", e.Name(), err)
		}
	}
	return nil
}

func encodeEntry(w io.Writer, e *entry.Entry, buf []byte) error {
	if e.Name() == "" {
		return errors.New("entry name is empty")
	}
	if len(e.Name()) > maxFieldSize || len(e.MediaType()) > maxFieldSize {
		return errors.New("entry name or type too long")
	}

	size, err := e.Size()
	if err != nil {
		return err
	}

	if err := writeField(w, e.Name()); err != nil {
		return err
	}
	if err := writeField(w, e.MediaType()); err != nil {
		return err
	}

	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(size))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}

	raw, err := e.Blob().Raw()
	if err != nil {
		return err
	}
	defer raw.Close()

	n, err := io.CopyBuffer(w, io.LimitReader(raw, size), buf)
	if err != nil {
		return err
	}
	if n != size {
		return fmt.Errorf("content changed size while encoding: wrote %d of %d bytes", n, size)
	}
	return nil
}

func writeField(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// decoder reads fields while tracking how many bytes may remain
type decoder struct {
	r         io.Reader
	remaining int64
}

func (d *decoder) take(n int64, what string) error {
	if n > d.remaining {
		return formatErr("%s length %d exceeds remaining %d bytes", what, n, d.remaining)
	}
	d.remaining -= n
	return nil
}

func (d *decoder) read(b []byte, what string) error {
	if err := d.take(int64(len(b)), what); err != nil {
		return err
	}
	if _, err := io.ReadFull(d.r, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return formatErr("truncated %s", what)
		}
		return err
	}
	return nil
}

func (d *decoder) field(what string) (string, error) {
	var lenBuf [4]byte
	if err := d.read(lenBuf[:], what+" length"); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return "", formatErr("missing %s", what)
	}
	if n > maxFieldSize {
		return "", formatErr("%s length %d too large", what, n)
	}
	b := make([]byte, n)
	if err := d.read(b, what); err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode reads a table from r. limit bounds the number of bytes the
// encoded table may occupy; declared lengths beyond it are format errors.
// Trailing bytes after the last entry are rejected.
func Decode(ctx context.Context, r io.Reader, limit int64, spool entry.Spool) (*entry.Table, error) {
	d := &decoder{r: r, remaining: limit}
	table := entry.NewTable()
	if err := d.decodeInto(ctx, table, spool); err != nil {
		table.Dispose()
		return nil, err
	}
	return table, nil
}

func (d *decoder) decodeInto(ctx context.Context, table *entry.Table, spool entry.Spool) error {
	var hdr [headerSize]byte
	if err := d.read(hdr[:], "header"); err != nil {
		return err
	}
	if !bytes.Equal(hdr[:4], magic[:]) {
		return formatErr("bad magic %q", hdr[:4])
	}
	if v := binary.BigEndian.Uint16(hdr[4:6]); v != Version {
		return formatErr("unsupported version %d", v)
	}
	count := binary.BigEndian.Uint32(hdr[6:10])

	for i := uint32(0); i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := d.entry(spool)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := table.Get(e.Name()); dup {
			e.Dispose()
			return formatErr("duplicate entry %q", e.Name())
		}
		if err := table.Put(e); err != nil {
			return err
		}
	}

	// The table must end exactly here
	var probe [1]byte
	n, err := io.ReadFull(d.r, probe[:])
	if n != 0 {
		return formatErr("trailing bytes after %d entries", count)
	}
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (d *decoder) entry(spool entry.Spool) (*entry.Entry, error) {
	name, err := d.field("name")
	if err != nil {
		return nil, err
	}
	mediaType, err := d.field("type")
	if err != nil {
		return nil, err
	}

	var lenBuf [8]byte
	if err := d.read(lenBuf[:], "content length"); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint64(lenBuf[:])
	if size > math.MaxInt64 {
		return nil, formatErr("content length %d too large", size)
	}
	if err := d.take(int64(size), "content"); err != nil {
		return nil, err
	}

	blob, err := spool.Load(d.r, int64(size))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, formatErr("truncated content of %q", name)
		}
		return nil, err
	}
	if err := checkCompressed(blob); err != nil {
		blob.Dispose()
		return nil, formatErr("content of %q: %v", name, err)
	}
	return entry.New(name, mediaType, blob), nil
}

// checkCompressed verifies that blob starts with a gzip header
func checkCompressed(blob entry.Blob) error {
	rc, err := blob.Open()
	if err != nil {
		return err
	}
	return rc.Close()
}

// Serialize encodes table into a byte slice.
func Serialize(table *entry.Table) ([]byte, error) {
	size, err := EncodedSize(table)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(int(size))
	if err := Encode(context.Background(), &buf, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a table from b.
func Deserialize(b []byte, spool entry.Spool) (*entry.Table, error) {
	return Decode(context.Background(), bytes.NewReader(b), int64(len(b)), spool)
}
