package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
)

// streamChunk is the ciphertext batch size; it must be a multiple of aes.BlockSize.
const streamChunk = 32 * 1024

var errWriterClosed = errors.New("encrypt writer already closed")

func newBlock(key, iv []byte) (cipher.Block, error) {
	if len(iv) != IVSize {
		return nil, fmt.Errorf("invalid IV length %d; want %d", len(iv), IVSize)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d; want %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return block, nil
}

type encryptWriter struct {
	dst    io.Writer
	mode   cipher.BlockMode
	buf    []byte
	closed bool
}

// NewEncryptWriter returns a writer that CBC-encrypts everything written to it
// into dst. Close appends the PKCS#7 padding block; it does not close dst.
func NewEncryptWriter(dst io.Writer, key, iv []byte) (io.WriteCloser, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	return &encryptWriter{
		dst:  dst,
		mode: cipher.NewCBCEncrypter(block, iv),
		buf:  make([]byte, 0, streamChunk+aes.BlockSize),
	}, nil
}

func (w *encryptWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errWriterClosed
	}
	w.buf = append(w.buf, p...)
	if len(w.buf) >= streamChunk {
		n := len(w.buf) - len(w.buf)%aes.BlockSize
		if err := w.flush(n); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (w *encryptWriter) flush(n int) error {
	w.mode.CryptBlocks(w.buf[:n], w.buf[:n])
	_, err := w.dst.Write(w.buf[:n])
	ClearBytes(w.buf[:n])
	w.buf = append(w.buf[:0], w.buf[n:]...)
	return err
}

func (w *encryptWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	pad := aes.BlockSize - len(w.buf)%aes.BlockSize
	for i := 0; i < pad; i++ {
		w.buf = append(w.buf, byte(pad))
	}
	return w.flush(len(w.buf))
}

type decryptReader struct {
	src     io.Reader
	mode    cipher.BlockMode
	chunk   []byte
	scratch []byte
	pending [aes.BlockSize]byte
	held    bool
	out     []byte
	err     error
}

// NewDecryptReader returns a reader yielding the CBC-decrypted plaintext of src.
// The final block is withheld until src is exhausted so that padding can be
// validated; a bad pad surfaces as ErrInvalidPadding from the last Read.
func NewDecryptReader(src io.Reader, key, iv []byte) (io.Reader, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	return &decryptReader{
		src:     src,
		mode:    cipher.NewCBCDecrypter(block, iv),
		chunk:   make([]byte, streamChunk),
		scratch: make([]byte, 0, streamChunk+aes.BlockSize),
	}, nil
}

func (d *decryptReader) Read(p []byte) (int, error) {
	for len(d.out) == 0 {
		if d.err != nil {
			return 0, d.err
		}
		d.fill()
	}
	n := copy(p, d.out)
	d.out = d.out[n:]
	return n, nil
}

func (d *decryptReader) fill() {
	n, err := io.ReadFull(d.src, d.chunk)
	final := false
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		final = true
	case err != nil:
		d.err = err
		return
	}

	data := d.chunk[:n]
	if n%aes.BlockSize != 0 {
		d.err = ErrInvalidCiphertext
		return
	}
	d.mode.CryptBlocks(data, data)

	d.scratch = d.scratch[:0]
	if d.held {
		d.scratch = append(d.scratch, d.pending[:]...)
	}
	d.scratch = append(d.scratch, data...)
	ClearBytes(data)

	if final {
		if len(d.scratch) == 0 {
			d.err = ErrInvalidCiphertext
			return
		}
		plain, err := unpad(d.scratch)
		if err != nil {
			d.err = err
			return
		}
		d.out = plain
		d.err = io.EOF
		return
	}

	last := len(d.scratch) - aes.BlockSize
	copy(d.pending[:], d.scratch[last:])
	d.held = true
	d.out = d.scratch[:last]
}

// unpad strips PKCS#7 padding
func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 || len(b)%aes.BlockSize != 0 {
		return nil, ErrInvalidPadding
	}
	pad := int(b[len(b)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, ErrInvalidPadding
	}
	for _, v := range b[len(b)-pad:] {
		if int(v) != pad {
			return nil, ErrInvalidPadding
		}
	}
	return b[:len(b)-pad], nil
}
