package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/illarion/blackbox/internal/codec"
	"github.com/illarion/blackbox/internal/crypto"
	"github.com/illarion/blackbox/internal/entry"
	"github.com/illarion/blackbox/internal/storage"
	"go.uber.org/zap"
)

const (
	DirPermSecure      = 0700 // Directory: owner rwx only
	FilePermSecure     = 0600 // File: owner rw only
	MaxContainerCopies = 100  // Max numbered .from-container.N copies
)

// State of a container session
type State int

const (
	Locked State = iota
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// Container is a session handle on one container file. It is not safe for
// concurrent use.
type Container struct {
	path     string
	state    State
	password []byte
	salt     []byte
	key      []byte
	table    *entry.Table
	spool    entry.Spool
	log      *zap.Logger
	// owned is false when the table belongs to the caller
	owned bool
}

// Option configures a Container
type Option func(*Container)

// WithSpool sets where entry content is kept while unlocked
func WithSpool(s entry.Spool) Option {
	return func(c *Container) { c.spool = s }
}

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.log = l
		}
	}
}

func newContainer(path string, password []byte, opts []Option) *Container {
	c := &Container{
		path:     path,
		password: bytes.Clone(password),
		log:      zap.NewNop(),
		owned:    true,
	}
	if c.password == nil {
		c.password = []byte{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create starts an empty, unlocked container with a fresh salt. Nothing is
// written until Save.
func Create(path string, password []byte, opts ...Option) (*Container, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fsError(err)
	}

	kdf, err := crypto.NewKDF()
	if err != nil {
		return nil, fmt.Errorf("failed to create KDF: %w", err)
	}

	c := newContainer(path, password, opts)
	if err := c.unlock(kdf.Salt); err != nil {
		return nil, err
	}
	c.table = entry.NewTable()
	c.log.Debug("created container", zap.String("path", path), zap.String("id", c.ID()))
	return c, nil
}

// Open reads and decrypts the container at path. progress follows the
// ciphertext consumed.
func Open(ctx context.Context, path string, password []byte, progress entry.ProgressFunc, opts ...Option) (*Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := storage.Open(path)
	if err != nil {
		if errors.Is(err, storage.ErrTruncated) {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return nil, fsError(err)
	}
	defer f.Close()

	c := newContainer(path, password, opts)
	if err := c.unlock(f.Header.Salt); err != nil {
		return nil, err
	}

	tracker := entry.NewTracker(progress, f.CiphertextSize)
	dr, err := crypto.NewDecryptReader(entry.NewProgressReader(ctx, f, tracker), c.key, f.Header.IV)
	if err != nil {
		c.Close()
		return nil, err
	}

	// PKCS#7 adds at least one byte, so the table is strictly shorter
	table, err := codec.Decode(ctx, dr, f.CiphertextSize-1, c.spool)
	if err != nil {
		c.Close()
		return nil, unlockError(err)
	}
	c.table = table
	tracker.Finish()

	c.log.Debug("opened container",
		zap.String("path", path),
		zap.String("id", c.ID()),
		zap.Int("entries", table.Len()),
		zap.Int64("ciphertext_bytes", f.CiphertextSize))
	return c, nil
}

// unlock derives and caches the key for salt
func (c *Container) unlock(salt []byte) error {
	kdf := &crypto.KDF{Salt: salt, Iterations: crypto.DefaultIters}
	key, err := kdf.DeriveKey(c.password)
	if err != nil {
		return err
	}
	if c.key != nil {
		crypto.ClearBytes(c.key)
	}
	c.salt = bytes.Clone(salt)
	c.key = key
	c.state = Unlocked
	return nil
}

func (c *Container) requireUnlocked() error {
	if c == nil || c.state != Unlocked {
		return ErrInvalidState
	}
	return nil
}

// Path returns the container file path
func (c *Container) Path() string {
	return c.path
}

// State returns the session state
func (c *Container) State() State {
	return c.state
}

// ID identifies the container by its salt. It is stable across saves and
// password changes.
func (c *Container) ID() string {
	return idFromSalt(c.salt)
}

func idFromSalt(salt []byte) string {
	sum := sha256.Sum256(salt)
	return hex.EncodeToString(sum[:16])
}

// Save encrypts the entry table and atomically replaces the container file.
// The salt of an existing file is kept; the IV is fresh on every call.
func (c *Container) Save(ctx context.Context, progress entry.ProgressFunc) error {
	if err := c.requireUnlocked(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	diskSalt, exists, err := storage.ReadSalt(c.path)
	if err != nil {
		if errors.Is(err, storage.ErrTruncated) {
			return fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return fsError(err)
	}
	if exists && !bytes.Equal(diskSalt, c.salt) {
		c.log.Debug("salt on disk differs, re-deriving key", zap.String("path", c.path))
		if err := c.unlock(diskSalt); err != nil {
			return err
		}
	}

	iv, err := crypto.GenerateRandom(crypto.IVSize)
	if err != nil {
		return fmt.Errorf("failed to generate IV: %w", err)
	}

	size, err := codec.EncodedSize(c.table)
	if err != nil {
		return err
	}
	tracker := entry.NewTracker(progress, size)

	err = storage.WriteAtomic(c.path, FilePermSecure, func(w io.Writer) error {
		if err := storage.WriteHeader(w, storage.Header{Salt: c.salt, IV: iv}); err != nil {
			return err
		}
		ew, err := crypto.NewEncryptWriter(w, c.key, iv)
		if err != nil {
			return err
		}
		if err := codec.Encode(ctx, entry.NewProgressWriter(ctx, ew, tracker), c.table); err != nil {
			return err
		}
		return ew.Close()
	})
	if err != nil {
		return fsError(fmt.Errorf("failed to save container: %w", err))
	}
	tracker.Finish()

	c.log.Debug("saved container",
		zap.String("path", c.path),
		zap.Int("entries", c.table.Len()),
		zap.Int64("plaintext_bytes", size))
	return nil
}

// ChangePassword re-keys the container under the same salt and saves it.
// On failure the old password stays in effect.
func (c *Container) ChangePassword(ctx context.Context, newPassword []byte) error {
	if err := c.requireUnlocked(); err != nil {
		return err
	}

	oldPassword, oldSalt, oldKey := c.password, c.salt, bytes.Clone(c.key)
	defer crypto.ClearBytes(oldKey)

	restore := func() {
		crypto.ClearBytes(c.password)
		crypto.ClearBytes(c.key)
		c.password, c.salt, c.key = oldPassword, oldSalt, bytes.Clone(oldKey)
	}

	c.password = bytes.Clone(newPassword)
	if err := c.unlock(c.salt); err != nil {
		restore()
		return err
	}
	if err := c.Save(ctx, nil); err != nil {
		restore()
		return err
	}
	crypto.ClearBytes(oldPassword)
	return nil
}

// Close disposes every entry and wipes the password and key. It is
// idempotent.
func (c *Container) Close() error {
	if c == nil || c.state == Locked {
		return nil
	}
	c.state = Locked

	var err error
	if c.table != nil && c.owned {
		err = c.table.Dispose()
	}
	c.table = nil
	crypto.ClearBytes(c.password)
	crypto.ClearBytes(c.key)
	c.password, c.key = nil, nil

	c.log.Debug("closed container", zap.String("path", c.path))
	return err
}
