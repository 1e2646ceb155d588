package core

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/illarion/blackbox/internal/codec"
	"github.com/illarion/blackbox/internal/crypto"
	"github.com/illarion/blackbox/internal/entry"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrFormat          = errors.New("malformed container")
	ErrWrongPassword   = errors.New("wrong password")
	ErrPermission      = errors.New("permission denied")
	ErrInvalidState    = errors.New("container is locked")
	ErrAlreadyExists   = errors.New("container already exists")
	ErrInvalidName     = errors.New("invalid entry name")
	ErrConflict        = errors.New("conflict with existing file")
	ErrUseAfterDispose = entry.ErrDisposed
	ErrDerivation      = crypto.ErrInvalidSalt
)

// fsError tags file system errors with the matching sentinel
func fsError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermission, err)
	}
	return err
}

// unlockError maps decrypt and decode failures to ErrWrongPassword; callers
// cannot tell a bad key from a garbled table.
func unlockError(err error) error {
	switch {
	case errors.Is(err, crypto.ErrInvalidPadding),
		errors.Is(err, crypto.ErrInvalidCiphertext),
		errors.Is(err, codec.ErrFormat):
		return fmt.Errorf("%w: %v", ErrWrongPassword, err)
	}
	return err
}
