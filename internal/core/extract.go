package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/illarion/blackbox/internal/entry"
	"github.com/illarion/blackbox/internal/security"
	"go.uber.org/zap"
)

const copySuffix = ".from-container"

// ExtractAll writes every entry under dir, treating entry names as relative
// paths confined to dir. An existing file with identical content is skipped;
// a differing one is a conflict handled by strategy, with resolver consulted
// under StrategyAsk. Per-entry failures are collected in the result.
// StrategyAbort stops at the first conflict with ErrConflict.
func (c *Container) ExtractAll(ctx context.Context, dir string, strategy MergeStrategy, resolver ConflictResolver, progress entry.ProgressFunc) (*ExtractResult, error) {
	if err := c.requireUnlocked(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, DirPermSecure); err != nil {
		return nil, fsError(err)
	}

	validator, err := security.New(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize path validator: %w", err)
	}
	defer validator.Close()

	result := &ExtractResult{
		Extracted: []string{},
		Skipped:   []string{},
		Errors:    []string{},
	}

	entries := c.table.Entries()
	tracker := entry.NewTracker(progress, int64(len(entries)))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := c.extractOne(ctx, validator, e, strategy, resolver, result)
		if errors.Is(err, ErrConflict) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			c.log.Debug("extract failed", zap.String("name", e.Name()), zap.Error(err))
		}
		tracker.Add(1)
	}
	tracker.Finish()

	c.log.Debug("extracted container",
		zap.String("dir", validator.Dir()),
		zap.Int("extracted", len(result.Extracted)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (c *Container) extractOne(ctx context.Context, validator *security.PathValidator, e *entry.Entry, strategy MergeStrategy, resolver ConflictResolver, result *ExtractResult) error {
	name, err := validator.ValidateAndNormalize(e.Name())
	if err != nil {
		return fmt.Errorf("%s: invalid entry path: %w", e.Name(), err)
	}

	info, err := validator.StatInRoot(name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: cannot stat: %w", name, fsError(err))
	}

	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("%s: a directory is in the way", name)
		}

		same, err := sameContent(validator, name, e)
		if err != nil {
			return fmt.Errorf("%s: cannot compare: %w", name, err)
		}
		if same {
			result.Skipped = append(result.Skipped, name)
			return nil
		}

		localPath, err := validator.HostPath(name)
		if err != nil {
			return err
		}
		res, err := decide(Conflict{Name: name, LocalPath: localPath, Entry: e}, strategy, resolver)
		if err != nil {
			return err
		}

		switch res.Resolution {
		case ResolutionKeepLocal, ResolutionSkip:
			result.Skipped = append(result.Skipped, name)
			return nil
		case ResolutionEditMerged:
			if err := validator.WriteFileInRoot(name, res.MergedData, FilePermSecure); err != nil {
				return fmt.Errorf("%s: cannot write merged file: %w", name, fsError(err))
			}
			result.Extracted = append(result.Extracted, name)
			return nil
		case ResolutionKeepBoth:
			copyName, err := freeCopyName(validator, name)
			if err != nil {
				return err
			}
			if err := writeEntry(ctx, validator, copyName, e); err != nil {
				return err
			}
			result.Extracted = append(result.Extracted, copyName)
			result.Skipped = append(result.Skipped, name)
			return nil
		case ResolutionUseContainer:
			// Overwrite below
		}
	}

	if err := writeEntry(ctx, validator, name, e); err != nil {
		return err
	}
	result.Extracted = append(result.Extracted, name)
	return nil
}

func decide(c Conflict, strategy MergeStrategy, resolver ConflictResolver) (ConflictResult, error) {
	switch strategy {
	case StrategyKeepLocal:
		return ConflictResult{Resolution: ResolutionKeepLocal}, nil
	case StrategyUseContainer:
		return ConflictResult{Resolution: ResolutionUseContainer}, nil
	case StrategyKeepBoth:
		return ConflictResult{Resolution: ResolutionKeepBoth}, nil
	case StrategyAbort:
		return ConflictResult{Resolution: ResolutionSkip}, fmt.Errorf("%w: %s", ErrConflict, c.Name)
	}

	if resolver == nil {
		return ConflictResult{Resolution: ResolutionSkip}, nil
	}
	return resolver(c)
}

// freeCopyName finds an unused name.from-container[.N]
func freeCopyName(validator *security.PathValidator, name string) (string, error) {
	candidate := name + copySuffix
	for i := 1; ; i++ {
		_, err := validator.StatInRoot(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("%s: cannot stat: %w", candidate, err)
		}
		if i >= MaxContainerCopies {
			return "", fmt.Errorf("%s: too many container copies (max %d)", name, MaxContainerCopies)
		}
		candidate = fmt.Sprintf("%s%s.%d", name, copySuffix, i)
	}
}

func writeEntry(ctx context.Context, validator *security.PathValidator, name string, e *entry.Entry) error {
	f, err := validator.CreateInRoot(name, FilePermSecure)
	if err != nil {
		return fmt.Errorf("%s: cannot create file: %w", name, fsError(err))
	}
	if _, err := e.Extract(ctx, f, nil); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: cannot close file: %w", name, err)
	}
	return nil
}

func sameContent(validator *security.PathValidator, name string, e *entry.Entry) (bool, error) {
	f, err := validator.OpenInRoot(name)
	if err != nil {
		return false, err
	}
	defer f.Close()
	localSum, err := digest(f)
	if err != nil {
		return false, err
	}

	rc, err := e.Open()
	if err != nil {
		return false, err
	}
	defer rc.Close()
	storedSum, err := digest(rc)
	if err != nil {
		return false, err
	}

	return bytes.Equal(localSum, storedSum), nil
}

func digest(r io.Reader) ([]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
