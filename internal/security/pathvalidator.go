package security

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes  = errors.New("path escapes destination")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
)

// PathValidator confines file operations to one destination directory
// using os.Root, so entry names read from a container cannot write
// outside it.
type PathValidator struct {
	root    *os.Root
	rootDir string
}

// New creates a PathValidator rooted at dir. The directory must exist.
func New(dir string) (*PathValidator, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination root: %w", err)
	}

	return &PathValidator{root: root, rootDir: absPath}, nil
}

// Close releases the root handle
func (pv *PathValidator) Close() error {
	if pv.root != nil {
		return pv.root.Close()
	}
	return nil
}

// Dir returns the absolute destination directory
func (pv *PathValidator) Dir() string {
	return pv.rootDir
}

// ValidateAndNormalize checks that name is a local relative path and
// returns it cleaned, with forward slashes. It rejects empty, absolute and
// escaping paths as well as reserved names (filepath.IsLocal).
func (pv *PathValidator) ValidateAndNormalize(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyPath
	}

	platformPath := filepath.FromSlash(name)
	if !filepath.IsLocal(platformPath) {
		if filepath.IsAbs(platformPath) || strings.HasPrefix(name, "/") {
			return "", fmt.Errorf("%w: %s", ErrAbsolutePath, name)
		}
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}

	cleanPath := filepath.Clean(platformPath)
	relPath, err := filepath.Rel(pv.rootDir, filepath.Join(pv.rootDir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}

	return filepath.ToSlash(relPath), nil
}

// HostPath returns the absolute host path for a validated name.
func (pv *PathValidator) HostPath(name string) (string, error) {
	clean, err := pv.ValidateAndNormalize(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(pv.rootDir, filepath.FromSlash(clean)), nil
}

func (pv *PathValidator) platform(name string) (string, error) {
	clean, err := pv.ValidateAndNormalize(name)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	return filepath.FromSlash(clean), nil
}

// MkdirAllInRoot creates a directory and any missing parents inside the root.
func (pv *PathValidator) MkdirAllInRoot(name string, perm os.FileMode) error {
	p, err := pv.platform(name)
	if err != nil {
		return err
	}
	if p == "." {
		return nil
	}

	current := ""
	for _, part := range strings.Split(p, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		err := pv.root.Mkdir(current, perm)
		if err == nil || errors.Is(err, os.ErrExist) {
			continue
		}
		return err
	}

	info, err := pv.root.Stat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", name)
	}
	return nil
}

// CreateInRoot creates or truncates a file inside the root for writing,
// creating parent directories as needed.
func (pv *PathValidator) CreateInRoot(name string, perm os.FileMode) (*os.File, error) {
	p, err := pv.platform(name)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(p); dir != "." {
		if err := pv.MkdirAllInRoot(filepath.ToSlash(dir), 0700); err != nil {
			return nil, err
		}
	}
	return pv.root.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
}

// WriteFileInRoot writes data to a file inside the root.
func (pv *PathValidator) WriteFileInRoot(name string, data []byte, perm os.FileMode) error {
	f, err := pv.CreateInRoot(name, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// OpenInRoot opens a file inside the root for reading.
func (pv *PathValidator) OpenInRoot(name string) (*os.File, error) {
	p, err := pv.platform(name)
	if err != nil {
		return nil, err
	}
	return pv.root.Open(p)
}

// ReadFileInRoot reads a whole file inside the root.
func (pv *PathValidator) ReadFileInRoot(name string) ([]byte, error) {
	f, err := pv.OpenInRoot(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// StatInRoot stats a file inside the root.
func (pv *PathValidator) StatInRoot(name string) (os.FileInfo, error) {
	p, err := pv.platform(name)
	if err != nil {
		return nil, err
	}
	return pv.root.Stat(p)
}
