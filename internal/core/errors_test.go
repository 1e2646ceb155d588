package core

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFsError(t *testing.T) {
	other := errors.New("disk on fire")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"not exist", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}, ErrNotFound},
		{"permission", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}, ErrPermission},
		{"other", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fsError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
			if tt.err != nil {
				assert.ErrorIs(t, got, tt.err, "cause stays reachable")
			}
		})
	}
}

// denyWrites makes dir read-only for the rest of the test
func denyWrites(t *testing.T, dir string) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { os.Chmod(dir, 0700) })
}

func TestExtractFileReadOnlyDir(t *testing.T) {
	c, err := Create(filepath.Join(t.TempDir(), "c.box"), []byte("pw"))
	require.NoError(t, err)
	defer c.Close()
	addString(t, c, "a.txt", "", "new content")

	dir := t.TempDir()
	dest := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(dest, []byte("old content"), 0600))
	denyWrites(t, dir)

	err = c.ExtractFile(ctx, "a.txt", dest, nil)
	assert.ErrorIs(t, err, ErrPermission)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old content", string(got))
}

func TestSaveReadOnlyDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.box")
	c, err := Create(path, []byte("pw"))
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Save(ctx, nil))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	denyWrites(t, dir)
	addString(t, c, "a.txt", "", "never written")
	err = c.Save(ctx, nil)
	assert.ErrorIs(t, err, ErrPermission)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestChangePasswordSaveFailureKeepsOldPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.box")
	c, err := Create(path, []byte("old"))
	require.NoError(t, err)
	defer c.Close()
	addString(t, c, "a", "", "secret")
	require.NoError(t, c.Save(ctx, nil))

	// A directory in place of the container makes the salt read fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0700))

	require.Error(t, c.ChangePassword(ctx, []byte("new")))
	assert.Equal(t, []byte("old"), c.password)

	require.NoError(t, os.Remove(path))
	require.NoError(t, c.Save(ctx, nil))

	_, err = Open(ctx, path, []byte("new"), nil)
	assert.ErrorIs(t, err, ErrWrongPassword)

	reopened, err := Open(ctx, path, []byte("old"), nil)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, "secret", readEntry(t, reopened, "a"))
}
