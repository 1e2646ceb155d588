package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newExtractFixture returns an unlocked container holding files and an
// empty destination directory.
func newExtractFixture(t *testing.T, files map[string]string) (*Container, string) {
	t.Helper()
	c, err := Create(filepath.Join(t.TempDir(), "c.box"), []byte("test123"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	for name, content := range files {
		if err := c.AddEntry(ctx, name, "", strings.NewReader(content), int64(len(content)), nil); err != nil {
			t.Fatalf("AddEntry %s failed: %v", name, err)
		}
	}
	return c, t.TempDir()
}

func writeLocal(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func readLocal(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestExtractAll_NoConflicts(t *testing.T) {
	c, dir := newExtractFixture(t, map[string]string{
		"test1.txt":        "content1",
		"nested/deep/test": "content2",
	})

	var last int
	result, err := c.ExtractAll(ctx, dir, StrategyUseContainer, nil, func(p int) { last = p })
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}

	if len(result.Extracted) != 2 {
		t.Errorf("Expected 2 extracted files, got %d", len(result.Extracted))
	}
	if len(result.Skipped) != 0 || len(result.Errors) != 0 {
		t.Errorf("Expected no skips or errors, got %v / %v", result.Skipped, result.Errors)
	}
	if got := readLocal(t, dir, "test1.txt"); got != "content1" {
		t.Errorf("test1.txt content mismatch: got %s", got)
	}
	if got := readLocal(t, dir, "nested/deep/test"); got != "content2" {
		t.Errorf("nested file content mismatch: got %s", got)
	}
	if last != 100 {
		t.Errorf("Final progress = %d, want 100", last)
	}
}

func TestExtractAll_FilesIdentical(t *testing.T) {
	c, dir := newExtractFixture(t, map[string]string{"test1.txt": "content1"})
	writeLocal(t, dir, "test1.txt", "content1")

	result, err := c.ExtractAll(ctx, dir, StrategyAbort, nil, nil)
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}
	if len(result.Skipped) != 1 || len(result.Extracted) != 0 {
		t.Errorf("Identical file should be skipped, got %+v", result)
	}
}

func TestExtractAll_StrategyKeepLocal(t *testing.T) {
	c, dir := newExtractFixture(t, map[string]string{"test1.txt": "stored"})
	writeLocal(t, dir, "test1.txt", "local")

	result, err := c.ExtractAll(ctx, dir, StrategyKeepLocal, nil, nil)
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}
	if len(result.Skipped) != 1 {
		t.Errorf("Expected 1 skipped file, got %d", len(result.Skipped))
	}
	if got := readLocal(t, dir, "test1.txt"); got != "local" {
		t.Errorf("Local file should be unchanged, got %s", got)
	}
}

func TestExtractAll_StrategyUseContainer(t *testing.T) {
	c, dir := newExtractFixture(t, map[string]string{"test1.txt": "stored"})
	writeLocal(t, dir, "test1.txt", "a much longer local version")

	result, err := c.ExtractAll(ctx, dir, StrategyUseContainer, nil, nil)
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}
	if len(result.Extracted) != 1 {
		t.Errorf("Expected 1 extracted file, got %d", len(result.Extracted))
	}
	if got := readLocal(t, dir, "test1.txt"); got != "stored" {
		t.Errorf("Local file should be overwritten, got %q", got)
	}
}

func TestExtractAll_StrategyKeepBoth(t *testing.T) {
	c, dir := newExtractFixture(t, map[string]string{"test1.txt": "stored"})
	writeLocal(t, dir, "test1.txt", "local")
	writeLocal(t, dir, "test1.txt.from-container", "earlier copy")

	result, err := c.ExtractAll(ctx, dir, StrategyKeepBoth, nil, nil)
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}

	if len(result.Extracted) != 1 || result.Extracted[0] != "test1.txt.from-container.1" {
		t.Errorf("Expected copy at test1.txt.from-container.1, got %v", result.Extracted)
	}
	if got := readLocal(t, dir, "test1.txt"); got != "local" {
		t.Errorf("Local file should be unchanged, got %s", got)
	}
	if got := readLocal(t, dir, "test1.txt.from-container"); got != "earlier copy" {
		t.Errorf("Existing copy should be unchanged, got %s", got)
	}
	if got := readLocal(t, dir, "test1.txt.from-container.1"); got != "stored" {
		t.Errorf("Container copy mismatch, got %s", got)
	}
}

func TestExtractAll_StrategyAbort(t *testing.T) {
	c, dir := newExtractFixture(t, map[string]string{
		"a.txt": "stored a",
		"b.txt": "stored b",
	})
	writeLocal(t, dir, "a.txt", "local a")

	_, err := c.ExtractAll(ctx, dir, StrategyAbort, nil, nil)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
	if got := readLocal(t, dir, "a.txt"); got != "local a" {
		t.Errorf("Local file should be unchanged, got %s", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.txt")); !os.IsNotExist(err) {
		t.Error("Extraction should stop at the first conflict")
	}
}

func TestExtractAll_AskResolver(t *testing.T) {
	c, dir := newExtractFixture(t, map[string]string{
		"merge.txt": "line1\nstored\n",
		"skip.txt":  "stored skip",
	})
	writeLocal(t, dir, "merge.txt", "line1\nlocal\n")
	writeLocal(t, dir, "skip.txt", "local skip")

	var seen []string
	resolver := func(conflict Conflict) (ConflictResult, error) {
		seen = append(seen, conflict.Name)
		if conflict.Name == "skip.txt" {
			return ConflictResult{Resolution: ResolutionSkip}, nil
		}
		stored, err := conflict.Entry.ReadAll()
		if err != nil {
			return ConflictResult{}, err
		}
		local, err := os.ReadFile(conflict.LocalPath)
		if err != nil {
			return ConflictResult{}, err
		}
		if !HasConflictMarkers(ConflictMarkers(local, stored)) {
			t.Error("Differing files should produce conflict markers")
		}
		return ConflictResult{Resolution: ResolutionEditMerged, MergedData: []byte("line1\nmerged\n")}, nil
	}

	result, err := c.ExtractAll(ctx, dir, StrategyAsk, resolver, nil)
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("Resolver should see 2 conflicts, saw %v", seen)
	}
	if got := readLocal(t, dir, "merge.txt"); got != "line1\nmerged\n" {
		t.Errorf("Merged content mismatch, got %q", got)
	}
	if got := readLocal(t, dir, "skip.txt"); got != "local skip" {
		t.Errorf("Skipped file should be unchanged, got %q", got)
	}
	if len(result.Extracted) != 1 || len(result.Skipped) != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestExtractAll_RejectsEscapingNames(t *testing.T) {
	c, dir := newExtractFixture(t, map[string]string{
		"../evil.txt": "pwned",
		"good.txt":    "fine",
	})

	result, err := c.ExtractAll(ctx, dir, StrategyUseContainer, nil, nil)
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Expected 1 error, got %v", result.Errors)
	}
	if len(result.Extracted) != 1 || result.Extracted[0] != "good.txt" {
		t.Errorf("Expected good.txt extracted, got %v", result.Extracted)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "evil.txt")); err == nil {
		t.Error("File was written outside the destination")
	}
}

func TestExtractAll_Locked(t *testing.T) {
	c, dir := newExtractFixture(t, nil)
	c.Close()

	if _, err := c.ExtractAll(ctx, dir, StrategyUseContainer, nil, nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState, got %v", err)
	}
}
