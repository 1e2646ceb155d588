package core

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/illarion/blackbox/internal/entry"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// MergeStrategy defines how to handle existing files during extraction
type MergeStrategy int

const (
	StrategyAsk          MergeStrategy = iota // Ask the resolver for each conflict
	StrategyKeepLocal                         // Always keep local version
	StrategyUseContainer                      // Always overwrite with the container version
	StrategyKeepBoth                          // Save container version as .from-container
	StrategyAbort                             // Stop at the first conflict
)

// ParseStrategy maps a flag value to a MergeStrategy
func ParseStrategy(s string) (MergeStrategy, error) {
	switch s {
	case "", "ask":
		return StrategyAsk, nil
	case "local":
		return StrategyKeepLocal, nil
	case "container":
		return StrategyUseContainer, nil
	case "both":
		return StrategyKeepBoth, nil
	case "abort":
		return StrategyAbort, nil
	}
	return StrategyAsk, fmt.Errorf("unknown strategy %q (want ask, local, container, both or abort)", s)
}

// ConflictResolution is the choice made for one conflict
type ConflictResolution int

const (
	ResolutionKeepLocal ConflictResolution = iota
	ResolutionUseContainer
	ResolutionEditMerged
	ResolutionKeepBoth
	ResolutionSkip
)

// ConflictResult contains the resolution and optionally merged data
type ConflictResult struct {
	Resolution ConflictResolution
	MergedData []byte // Populated when Resolution == ResolutionEditMerged
}

// Conflict describes an entry whose destination file exists and differs
type Conflict struct {
	Name      string       // Entry name
	LocalPath string       // Host path of the existing file
	Entry     *entry.Entry // Stored version
}

// ConflictResolver decides a conflict under StrategyAsk
type ConflictResolver func(c Conflict) (ConflictResult, error)

// ExtractResult contains the results of an ExtractAll operation
type ExtractResult struct {
	Extracted []string // Files written
	Skipped   []string // Files left alone
	Errors    []string // Per-entry failures
}

// CompareFiles reports whether two contents are identical
func CompareFiles(local, stored []byte) bool {
	localHash := sha256.Sum256(local)
	storedHash := sha256.Sum256(stored)
	return bytes.Equal(localHash[:], storedHash[:])
}

// ConflictMarkers builds a git-style merge of local and stored content.
// Common lines appear once; only differing hunks are wrapped in markers.
func ConflictMarkers(local, stored []byte) []byte {
	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(string(local), string(stored))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	return buildConflictFromDiffs(diffs)
}

// buildConflictFromDiffs turns delete/insert runs into conflict hunks
func buildConflictFromDiffs(diffs []diffmatchpatch.Diff) []byte {
	var buf bytes.Buffer

	i := 0
	for i < len(diffs) {
		if diffs[i].Type == diffmatchpatch.DiffEqual {
			buf.WriteString(diffs[i].Text)
			i++
			continue
		}

		buf.WriteString("<<<<<<< local\n")
		for i < len(diffs) && diffs[i].Type == diffmatchpatch.DiffDelete {
			writeLines(&buf, diffs[i].Text)
			i++
		}
		buf.WriteString("=======\n")
		for i < len(diffs) && diffs[i].Type == diffmatchpatch.DiffInsert {
			writeLines(&buf, diffs[i].Text)
			i++
		}
		buf.WriteString(">>>>>>> container\n")
	}

	return buf.Bytes()
}

func writeLines(buf *bytes.Buffer, text string) {
	buf.WriteString(text)
	if len(text) > 0 && text[len(text)-1] != '\n' {
		buf.WriteByte('\n')
	}
}

// HasConflictMarkers checks for unresolved conflict markers
func HasConflictMarkers(data []byte) bool {
	return bytes.Contains(data, []byte("<<<<<<<")) ||
		bytes.Contains(data, []byte("=======")) ||
		bytes.Contains(data, []byte(">>>>>>>"))
}

// GenerateUnifiedDiff diffs the stored version of name against local.
// It returns an empty string when both are identical.
func GenerateUnifiedDiff(name string, stored, local []byte) (string, error) {
	if CompareFiles(stored, local) {
		return "", nil
	}

	if !entry.IsText(stored) || !entry.IsText(local) {
		return fmt.Sprintf("Binary entry %s has changed\n", name), nil
	}

	dmp := diffmatchpatch.New()
	storedStr, localStr := string(stored), string(local)
	a, b, lineArray := dmp.DiffLinesToChars(storedStr, localStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(storedStr, diffs)
	if len(patches) == 0 {
		return "", nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- container/%s\n", name))
	result.WriteString(fmt.Sprintf("+++ local/%s\n", name))
	result.WriteString(dmp.PatchToText(patches))
	return result.String(), nil
}
