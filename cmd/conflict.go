package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/illarion/blackbox/internal/core"
	"github.com/illarion/blackbox/internal/entry"
	"golang.org/x/term"
)

// promptConflict asks the user how to resolve one extraction conflict
func promptConflict(c core.Conflict) (core.ConflictResult, error) {
	skip := core.ConflictResult{Resolution: core.ResolutionSkip}

	localData, err := os.ReadFile(c.LocalPath)
	if err != nil {
		return skip, fmt.Errorf("failed to read local file: %w", err)
	}
	storedData, err := c.Entry.ReadAll()
	if err != nil {
		return skip, err
	}

	isText := entry.IsText(localData) && entry.IsText(storedData)

	fmt.Printf("\n%s conflict detected: %s\n", warning.Sprintf("warning:"), c.Name)
	fmt.Printf("   Local file exists and differs from the stored entry\n")
	fileType := "binary"
	if isText {
		fileType = "text"
	}
	fmt.Printf("   File type: %s (%s)\n", fileType, c.Entry.MediaType())
	fmt.Printf("\nOptions:\n")
	fmt.Printf("  [l] Keep local version\n")
	fmt.Printf("  [c] Use container version (overwrite local)\n")
	if isText {
		fmt.Printf("  [e] Edit merged (opens in $EDITOR)\n")
	}
	fmt.Printf("  [b] Keep both (save container version as .from-container)\n")
	fmt.Printf("  [x] Skip this file\n")

	for {
		fmt.Printf("\nYour choice: ")
		choice, err := readChoice()
		if err != nil {
			return skip, err
		}

		switch choice {
		case "l":
			return core.ConflictResult{Resolution: core.ResolutionKeepLocal}, nil
		case "c":
			return core.ConflictResult{Resolution: core.ResolutionUseContainer}, nil
		case "e":
			if !isText {
				fmt.Printf("Cannot edit merge for binary files\n")
				continue
			}
			merged, err := editMerge(c.Name, localData, storedData)
			if err != nil {
				fmt.Printf("Error during merge: %v\n", err)
				continue
			}
			return core.ConflictResult{Resolution: core.ResolutionEditMerged, MergedData: merged}, nil
		case "b":
			return core.ConflictResult{Resolution: core.ResolutionKeepBoth}, nil
		case "x":
			return skip, nil
		default:
			fmt.Printf("Invalid choice %q\n", choice)
		}
	}
}

// readChoice reads a single character choice from the terminal
func readChoice() (string, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		var input string
		if _, err := fmt.Scanln(&input); err != nil {
			return "", err
		}
		return strings.ToLower(strings.TrimSpace(input)), nil
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	buf := make([]byte, 1)
	if _, err := os.Stdin.Read(buf); err != nil {
		return "", err
	}

	choice := strings.ToLower(string(buf[0]))
	fmt.Printf("%s\r\n", choice)
	return choice, nil
}

// editMerge writes conflict-marked content to a temp file, opens it in the
// user's editor and returns the edited result.
func editMerge(name string, localData, storedData []byte) ([]byte, error) {
	tmp, err := os.CreateTemp(options.TempDir, "blackbox-merge-*"+filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(core.ConflictMarkers(localData, storedData))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write conflict content: %w", err)
	}

	fmt.Printf("\nopening editor for merge...\n")
	if err := invokeEditor(tmp.Name()); err != nil {
		return nil, err
	}

	merged, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read edited file: %w", err)
	}

	if len(merged) == 0 && !confirm("warning: edited file is empty", "Use this empty content?") {
		return nil, fmt.Errorf("merge aborted by user")
	}
	if core.HasConflictMarkers(merged) && !confirm("warning: conflict markers still present in file", "Continue anyway?") {
		return nil, fmt.Errorf("merge aborted by user")
	}
	return merged, nil
}

func confirm(message, question string) bool {
	fmt.Printf("\n%s\n%s [y/N]: ", warning.Sprintf("%s", message), question)
	choice, err := readChoice()
	return err == nil && choice == "y"
}

// getEditor returns the editor to use, checking environment variables with fallback
func getEditor() string {
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

// invokeEditor opens the editor on filename and waits for it to exit
func invokeEditor(filename string) error {
	editor := getEditor()
	if _, err := exec.LookPath(editor); err != nil {
		return fmt.Errorf("editor '%s' not found: %w\nPlease set VISUAL or EDITOR environment variable", editor, err)
	}

	cmd := exec.Command(editor, filename)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return fmt.Errorf("editor exited with code %d", exitErr.ExitCode())
	}
	return err
}
