package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/illarion/blackbox/internal/core"
	"github.com/illarion/blackbox/internal/crypto"
	"github.com/illarion/blackbox/internal/entry"
)

// Add stores files in the container, replacing entries with the same name.
// With name set, a single file (or "-" for stdin) is stored under that name.
// mediaType overrides the sniffed type.
func Add(ctx context.Context, files []string, name, mediaType string) {
	if len(files) == 0 {
		HandleError(fmt.Errorf("no files specified"))
	}
	if name != "" && len(files) != 1 {
		HandleError(fmt.Errorf("--name requires exactly one file"))
	}
	for _, file := range files {
		if file == "-" && name == "" {
			HandleError(fmt.Errorf("reading from stdin requires --name"))
		}
	}

	c, password, source := openContainer(ctx)
	defer crypto.ClearBytes(password)

	for _, file := range files {
		sp := startSpinner("Adding " + file)
		var (
			stored string
			err    error
		)
		switch {
		case name == "" && mediaType == "":
			stored, err = c.AddFile(ctx, file, sp.Progress)
		case name == "":
			stored = filepath.Base(file)
			err = addAs(ctx, c, file, stored, mediaType, sp.Progress)
		default:
			stored = name
			err = addAs(ctx, c, file, stored, mediaType, sp.Progress)
		}
		sp.Stop()
		if err != nil {
			fail(c, fmt.Errorf("%s: %w", file, err))
		}
		fmt.Printf("added: %s\n", stored)
	}

	if err := save(ctx, c); err != nil {
		fail(c, err)
	}
	id := c.ID()
	c.Close()

	fmt.Printf("%s %d file(s) stored in %s\n", success.Sprintf("✓"), len(files), containerPath())
	if source == SourcePrompt {
		OfferToSavePassword(id, password)
	}
}

// addAs stores file under name. "-" reads stdin, whose size is unknown.
func addAs(ctx context.Context, c *core.Container, file, name, mediaType string, progress entry.ProgressFunc) error {
	if file == "-" {
		return c.AddEntry(ctx, name, mediaType, os.Stdin, -1, progress)
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", file)
	}

	if mediaType == "" {
		sample := make([]byte, entry.SniffSize)
		n, _ := io.ReadFull(f, sample)
		mediaType = entry.DetectMediaType(name, sample[:n])
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}
	return c.AddEntry(ctx, name, mediaType, f, info.Size(), progress)
}
