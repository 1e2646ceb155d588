package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/illarion/blackbox/internal/crypto"
	"github.com/illarion/blackbox/internal/security"
)

// Diff compares stored entries with the files of the same name in dir.
// With names given, only those entries are compared.
func Diff(ctx context.Context, dir string, names []string) {
	c, password, _ := openContainer(ctx)
	defer crypto.ClearBytes(password)

	validator, err := security.New(dir)
	if err != nil {
		fail(c, err)
	}
	defer validator.Close()

	if len(names) == 0 {
		entries, err := c.List()
		if err != nil {
			fail(c, err)
		}
		for _, e := range entries {
			names = append(names, e.Name)
		}
	}

	changed := 0
	for _, name := range names {
		local, err := validator.ReadFileInRoot(name)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			fmt.Printf("%s %s %s\n", warning.Sprintf("only in container:"), name, muted.Sprintf("(no file in %s)", validator.Dir()))
			changed++
			continue
		case err != nil:
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", failure.Sprintf("error:"), name, err)
			continue
		}

		diff, err := c.Diff(ctx, name, local)
		if err != nil {
			fail(c, err)
		}
		if diff == "" {
			continue
		}
		changed++
		fmt.Print(colorizeDiff(diff))
	}
	c.Close()

	if changed == 0 {
		fmt.Println(success.Sprintf("✓") + " No differences")
	}
}
