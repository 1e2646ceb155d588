package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/illarion/blackbox/internal/crypto"
)

// Ls shows entries stored in the container
func Ls(ctx context.Context) {
	c, password, source := openContainer(ctx)
	defer crypto.ClearBytes(password)

	entries, err := c.List()
	if err != nil {
		fail(c, err)
	}
	id := c.ID()
	c.Close()

	if len(entries) == 0 {
		fmt.Printf("No entries in %s\n", containerPath())
	} else {
		fmt.Printf("Entries in %s:\n", containerPath())
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", e.Name, muted.Sprintf("%s", e.MediaType), formatSize(e.Size))
		}
		w.Flush()
	}

	if source == SourcePrompt {
		OfferToSavePassword(id, password)
	}
}
