package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/blackbox/internal/core"
	"github.com/illarion/blackbox/internal/crypto"
)

// Extract writes every entry into dir, resolving conflicts with existing
// files according to strategy
func Extract(ctx context.Context, dir string, strategy core.MergeStrategy) {
	c, password, source := openContainer(ctx)
	defer crypto.ClearBytes(password)

	var resolver core.ConflictResolver
	if strategy == core.StrategyAsk {
		if !core.IsTerminal() {
			fmt.Fprintf(os.Stderr, "%s not a terminal, conflicting files will be skipped\n", warning.Sprintf("warning:"))
		} else {
			resolver = promptConflict
		}
	}

	result, err := c.ExtractAll(ctx, dir, strategy, resolver, nil)
	if err != nil {
		fail(c, err)
	}
	id := c.ID()
	c.Close()

	for _, name := range result.Extracted {
		fmt.Printf("extracted: %s\n", name)
	}
	for _, name := range result.Skipped {
		fmt.Printf("skipped: %s\n", muted.Sprintf("%s", name))
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "%s %s\n", failure.Sprintf("error:"), msg)
	}

	fmt.Printf("\n")
	if len(result.Extracted) > 0 {
		fmt.Printf("extracted: %d files\n", len(result.Extracted))
	}
	if len(result.Skipped) > 0 {
		fmt.Printf("skipped: %d files\n", len(result.Skipped))
	}

	if source == SourcePrompt {
		OfferToSavePassword(id, password)
	}
	if len(result.Errors) > 0 {
		HandleError(fmt.Errorf("%d errors occurred", len(result.Errors)))
	}
}

// Cat writes one entry to stdout, or to dest when set
func Cat(ctx context.Context, name, dest string) {
	c, password, _ := openContainer(ctx)
	defer crypto.ClearBytes(password)

	if dest != "" {
		sp := startSpinner("Extracting " + name)
		err := c.ExtractFile(ctx, name, dest, sp.Progress)
		sp.Stop()
		if err != nil {
			fail(c, err)
		}
		c.Close()
		fmt.Fprintf(os.Stderr, "%s %s written to %s\n", success.Sprintf("✓"), name, dest)
		return
	}

	if _, err := c.Extract(ctx, name, os.Stdout, nil); err != nil {
		fail(c, err)
	}
	c.Close()
}
