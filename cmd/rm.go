package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/blackbox/internal/crypto"
)

// Remove deletes entries from the container
func Remove(ctx context.Context, names []string) {
	if len(names) == 0 {
		HandleError(fmt.Errorf("no entries specified"))
	}

	c, password, _ := openContainer(ctx)
	defer crypto.ClearBytes(password)

	for _, name := range names {
		if err := c.RemoveEntry(name); err != nil {
			fail(c, err)
		}
		fmt.Printf("removed: %s\n", name)
	}

	if err := save(ctx, c); err != nil {
		fail(c, err)
	}
	c.Close()

	fmt.Printf("%s %d entries removed\n", success.Sprintf("✓"), len(names))
}
