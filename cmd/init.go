package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/blackbox/internal/core"
	"github.com/illarion/blackbox/internal/crypto"
)

// Init creates a new empty container
func Init(ctx context.Context) {
	path := containerPath()

	password, err := GetPasswordForInit()
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	c, err := core.Create(path, password, containerOptions()...)
	if err != nil {
		HandleError(err)
	}
	if err := save(ctx, c); err != nil {
		fail(c, err)
	}
	id := c.ID()
	c.Close()

	fmt.Printf("%s Initialized %s\n", success.Sprintf("✓"), path)

	if core.GetPasswordFromEnv() == nil {
		OfferToSavePassword(id, password)
	}
}
