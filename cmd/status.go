package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/illarion/blackbox/internal/core"
	"github.com/illarion/blackbox/internal/keyring"
)

// Status shows what can be learned about the container without its password
func Status(_ context.Context) {
	info, err := core.Stat(containerPath())
	if errors.Is(err, core.ErrNotFound) {
		fmt.Printf("No container found at %s\n", containerPath())
		fmt.Printf("Run %s to create one\n", hint.Sprintf("'blackbox init'"))
		return
	}
	if err != nil {
		HandleError(err)
	}

	stored := "not stored"
	if keyring.HasPassword(info.ID) {
		stored = "stored in keyring"
	}

	fmt.Printf("Container:  %s\n", info.Path)
	fmt.Printf("ID:         %s\n", info.ID)
	fmt.Printf("Size:       %s\n", formatSize(info.Size))
	fmt.Printf("Modified:   %s\n", info.Modified.Format(time.RFC3339))
	fmt.Printf("Encryption: %s, key from %s (%d iterations)\n", info.Algorithm, info.KDF, info.KDFIterations)
	fmt.Printf("Password:   %s\n", stored)
}
