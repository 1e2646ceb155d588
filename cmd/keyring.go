package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/blackbox/internal/core"
	"github.com/illarion/blackbox/internal/crypto"
	"github.com/illarion/blackbox/internal/keyring"
)

// KeyringSave verifies the password and saves it to the OS keyring
func KeyringSave(ctx context.Context) {
	info, err := core.Stat(containerPath())
	if err != nil {
		HandleError(err)
	}

	password, err := core.ReadPassword("Enter password: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	c, err := unlock(ctx, containerPath(), password)
	if err != nil {
		HandleError(err)
	}
	c.Close()

	if err := keyring.SavePassword(info.ID, password); err != nil {
		HandleError(err)
	}
	fmt.Println(success.Sprintf("✓") + " Password saved to keyring")
}

// KeyringDelete removes the password from the OS keyring
func KeyringDelete() {
	info, err := core.Stat(containerPath())
	if err != nil {
		HandleError(err)
	}

	err = keyring.DeletePassword(info.ID)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		fmt.Println("No password stored in keyring")
	case err != nil:
		HandleError(err)
	default:
		fmt.Println("Password removed from keyring")
	}
}

// KeyringStatus checks if a password is stored in the keyring
func KeyringStatus() {
	info, err := core.Stat(containerPath())
	if err != nil {
		HandleError(err)
	}

	if keyring.HasPassword(info.ID) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
}
