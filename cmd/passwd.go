package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/blackbox/internal/core"
	"github.com/illarion/blackbox/internal/crypto"
	"github.com/illarion/blackbox/internal/keyring"
)

// Passwd changes the container password
func Passwd(ctx context.Context) {
	c, currentPassword, _ := openContainer(ctx)
	defer crypto.ClearBytes(currentPassword)

	fmt.Println("Choose a new password")
	newPassword, err := core.ReadPasswordConfirm()
	if err != nil {
		fail(c, err)
	}
	defer crypto.ClearBytes(newPassword)
	if len(newPassword) == 0 {
		fail(c, fmt.Errorf("password cannot be empty"))
	}

	sp := startSpinner("Re-encrypting " + c.Path())
	err = c.ChangePassword(ctx, newPassword)
	sp.Stop()
	if err != nil {
		fail(c, err)
	}
	id := c.ID()
	c.Close()

	// The ID is derived from the salt, which a password change keeps
	if keyring.HasPassword(id) {
		if err := keyring.SavePassword(id, newPassword); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	}

	fmt.Println(success.Sprintf("✓") + " Password changed successfully")
}
