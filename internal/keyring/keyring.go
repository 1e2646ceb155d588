// Package keyring stores container passwords in the OS keyring, keyed by
// container ID.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "blackbox"

// ErrNotFound is returned when no password is stored for a container.
var ErrNotFound = errors.New("password not found in keyring")

// SavePassword stores a password in the OS keyring
func SavePassword(containerID string, password []byte) error {
	if containerID == "" {
		return errors.New("empty container id")
	}
	if err := keyring.Set(serviceName, containerID, string(password)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// GetPassword retrieves a password from the OS keyring
func GetPassword(containerID string) ([]byte, error) {
	secret, err := keyring.Get(serviceName, containerID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	return []byte(secret), nil
}

// DeletePassword removes a password from the OS keyring
func DeletePassword(containerID string) error {
	err := keyring.Delete(serviceName, containerID)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(containerID string) bool {
	_, err := keyring.Get(serviceName, containerID)
	return err == nil
}
