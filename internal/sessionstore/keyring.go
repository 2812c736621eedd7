package sessionstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name entries are filed under in the OS keychain
const DefaultKeyringService = "clipnest"

// KeyringBackend persists the session in the OS keychain/credential manager
type KeyringBackend struct {
	service string
}

// NewKeyringBackend creates a backend storing entries under the given keyring service
func NewKeyringBackend(service string) *KeyringBackend {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringBackend{service: service}
}

func (k *KeyringBackend) Get(key string) (string, error) {
	value, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s from keyring: %w", key, err)
	}
	return value, nil
}

func (k *KeyringBackend) Set(key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

func (k *KeyringBackend) Delete(key string) error {
	if err := keyring.Delete(k.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}
