package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ErrNotFound reports that no credential exists for the requested identity.
var ErrNotFound = errors.New("secrets: credential not found")

// Credential is a stored secret together with the identity it was stored under.
type Credential struct {
	Identity string
	Secret   string
}

// Store is the interface for credential storage operations.
type Store interface {
	Lookup(service, identity string) (Credential, error)
	Set(service, identity, secret string) error
	Delete(service, identity string) error
}

// KeyringStore persists credentials in the platform keyring via the
// freedesktop Secret Service.
type KeyringStore struct{}

// NewKeyringStore returns a Store backed by the platform keyring.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// Lookup retrieves the credential stored under (service, identity).
func (*KeyringStore) Lookup(service, identity string) (Credential, error) {
	secret, err := keyring.Get(service, identity)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, fmt.Errorf("keyring get: %w", err)
	}
	return Credential{Identity: identity, Secret: secret}, nil
}

// Set stores secret under (service, identity), replacing any existing value.
func (*KeyringStore) Set(service, identity, secret string) error {
	if err := keyring.Set(service, identity, secret); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// Delete removes the credential stored under (service, identity).
// Deleting a missing credential is not an error.
func (*KeyringStore) Delete(service, identity string) error {
	err := keyring.Delete(service, identity)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}
