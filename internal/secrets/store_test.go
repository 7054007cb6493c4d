package secrets

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyringStoreRoundTrip(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore()

	if err := store.Set("keywatch", "/vault/a.kdbx", "hunter2"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cred, err := store.Lookup("keywatch", "/vault/a.kdbx")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if cred.Identity != "/vault/a.kdbx" || cred.Secret != "hunter2" {
		t.Fatalf("unexpected credential: %+v", cred)
	}

	if err := store.Delete("keywatch", "/vault/a.kdbx"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Lookup("keywatch", "/vault/a.kdbx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestKeyringStoreDeleteMissingIsNoError(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore()

	if err := store.Delete("keywatch", "/vault/never-stored.kdbx"); err != nil {
		t.Fatalf("Delete of missing credential: %v", err)
	}
}

func TestKeyringStoreLookupMissing(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore()

	if _, err := store.Lookup("keywatch", "/vault/missing.kdbx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
