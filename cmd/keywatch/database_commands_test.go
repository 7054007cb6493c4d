package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddRegistersDatabaseAndCredential(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.runCLI(t, "hunter2\n", "add", "~/vault.kdbx")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Registered")
	requireContains(t, out, "enabled: yes")

	home := os.Getenv("HOME")
	expanded := filepath.Join(home, "vault.kdbx")
	cred, err := env.store.Lookup("keywatch", expanded)
	if err != nil {
		t.Fatalf("credential not stored: %v", err)
	}
	if cred.Secret != "hunter2" {
		t.Fatalf("unexpected secret %q", cred.Secret)
	}

	// Registration must survive to the next invocation via the config file.
	out, _, err = env.runCLI(t, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, expanded)
	requireContains(t, out, "present")
}

func TestAddRejectsEmptyPassword(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.runCLI(t, "\n", "add", "/tmp/vault.kdbx")
	if err == nil {
		t.Fatal("expected an error for an empty password")
	}
	if len(env.store.values) != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestAddDisabledFlag(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.runCLI(t, "pw\n", "add", "--disabled", "/tmp/vault.kdbx")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "enabled: no")

	out, _, err = env.runCLI(t, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "no")
}

func TestRemoveDeletesEntryAndCredential(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := env.runCLI(t, "pw\n", "add", "/tmp/vault.kdbx"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, _, err := env.runCLI(t, "", "remove", "/tmp/vault.kdbx")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "Removed")

	if len(env.store.values) != 0 {
		t.Fatal("credential should be deleted")
	}

	out, _, err = env.runCLI(t, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "No databases registered")
}

func TestRemoveKeepCredential(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := env.runCLI(t, "pw\n", "add", "/tmp/vault.kdbx"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := env.runCLI(t, "", "remove", "--keep-credential", "/tmp/vault.kdbx"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(env.store.values) != 1 {
		t.Fatal("credential should remain in the keyring")
	}
}

func TestRemoveUnknownDatabase(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.runCLI(t, "", "remove", "/tmp/unknown.kdbx")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "was not registered")
}

func TestListReportsMissingCredential(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := env.runCLI(t, "pw\n", "add", "/tmp/vault.kdbx"); err != nil {
		t.Fatalf("add: %v", err)
	}
	delete(env.store.values, env.store.key("keywatch", "/tmp/vault.kdbx"))

	out, _, err := env.runCLI(t, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "missing")
}
