package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"keywatch/internal/secrets"
	"keywatch/internal/unlock"
)

type fakeSecrets struct {
	values map[string]string
}

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{values: map[string]string{}}
}

func (f *fakeSecrets) key(service, identity string) string {
	return service + "\x00" + identity
}

func (f *fakeSecrets) Lookup(service, identity string) (secrets.Credential, error) {
	secret, ok := f.values[f.key(service, identity)]
	if !ok {
		return secrets.Credential{}, secrets.ErrNotFound
	}
	return secrets.Credential{Identity: identity, Secret: secret}, nil
}

func (f *fakeSecrets) Set(service, identity, secret string) error {
	f.values[f.key(service, identity)] = secret
	return nil
}

func (f *fakeSecrets) Delete(service, identity string) error {
	delete(f.values, f.key(service, identity))
	return nil
}

type fakeOpener struct {
	paths []string
	err   error
}

func (f *fakeOpener) OpenDatabase(_ context.Context, path, _ string) error {
	f.paths = append(f.paths, path)
	return f.err
}

type cliEnv struct {
	store  *fakeSecrets
	opener *fakeOpener
}

// setupCLITestEnv points HOME at a scratch directory so config, journal,
// and log paths all resolve inside the test sandbox.
func setupCLITestEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return &cliEnv{store: newFakeSecrets(), opener: &fakeOpener{}}
}

// runCLI executes one invocation with a fresh command tree, mirroring how
// separate process runs behave.
func (e *cliEnv) runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var configFlag string
	ctx := newCommandContext(&configFlag)
	ctx.store = e.store
	ctx.newOpener = func() (unlock.Opener, error) { return e.opener, nil }

	root := buildRootCommand(ctx, &configFlag)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)

	err := root.Execute()
	return out.String(), errOut.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
