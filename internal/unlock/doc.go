// Package unlock dispatches database unlock requests to KeePassXC over the
// session bus. A cycle loads the enabled database entries, looks up each
// credential in the keyring, and issues one openDatabase call per entry.
// Failures are logged and never propagate to the caller; re-unlocking an
// already-open database is a no-op on the KeePassXC side, so repeated cycles
// are safe.
package unlock
