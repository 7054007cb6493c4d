// Package secrets stores database credentials in the desktop keyring.
// Credentials are keyed by (service, identity) where the identity is the
// database's filesystem path.
package secrets
