// Package journal records unlock cycles in a SQLite database so that
// `keywatch history` can show what the watcher did and when.
package journal
