// Package config loads and persists keywatch settings from an INI file.
// The [databases] section is an ordered mapping of database path to an
// "enabled"/"disabled" marker; all other sections map to typed structs with
// repository defaults filled in for missing keys.
package config
