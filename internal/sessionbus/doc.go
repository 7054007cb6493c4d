// Package sessionbus subscribes to desktop session lock-state notifications
// on the D-Bus session bus. It probes a fixed priority list of screensaver
// endpoints, locks onto the first one that answers, and forwards every
// ActiveChanged signal as a boolean lock event. De-duplication is left to
// the consumer.
package sessionbus
