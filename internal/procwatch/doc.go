// Package procwatch polls the OS process table for a named process and
// emits presence transitions: started, stopped, and restarted under a new
// PID. There is no portable push notification for "a named process started",
// so polling stays behind this package's interface.
package procwatch
