// Package watcher reconciles session lock-state notifications with target
// process presence and drives the unlock action. Lock events and presence
// events arrive on independent streams in no guaranteed order; the engine
// serializes both into a single consumer so state transitions are applied
// atomically, and fires on either "session became unlocked while the process
// runs" or "process started while the session is unlocked". Either ordering
// of the two signals therefore produces an unlock, at the cost of at most
// one redundant call when they race.
package watcher
