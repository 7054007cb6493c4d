// Command keywatch manages automatic unlocking of KeePassXC databases when
// the desktop session unlocks. It covers credential registration, a manual
// unlock cycle, the long-running watcher, systemd user-unit management, and
// unlock history.
package main
