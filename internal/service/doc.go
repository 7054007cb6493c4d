// Package service installs and removes the systemd user unit that keeps the
// watcher running across logins. All systemctl interaction goes through the
// user manager (--user); nothing here needs root.
package service
