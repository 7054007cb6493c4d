package sessionbus

import "github.com/godbus/dbus/v5"

// Endpoint is a candidate lock-notification service on the session bus. The
// interface name doubles as the well-known bus name of the service.
type Endpoint struct {
	Interface string
	Path      dbus.ObjectPath
}

func (e Endpoint) String() string {
	return e.Interface + " at " + string(e.Path)
}

// signalMember is the lock-state change signal emitted by both endpoints.
// Its single boolean argument is true while the session is locked.
const signalMember = "ActiveChanged"

// probeMethod is called to verify an endpoint is actually serviced before
// committing to it.
const probeMethod = "GetActive"

// DefaultEndpoints lists the known screensaver services in priority order.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{Interface: "org.freedesktop.ScreenSaver", Path: "/org/freedesktop/ScreenSaver"},
		{Interface: "org.gnome.ScreenSaver", Path: "/org/gnome/ScreenSaver"},
	}
}
