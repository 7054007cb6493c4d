package unlock

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	keepassxcBusName    = "org.keepassxc.KeePassXC.MainWindow"
	keepassxcObjectPath = dbus.ObjectPath("/keepassxc")
	openDatabaseMethod  = "org.keepassxc.KeePassXC.MainWindow.openDatabase"
)

// Opener issues a single database unlock request to the target application.
type Opener interface {
	OpenDatabase(ctx context.Context, path, password string) error
}

// DBusOpener calls KeePassXC's openDatabase method on the session bus.
type DBusOpener struct {
	conn *dbus.Conn
}

// NewDBusOpener connects to the session bus and returns an opener bound to
// the KeePassXC main window object.
func NewDBusOpener() (*DBusOpener, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &DBusOpener{conn: conn}, nil
}

// OpenDatabase asks KeePassXC to unlock the database at path with password.
// The call is bounded by ctx so a hung target cannot stall the caller.
func (o *DBusOpener) OpenDatabase(ctx context.Context, path, password string) error {
	obj := o.conn.Object(keepassxcBusName, keepassxcObjectPath)
	call := obj.CallWithContext(ctx, openDatabaseMethod, 0, path, password)
	if call.Err != nil {
		return fmt.Errorf("openDatabase %s: %w", path, call.Err)
	}
	return nil
}

// Close releases the bus connection.
func (o *DBusOpener) Close() error {
	return o.conn.Close()
}
