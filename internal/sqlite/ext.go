// Package sqlite wires the embedding engine into SQLite connections:
// scalar functions, the rembed_clients registry table and the
// rembed_batch_table eponymous virtual table.
package sqlite

import (
	"database/sql"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/sqlite-ai/rembed/pkg/provider"
)

// Version is reported by rembed_version() and the CLI.
const Version = "0.4.1"

// Source points readers of rembed_debug() at the project.
const Source = "https://github.com/sqlite-ai/rembed"

// DefaultRegistry backs connections opened through DriverName. Programs
// embedding the extension directly may pass their own registry to Register.
var DefaultRegistry = provider.NewRegistry()

// Register installs the full SQL surface on one connection against the
// given registry. Call it from a ConnectHook so every connection of a
// database/sql pool gets the same surface.
func Register(conn *sqlite3.SQLiteConn, reg *provider.Registry) error {
	if err := registerFunctions(conn, reg); err != nil {
		return err
	}
	return registerVTabs(conn, reg)
}

const driverName = "sqlite3_rembed"

var driverOnce sync.Once

// DriverName registers (once) and returns a database/sql driver whose
// connections carry the SQL surface bound to DefaultRegistry.
func DriverName() string {
	driverOnce.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return Register(conn, DefaultRegistry)
			},
		})
	})
	return driverName
}
