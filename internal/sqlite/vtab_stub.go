//go:build !sqlite_vtable

package sqlite

import (
	"log/slog"

	"github.com/mattn/go-sqlite3"

	"github.com/sqlite-ai/rembed/pkg/provider"
)

// Virtual tables need the driver's sqlite_vtable build tag. Without it the
// scalar functions still work; clients can only be registered through
// configuration or Go code.
func registerVTabs(conn *sqlite3.SQLiteConn, reg *provider.Registry) error {
	slog.Debug("built without sqlite_vtable; rembed_clients and rembed_batch_table are unavailable")
	return nil
}
