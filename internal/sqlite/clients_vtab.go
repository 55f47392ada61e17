//go:build sqlite_vtable

package sqlite

import (
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/sqlite-ai/rembed/pkg/provider"
	"github.com/sqlite-ai/rembed/pkg/types"
)

func registerVTabs(conn *sqlite3.SQLiteConn, reg *provider.Registry) error {
	if err := conn.CreateModule("rembed_clients", &clientsModule{registry: reg}); err != nil {
		return fmt.Errorf("failed to create rembed_clients module: %w", err)
	}
	if err := conn.CreateModule("rembed_batch_table", &batchModule{registry: reg}); err != nil {
		return fmt.Errorf("failed to create rembed_batch_table module: %w", err)
	}
	return nil
}

// clientsModule exposes the registry as the writable rembed_clients table.
// Inserting a row registers a client; the table itself stores nothing.
type clientsModule struct {
	registry *provider.Registry
}

func (m *clientsModule) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.Connect(c, args)
}

func (m *clientsModule) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	if err := c.DeclareVTab("CREATE TABLE x(name TEXT PRIMARY KEY, options)"); err != nil {
		return nil, err
	}
	return &clientsTable{registry: m.registry}, nil
}

func (m *clientsModule) DestroyModule() {}

type clientsTable struct {
	registry *provider.Registry
	nextRow  int64
}

func (t *clientsTable) BestIndex(csts []sqlite3.InfoConstraint, ob []sqlite3.InfoOrderBy) (*sqlite3.IndexResult, error) {
	return &sqlite3.IndexResult{
		Used:          make([]bool, len(csts)),
		IdxNum:        1,
		EstimatedCost: 10000,
		EstimatedRows: 10000,
	}, nil
}

func (t *clientsTable) Disconnect() error { return nil }
func (t *clientsTable) Destroy() error    { return nil }

func (t *clientsTable) Open() (sqlite3.VTabCursor, error) {
	names := t.registry.Names()
	rows := make([]clientRow, 0, len(names))
	for _, name := range names {
		entry, err := t.registry.Lookup(name)
		if err != nil {
			continue
		}
		rows = append(rows, clientRow{name: name, kind: entry.Kind})
	}
	return &clientsCursor{rows: rows}, nil
}

// Insert registers a client under the inserted name. The options value is
// either inline option text or a handle token from rembed_client_options.
func (t *clientsTable) Insert(id any, vals []any) (int64, error) {
	name, ok := vals[0].(string)
	if !ok || name == "" {
		return 0, fmt.Errorf("%w: client name required", types.ErrInvalidConfig)
	}

	options, ok := vals[1].(string)
	if !ok {
		return 0, fmt.Errorf("%w: client options required", types.ErrInvalidConfig)
	}

	var client provider.Client
	if isHandle(options) {
		client, ok = handles.claim(options)
		if !ok {
			return 0, fmt.Errorf("%w: client options handle already used or unknown", types.ErrInvalidConfig)
		}
	} else {
		cfg, err := provider.ParseOptions(name, options)
		if err != nil {
			return 0, err
		}
		client, err = provider.New(cfg)
		if err != nil {
			return 0, err
		}
	}

	t.registry.Register(name, client)
	t.nextRow++
	return t.nextRow, nil
}

func (t *clientsTable) Delete(any) error {
	return fmt.Errorf("%w: DELETE operations on rembed_clients is not supported yet", types.ErrUnsupported)
}

func (t *clientsTable) Update(any, []any) error {
	return fmt.Errorf("%w: UPDATE operations on rembed_clients is not supported yet", types.ErrUnsupported)
}

type clientRow struct {
	name string
	kind types.ClientKind
}

// clientsCursor iterates a snapshot taken at Open, so concurrent inserts
// do not disturb an in-progress scan.
type clientsCursor struct {
	rows []clientRow
	pos  int
}

func (c *clientsCursor) Close() error { return nil }

func (c *clientsCursor) Filter(idxNum int, idxStr string, vals []any) error {
	c.pos = 0
	return nil
}

func (c *clientsCursor) Next() error {
	c.pos++
	return nil
}

func (c *clientsCursor) EOF() bool {
	return c.pos >= len(c.rows)
}

func (c *clientsCursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	row := c.rows[c.pos]
	switch col {
	case 0:
		ctx.ResultText(row.name)
	case 1:
		// Options are not persisted; render the client kind instead.
		ctx.ResultText(fmt.Sprintf("(%s client)", row.kind))
	default:
		return fmt.Errorf("unknown column index %d", col)
	}
	return nil
}

func (c *clientsCursor) Rowid() (int64, error) {
	return int64(c.pos), nil
}

var (
	_ sqlite3.Module      = (*clientsModule)(nil)
	_ sqlite3.VTabUpdater = (*clientsTable)(nil)
)
