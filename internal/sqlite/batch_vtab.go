//go:build sqlite_vtable

package sqlite

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/sqlite-ai/rembed/internal/engine"
	"github.com/sqlite-ai/rembed/internal/vector"
	"github.com/sqlite-ai/rembed/pkg/provider"
	"github.com/sqlite-ai/rembed/pkg/types"
)

// DefaultBatchClient is used when rembed_batch_table gets no client
// constraint.
const DefaultBatchClient = "default"

const batchSchema = "CREATE TABLE x(contents TEXT, embedding BLOB, input HIDDEN, client HIDDEN)"

const (
	batchColContents = iota
	batchColEmbedding
	batchColInput
	batchColClient
)

// batchModule is the eponymous rembed_batch_table: one query embeds a JSON
// array of {"contents": ...} items in a single provider call and yields a
// row per item.
type batchModule struct {
	registry *provider.Registry
}

func (m *batchModule) EponymousOnlyModule() {}

func (m *batchModule) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.Connect(c, args)
}

func (m *batchModule) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	if err := c.DeclareVTab(batchSchema); err != nil {
		return nil, err
	}
	return &batchTable{registry: m.registry}, nil
}

func (m *batchModule) DestroyModule() {}

type batchTable struct {
	registry *provider.Registry
}

// BestIndex requires an equality constraint on input and optionally takes
// one on client. IdxStr records which Filter argument carries which value.
func (t *batchTable) BestIndex(csts []sqlite3.InfoConstraint, ob []sqlite3.InfoOrderBy) (*sqlite3.IndexResult, error) {
	used := make([]bool, len(csts))
	argOrder := ""

	for i, cst := range csts {
		switch cst.Column {
		case batchColInput, batchColClient:
			if !cst.Usable || cst.Op != sqlite3.OpEQ {
				return nil, fmt.Errorf("rembed_batch_table requires equality constraints on input and client")
			}
			used[i] = true
			if cst.Column == batchColInput {
				argOrder += "i"
			} else {
				argOrder += "c"
			}
		}
	}

	if !strings.Contains(argOrder, "i") {
		return nil, fmt.Errorf("rembed_batch_table requires an input constraint, e.g. SELECT * FROM rembed_batch_table WHERE input = json_array(...)")
	}

	return &sqlite3.IndexResult{
		Used:          used,
		IdxNum:        2,
		IdxStr:        argOrder,
		EstimatedCost: 100000,
		EstimatedRows: 100000,
	}, nil
}

func (t *batchTable) Disconnect() error { return nil }
func (t *batchTable) Destroy() error    { return nil }

func (t *batchTable) Open() (sqlite3.VTabCursor, error) {
	return &batchCursor{table: t}, nil
}

// Contents is a pointer so an absent key can be told apart from an
// explicitly empty text.
type batchItem struct {
	Contents *string `json:"contents"`
}

type batchRow struct {
	contents  string
	embedding []byte
}

type batchCursor struct {
	table      *batchTable
	rows       []batchRow
	curr       int
	inputJSON  string
	clientName string
}

func (c *batchCursor) Close() error { return nil }

// Filter runs the whole batch: one InferBatch call for every item, then
// the cursor replays the results row by row.
func (c *batchCursor) Filter(idxNum int, idxStr string, vals []any) error {
	c.curr = 0
	c.rows = nil
	c.inputJSON = ""
	c.clientName = DefaultBatchClient

	for pos, role := range idxStr {
		if pos >= len(vals) {
			break
		}
		s, ok := vals[pos].(string)
		if !ok {
			return fmt.Errorf("%w: rembed_batch_table constraints must be text", types.ErrMalformedInput)
		}
		switch role {
		case 'i':
			c.inputJSON = s
		case 'c':
			c.clientName = s
		}
	}

	var items []batchItem
	if err := json.Unmarshal([]byte(c.inputJSON), &items); err != nil {
		return fmt.Errorf("%w: input must be a JSON array of objects with a 'contents' key: %v", types.ErrMalformedInput, err)
	}
	texts := make([]string, len(items))
	for i, item := range items {
		if item.Contents == nil {
			return fmt.Errorf("%w: item %d has no 'contents' key", types.ErrMalformedInput, i)
		}
		texts[i] = *item.Contents
	}

	entry, err := c.table.registry.Lookup(c.clientName)
	if err != nil {
		return err
	}
	vecs, err := engine.Batch(entry.Client, texts)
	if err != nil {
		return err
	}

	c.rows = make([]batchRow, len(items))
	for i := range items {
		c.rows[i] = batchRow{contents: texts[i], embedding: vector.Encode(vecs[i])}
	}
	return nil
}

func (c *batchCursor) Next() error {
	c.curr++
	return nil
}

func (c *batchCursor) EOF() bool {
	return c.curr >= len(c.rows)
}

func (c *batchCursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	switch col {
	case batchColContents:
		ctx.ResultText(c.rows[c.curr].contents)
	case batchColEmbedding:
		ctx.ResultBlob(c.rows[c.curr].embedding)
	case batchColInput:
		ctx.ResultText(c.inputJSON)
	case batchColClient:
		ctx.ResultText(c.clientName)
	default:
		return fmt.Errorf("unknown column index %d", col)
	}
	return nil
}

func (c *batchCursor) Rowid() (int64, error) {
	return int64(c.curr), nil
}

var (
	_ sqlite3.EponymousOnlyModule = (*batchModule)(nil)
	_ sqlite3.VTabCursor          = (*batchCursor)(nil)
)
