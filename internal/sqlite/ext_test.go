package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/mattn/go-sqlite3"

	"github.com/sqlite-ai/rembed/builtin/mock"
	"github.com/sqlite-ai/rembed/internal/vector"
	"github.com/sqlite-ai/rembed/pkg/provider"
)

var (
	testRegistry   = provider.NewRegistry()
	testDriverOnce sync.Once
)

func init() {
	provider.RegisterFactory("mock", func(cfg provider.Config) (provider.Client, error) {
		return mock.New(cfg)
	})
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDriverOnce.Do(func() {
		sql.Register("sqlite3_rembed_test", &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return Register(conn, testRegistry)
			},
		})
	})

	db, err := sql.Open("sqlite3_rembed_test", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// In-memory databases are per connection.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func registerMock(t *testing.T, name string) *mock.Client {
	t.Helper()
	client, err := mock.New(provider.Config{Model: name})
	if err != nil {
		t.Fatalf("mock.New: %v", err)
	}
	testRegistry.Register(name, client)
	return client
}

func TestVersionFunctions(t *testing.T) {
	db := openTestDB(t)

	var version string
	if err := db.QueryRow("SELECT rembed_version()").Scan(&version); err != nil {
		t.Fatalf("rembed_version: %v", err)
	}
	if version != "v"+Version {
		t.Errorf("rembed_version() = %q, want %q", version, "v"+Version)
	}

	var debug string
	if err := db.QueryRow("SELECT rembed_debug()").Scan(&debug); err != nil {
		t.Fatalf("rembed_debug: %v", err)
	}
	for _, want := range []string{"Version: v" + Version, "Source:", "Runtime:"} {
		if !strings.Contains(debug, want) {
			t.Errorf("rembed_debug() = %q, missing %q", debug, want)
		}
	}
}

func TestRembed(t *testing.T) {
	db := openTestDB(t)
	client := registerMock(t, "text-mock")

	var blob []byte
	if err := db.QueryRow("SELECT rembed('text-mock', 'hello world')").Scan(&blob); err != nil {
		t.Fatalf("rembed: %v", err)
	}

	if !vector.IsVector(blob) {
		t.Fatal("result blob is not tagged")
	}
	got, err := vector.Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want, err := client.InferSingle(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("InferSingle: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRembedUnknownClient(t *testing.T) {
	db := openTestDB(t)

	var blob []byte
	err := db.QueryRow("SELECT rembed('never-registered', 'x')").Scan(&blob)
	if err == nil {
		t.Fatal("expected error for unknown client")
	}
	if !strings.Contains(err.Error(), "was not registered with rembed_clients") {
		t.Errorf("error %q does not carry the registration hint", err.Error())
	}
}

func TestRembedBatch(t *testing.T) {
	db := openTestDB(t)
	client := registerMock(t, "batch-mock")

	var out string
	err := db.QueryRow(`SELECT rembed_batch('batch-mock', '["one", "two", "three"]')`).Scan(&out)
	if err != nil {
		t.Fatalf("rembed_batch: %v", err)
	}

	var encoded []string
	if err := json.Unmarshal([]byte(out), &encoded); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(encoded) != 3 {
		t.Fatalf("got %d embeddings, want 3", len(encoded))
	}

	for i, input := range []string{"one", "two", "three"} {
		blob, err := base64.StdEncoding.DecodeString(encoded[i])
		if err != nil {
			t.Fatalf("entry %d is not base64: %v", i, err)
		}
		got, err := vector.Decode(blob)
		if err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
		want, _ := client.InferSingle(context.Background(), input)
		if got[0] != want[0] {
			t.Errorf("entry %d does not match input order", i)
		}
	}
}

func TestRembedBatchErrors(t *testing.T) {
	db := openTestDB(t)
	registerMock(t, "err-mock")

	tests := []struct {
		name    string
		query   string
		wantErr string
	}{
		{
			name:    "invalid json",
			query:   `SELECT rembed_batch('err-mock', 'not json')`,
			wantErr: "invalid JSON array",
		},
		{
			name:    "empty array",
			query:   `SELECT rembed_batch('err-mock', '[]')`,
			wantErr: "input array cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out string
			err := db.QueryRow(tt.query).Scan(&out)
			if err == nil {
				t.Fatalf("expected error, got %q", out)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestRembedRaw(t *testing.T) {
	db := openTestDB(t)
	registerMock(t, "raw-mock")

	var n int
	err := db.QueryRow("SELECT length(rembed_raw(rembed('raw-mock', 'abc')))").Scan(&n)
	if err != nil {
		t.Fatalf("rembed_raw: %v", err)
	}
	if n != mock.DefaultDimensions*4 {
		t.Errorf("raw length = %d, want %d", n, mock.DefaultDimensions*4)
	}

	var out []byte
	if err := db.QueryRow("SELECT rembed_raw(x'0102')").Scan(&out); err == nil {
		t.Error("expected error for untagged blob")
	}
}

func TestRembedClientOptions(t *testing.T) {
	db := openTestDB(t)

	var token string
	err := db.QueryRow("SELECT rembed_client_options('format', 'mock', 'model', 'm')").Scan(&token)
	if err != nil {
		t.Fatalf("rembed_client_options: %v", err)
	}
	if !strings.HasPrefix(token, handlePrefix) {
		t.Errorf("token %q lacks prefix %q", token, handlePrefix)
	}
	if _, ok := handles.claim(token); !ok {
		t.Error("token was not claimable")
	}

	var out string
	if err := db.QueryRow("SELECT rembed_client_options('only-key')").Scan(&out); err == nil {
		t.Error("expected error for odd argument count")
	}
}

func TestRembedImageRequiresMultimodalClient(t *testing.T) {
	db := openTestDB(t)
	registerMock(t, "plain-mock")

	var blob []byte
	err := db.QueryRow("SELECT rembed_image('plain-mock', x'FFD8FF')").Scan(&blob)
	if err == nil {
		t.Fatal("expected error for non-multimodal client")
	}
	if !strings.Contains(err.Error(), "does not accept image inputs") {
		t.Errorf("error %q lacks image capability hint", err.Error())
	}
}

func TestRembedImagesConcurrentRejectsBadInput(t *testing.T) {
	db := openTestDB(t)
	registerMock(t, "concurrent-mock")

	tests := []struct {
		name    string
		query   string
		wantErr string
	}{
		{
			name:    "empty array",
			query:   `SELECT rembed_images_concurrent('concurrent-mock', '[]')`,
			wantErr: "input array cannot be empty",
		},
		{
			name:    "bad base64",
			query:   `SELECT rembed_images_concurrent('concurrent-mock', '["%%%"]')`,
			wantErr: "not valid base64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out string
			err := db.QueryRow(tt.query).Scan(&out)
			if err == nil {
				t.Fatalf("expected error, got %q", out)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
