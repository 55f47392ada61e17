// rembed computes text and image embeddings inside SQLite via external
// providers: an extensionized SQL surface, an MCP server, and a small CLI.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	_ "github.com/sqlite-ai/rembed/builtin"
	"github.com/sqlite-ai/rembed/internal/config"
	"github.com/sqlite-ai/rembed/internal/mcp"
	rembedsqlite "github.com/sqlite-ai/rembed/internal/sqlite"
	"github.com/sqlite-ai/rembed/pkg/plugin/host"
	"github.com/sqlite-ai/rembed/pkg/provider"
)

var (
	logLevel  string
	logFormat string
	rootDir   string
)

// Ensure sqlite-vec Auto() is called exactly once before any db connection.
var vecAutoOnce sync.Once

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rembed",
	Short: "Text and image embeddings inside SQLite",
	Long: `rembed registers SQL functions and virtual tables for computing
embeddings from remote providers (OpenAI, Ollama, Cohere, Nomic, Jina,
Mixedbread, llamafile) directly in SQLite queries.

It supports:
- A writable rembed_clients table for registering clients
- Single, batch and concurrent image embedding functions
- sqlite-vec interop through rembed_raw
- External provider plugins and an MCP server`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rembed %s\n", rembedsqlite.Version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run SQL against a database with the embedding surface loaded",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		return runQuery(dbPath, args[0])
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		return runServe(watch)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigPath(rootDir)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := config.Save(rootDir, config.DefaultConfig()); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, warnings, err := config.Load(rootDir)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Printf("warning: %s\n", w)
		}
		errs := config.Validate(cfg)
		if len(errs) == 0 {
			fmt.Println("Config is valid")
			return nil
		}
		for _, e := range errs {
			fmt.Printf("error: %v\n", e)
		}
		return fmt.Errorf("%d validation error(s)", len(errs))
	},
}

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List clients that would be registered at startup",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.Load(rootDir)
		if err != nil {
			return err
		}
		reg := provider.NewRegistry()
		config.RegisterClients(cfg, reg)

		names := reg.Names()
		if len(names) == 0 {
			fmt.Println("No clients configured")
			return nil
		}
		for _, name := range names {
			entry, err := reg.Lookup(name)
			if err != nil {
				continue
			}
			fmt.Printf("%-20s %-12s %s\n", name, entry.Kind, entry.Client.Model())
		}
		return nil
	},
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List discovered provider plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.Load(rootDir)
		if err != nil {
			return err
		}
		names, err := host.NewManager(cfg.Plugins.Dir).Discover()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Printf("No plugins found in %s\n", cfg.Plugins.Dir)
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func runQuery(dbPath, query string) error {
	cfg, _, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	config.Apply(cfg, rembedsqlite.DefaultRegistry)
	defer host.DefaultManager().Shutdown()

	vecAutoOnce.Do(func() {
		sqlite_vec.Auto()
	})

	db, err := sql.Open(rembedsqlite.DriverName(), dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(cols, "\t"))

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = renderValue(v)
		}
		fmt.Println(strings.Join(out, "\t"))
	}
	return rows.Err()
}

// renderValue keeps blob output terminal-safe.
func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("<blob %d bytes>", len(t))
	default:
		return fmt.Sprint(t)
	}
}

func runServe(watch bool) error {
	cfg, warnings, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		slog.Warn(w)
	}
	config.Apply(cfg, rembedsqlite.DefaultRegistry)
	defer host.DefaultManager().Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watch {
		watcher, err := config.NewWatcher(rootDir, rembedsqlite.DefaultRegistry)
		if err != nil {
			return err
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	slog.Info("starting MCP server", "version", rembedsqlite.Version,
		"clients", rembedsqlite.DefaultRegistry.Len())
	return mcp.New(rembedsqlite.DefaultRegistry, rembedsqlite.Version).ServeStdio()
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "directory holding the .rembed config")

	queryCmd.Flags().String("db", ":memory:", "SQLite database path")
	serveCmd.Flags().Bool("watch", false, "reload clients when the config file changes")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(pluginsCmd)
}
