// Package host loads external embedding provider plugins and adapts them
// to the in-process client contract.
package host

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/sqlite-ai/rembed/pkg/plugin/shared"
)

// DefaultPluginsDir is used when no directory is configured.
const DefaultPluginsDir = "plugins"

// Manager manages external plugin processes.
type Manager struct {
	pluginsDir string
	plugins    map[string]*LoadedPlugin
	mu         sync.Mutex
	logger     hclog.Logger
}

// LoadedPlugin is one running plugin process.
type LoadedPlugin struct {
	Name      string
	Path      string
	Client    *plugin.Client
	Embedding shared.EmbeddingProvider
}

// NewManager creates a plugin manager for the given directory.
func NewManager(pluginsDir string) *Manager {
	if pluginsDir == "" {
		pluginsDir = DefaultPluginsDir
	}

	// go-plugin insists on hclog; everything else in this repo uses slog.
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "plugins",
		Level:  hclog.Warn,
		Output: os.Stderr,
	})

	return &Manager{
		pluginsDir: pluginsDir,
		plugins:    make(map[string]*LoadedPlugin),
		logger:     logger,
	}
}

var (
	defaultMu      sync.Mutex
	defaultManager *Manager
)

// Configure sets the plugins directory for the process-wide manager.
// Plugins already loaded keep running.
func Configure(pluginsDir string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultManager = NewManager(pluginsDir)
}

// DefaultManager returns the process-wide manager, creating it with the
// default directory if Configure was never called.
func DefaultManager() *Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultManager == nil {
		defaultManager = NewManager("")
	}
	return defaultManager
}

// Discover lists executable plugin binaries in the plugins directory.
func (m *Manager) Discover() ([]string, error) {
	if _, err := os.Stat(m.pluginsDir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(m.pluginsDir, entry.Name()))
		if err != nil {
			continue
		}
		if info.Mode()&0111 != 0 {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Load starts the named plugin binary (or returns the already-running
// instance) and dispenses its embedding provider.
func (m *Manager) Load(name string) (*LoadedPlugin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.plugins[name]; ok {
		return p, nil
	}

	pluginPath := name
	if !filepath.IsAbs(pluginPath) {
		pluginPath = filepath.Join(m.pluginsDir, name)
	}
	if _, err := os.Stat(pluginPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("plugin not found: %s", pluginPath)
	}

	slog.Info("loading plugin", "name", name, "path", pluginPath)

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: shared.Handshake,
		Plugins:         shared.PluginMap,
		Cmd:             exec.Command(pluginPath),
		Logger:          m.logger,
		AllowedProtocols: []plugin.Protocol{
			plugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to connect to plugin: %w", err)
	}

	raw, err := rpcClient.Dispense("embedding")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	embedding, ok := raw.(shared.EmbeddingProvider)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin does not implement EmbeddingProvider")
	}

	loaded := &LoadedPlugin{
		Name:      name,
		Path:      pluginPath,
		Client:    client,
		Embedding: embedding,
	}
	m.plugins[name] = loaded
	return loaded, nil
}

// Shutdown kills every running plugin process.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, p := range m.plugins {
		p.Client.Kill()
		delete(m.plugins, name)
	}
}
