// Package shared defines the protocol between the extension and external
// embedding provider plugins.
package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// Handshake is shared by plugin and host. It prevents plugins built
// against a different protocol version from being dispensed.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "REMBED_PLUGIN",
	MagicCookieValue: "rembed-v1",
}

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]plugin.Plugin{
	"embedding": &EmbeddingPlugin{},
}

// EmbeddingProvider is the interface embedding plugins implement. It
// mirrors the in-process client contract but is self-contained so plugin
// binaries only depend on this package.
type EmbeddingProvider interface {
	Model() string
	Embed(texts []string) ([][]float32, error)
	Close() error
}

// EmbeddingPlugin is the plugin.Plugin implementation for embedding
// providers.
type EmbeddingPlugin struct {
	Impl EmbeddingProvider
}

func (p *EmbeddingPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &EmbeddingRPCServer{Impl: p.Impl}, nil
}

func (p *EmbeddingPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &EmbeddingRPCClient{client: c}, nil
}

// PluginError carries an error message across the RPC boundary.
type PluginError struct {
	Message string
}

func (e *PluginError) Error() string {
	return e.Message
}
