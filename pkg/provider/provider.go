// Package provider defines the uniform client contract for embedding
// backends and the registry that binds user-chosen names to clients.
package provider

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sqlite-ai/rembed/pkg/types"
)

// Client is the uniform surface every embedding backend implements.
// InferBatch may be implemented as repeated InferSingle calls when the
// backend has no native batch endpoint.
type Client interface {
	// Model returns the model identifier the client was built with.
	Model() string

	// InferSingle embeds one text input.
	InferSingle(ctx context.Context, input string) ([]float32, error)

	// InferBatch embeds many text inputs, returning one vector per input
	// in input order.
	InferBatch(ctx context.Context, inputs []string) ([][]float32, error)
}

// ImageClient is implemented by clients that also accept image inputs.
type ImageClient interface {
	Client

	// InferImage embeds one image. An empty prompt uses the client's
	// default description prompt.
	InferImage(ctx context.Context, image []byte, prompt string) ([]float32, error)

	// InferImagesConcurrent embeds many images under the bounded-concurrency
	// engine, returning surviving vectors in input order plus run statistics.
	InferImagesConcurrent(ctx context.Context, images [][]byte) ([][]float32, types.Stats, error)
}

// Config carries everything needed to construct a client.
type Config struct {
	Format     string // provider format name ("openai", "ollama", "mock", ...)
	Model      string
	URL        string // empty = provider default
	APIKey     string // empty = resolve from the provider's env var
	Dimensions int    // used by providers with caller-chosen dimensionality

	// Multimodal construction (Format "multimodal").
	VisionModel    string
	EmbeddingModel string
}

// Factory constructs a Client from configuration.
type Factory func(cfg Config) (Client, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a client factory under a format name.
// Called by builtin packages at startup; last registration wins.
func RegisterFactory(format string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[format] = f
}

// Formats returns the registered format names.
func Formats() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// New constructs a client for the configured format.
func New(cfg Config) (Client, error) {
	factoriesMu.RLock()
	f, ok := factories[cfg.Format]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q (available: %v)", types.ErrInvalidConfig, cfg.Format, Formats())
	}
	return f(cfg)
}

// TryEnvVar resolves an API key from the environment, failing with an error
// that names the exact variable when it is unset.
func TryEnvVar(key string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s environment variable not defined. Alternatively, pass in an API key with rembed_client_options", types.ErrInvalidConfig, key)
}
