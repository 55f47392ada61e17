// Package ollama implements the client contract for a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sqlite-ai/rembed/pkg/provider"
	"github.com/sqlite-ai/rembed/pkg/types"
)

// DefaultURL is the embeddings endpoint of a local Ollama install.
const DefaultURL = "http://localhost:11434/api/embeddings"

// Client posts {"model": ..., "prompt": ...} and reads back the flat
// "embedding" array. No API key is involved.
type Client struct {
	model  string
	url    string
	client *http.Client
}

// New creates an Ollama client.
func New(cfg provider.Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: 'model' option is required", types.ErrInvalidConfig)
	}

	url := DefaultURL
	if cfg.URL != "" {
		url = cfg.URL
	}

	return &Client{
		model:  cfg.Model,
		url:    url,
		client: http.DefaultClient,
	}, nil
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// InferSingle embeds one text.
func (c *Client) InferSingle(ctx context.Context, input string) ([]float32, error) {
	payload, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": input,
	})
	if err != nil {
		return nil, fmt.Errorf("error serializing body to JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(raw))
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error parsing HTTP response as JSON: %w", err)
	}
	return provider.ParseEmbeddingResponse(body)
}

// InferBatch embeds inputs one by one; the classic Ollama embeddings API
// has no multi-input form.
func (c *Client) InferBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	vecs := make([][]float32, len(inputs))
	for i, input := range inputs {
		vec, err := c.InferSingle(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to embed input %d: %w", i, err)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

var _ provider.Client = (*Client)(nil)
