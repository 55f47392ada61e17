// Package llamafile implements the client contract for a local llamafile
// server. The server embeds whatever model it was started with, so no
// model identifier is required.
package llamafile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sqlite-ai/rembed/pkg/provider"
)

// DefaultURL is the embedding endpoint of a local llamafile server.
const DefaultURL = "http://localhost:8080/embedding"

// Client posts {"content": ...} and reads back the flat "embedding" array.
type Client struct {
	model  string
	url    string
	client *http.Client
}

// New creates a llamafile client.
func New(cfg provider.Config) (*Client, error) {
	url := DefaultURL
	if cfg.URL != "" {
		url = cfg.URL
	}
	model := cfg.Model
	if model == "" {
		model = "llamafile"
	}

	return &Client{
		model:  model,
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
		"content": input,
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
		return nil, fmt.Errorf("llamafile returned status %d: %s", resp.StatusCode, string(raw))
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error parsing HTTP response as JSON: %w", err)
	}
	return provider.ParseEmbeddingResponse(body)
}

// InferBatch embeds inputs one by one.
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
