// Package cohere implements the client contract for APIs that return
// vectors under an 'embeddings' array (Cohere, Nomic Atlas).
package cohere

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

// Preset selects the endpoint and key source for one embeddings-array
// style service.
type Preset struct {
	Name   string
	URL    string
	KeyEnv string
}

var (
	PresetCohere = Preset{Name: "cohere", URL: "https://api.cohere.com/v1/embed", KeyEnv: "CO_API_KEY"}
	PresetNomic  = Preset{Name: "nomic", URL: "https://api-atlas.nomic.ai/v1/embedding/text", KeyEnv: "NOMIC_API_KEY"}
)

// Client posts {"texts": [...], "model": ...} and reads back "embeddings".
type Client struct {
	preset Preset
	model  string
	url    string
	key    string
	client *http.Client
}

// New creates a client for the given preset.
func New(cfg provider.Config, preset Preset) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: 'model' option is required", types.ErrInvalidConfig)
	}

	key := cfg.APIKey
	if key == "" {
		k, err := provider.TryEnvVar(preset.KeyEnv)
		if err != nil {
			return nil, err
		}
		key = k
	}

	url := preset.URL
	if cfg.URL != "" {
		url = cfg.URL
	}

	return &Client{
		preset: preset,
		model:  cfg.Model,
		url:    url,
		key:    key,
		client: http.DefaultClient,
	}, nil
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// InferSingle embeds one text.
func (c *Client) InferSingle(ctx context.Context, input string) ([]float32, error) {
	body, err := c.post(ctx, []string{input})
	if err != nil {
		return nil, err
	}
	return provider.ParseEmbeddingsResponse(body)
}

// InferBatch embeds all inputs in one request; the response carries one
// array per input under 'embeddings'.
func (c *Client) InferBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	body, err := c.post(ctx, inputs)
	if err != nil {
		return nil, err
	}

	obj, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected response body to be an object", types.ErrResponseShape)
	}
	raw, ok := obj["embeddings"]
	if !ok {
		return nil, fmt.Errorf("%w: expected 'embeddings' key in response body", types.ErrResponseShape)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected 'embeddings' path to be an array", types.ErrResponseShape)
	}
	if len(list) != len(inputs) {
		return nil, fmt.Errorf("%w: expected %d entries under 'embeddings', got %d", types.ErrResponseShape, len(inputs), len(list))
	}

	vecs := make([][]float32, len(list))
	for i, el := range list {
		arr, ok := el.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected 'embeddings.%d' path to be an array", types.ErrResponseShape, i)
		}
		vec, err := provider.ParseFloatArray(arr, fmt.Sprintf("embeddings.%d", i))
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (c *Client) post(ctx context.Context, texts []string) (any, error) {
	payload, err := json.Marshal(map[string]any{
		"texts": texts,
		"model": c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("error serializing body to JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s returned status %d: %s", c.preset.Name, resp.StatusCode, string(raw))
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error parsing HTTP response as JSON: %w", err)
	}
	return body, nil
}

var _ provider.Client = (*Client)(nil)
