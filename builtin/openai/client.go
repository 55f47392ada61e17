// Package openai implements the client contract for OpenAI-compatible
// embedding APIs (OpenAI, Jina, Mixedbread).
package openai

import (
	"context"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"

	"github.com/sqlite-ai/rembed/pkg/provider"
	"github.com/sqlite-ai/rembed/pkg/types"
)

// Preset selects the endpoint and key source for one OpenAI-compatible
// service.
type Preset struct {
	Name    string
	BaseURL string
	KeyEnv  string
}

var (
	PresetOpenAI     = Preset{Name: "openai", BaseURL: "https://api.openai.com/v1", KeyEnv: "OPENAI_API_KEY"}
	PresetJina       = Preset{Name: "jina", BaseURL: "https://api.jina.ai/v1", KeyEnv: "JINA_API_KEY"}
	PresetMixedbread = Preset{Name: "mixedbread", BaseURL: "https://api.mixedbread.ai/v1", KeyEnv: "MIXEDBREAD_API_KEY"}
)

// Client talks to one OpenAI-compatible embeddings endpoint. Stateless
// after construction.
type Client struct {
	preset Preset
	model  string
	dims   int
	client *openai.Client
}

// New creates a client for the given preset. The API key comes from the
// config or the preset's environment variable.
func New(cfg provider.Config, preset Preset) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: 'model' option is required", types.ErrInvalidConfig)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		key, err := provider.TryEnvVar(preset.KeyEnv)
		if err != nil {
			return nil, err
		}
		apiKey = key
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = preset.BaseURL
	if cfg.URL != "" {
		clientConfig.BaseURL = cfg.URL
	}

	return &Client{
		preset: preset,
		model:  cfg.Model,
		dims:   cfg.Dimensions,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// InferSingle embeds one text.
func (c *Client) InferSingle(ctx context.Context, input string) ([]float32, error) {
	vecs, err := c.InferBatch(ctx, []string{input})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// InferBatch embeds all inputs in one request. The API may return items in
// any order, so results are reassembled by their reported index.
func (c *Client) InferBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: inputs,
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dims > 0 {
		req.Dimensions = c.dims
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s embedding request failed: %w", c.preset.Name, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: expected 'data.0.embedding' path in response body", types.ErrResponseShape)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("%w: expected %d entries under 'data', got %d", types.ErrResponseShape, len(inputs), len(resp.Data))
	}

	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vecs := make([][]float32, len(data))
	for i, d := range data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

var _ provider.Client = (*Client)(nil)
