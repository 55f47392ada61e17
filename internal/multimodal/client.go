// Package multimodal emulates image embedding by composing a vision model
// with a text-embedding client: the vision model describes the image, the
// description is embedded. Native image-embedding APIs are advertised by
// some providers but not used; the capability descriptor is advisory only.
package multimodal

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/sqlite-ai/rembed/internal/engine"
	"github.com/sqlite-ai/rembed/pkg/provider"
	"github.com/sqlite-ai/rembed/pkg/types"
)

const (
	// DefaultSystemPrompt steers the vision model toward descriptions that
	// embed well.
	DefaultSystemPrompt = "You are a helpful vision AI. Describe images accurately and concisely " +
		"for embedding purposes. Focus on key visual elements, objects, scene context, " +
		"colors, and composition."

	// DefaultUserPrompt is used when the caller supplies no prompt.
	DefaultUserPrompt = "Describe this image in detail for search and embedding purposes:"
)

// Client is the hybrid multimodal client.
type Client struct {
	vision       *openai.Client
	visionModel  string
	embedding    provider.Client
	capabilities types.Capabilities
}

// New builds a multimodal client. VisionModel and EmbeddingModel accept
// "provider::model" identifiers; bare model names default to OpenAI.
func New(cfg provider.Config) (*Client, error) {
	if cfg.VisionModel == "" || cfg.EmbeddingModel == "" {
		return nil, fmt.Errorf("%w: multimodal clients require 'vision_model' and 'embedding_model'", types.ErrInvalidConfig)
	}

	embCfg, err := provider.ParseOptions(cfg.EmbeddingModel, cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	if embCfg.APIKey == "" {
		embCfg.APIKey = cfg.APIKey
	}
	embedding, err := provider.New(embCfg)
	if err != nil {
		return nil, err
	}

	visionProvider, visionModel := splitModel(cfg.VisionModel)
	vision, err := newVisionClient(visionProvider, cfg)
	if err != nil {
		return nil, err
	}

	caps := detectCapabilities(embCfg.Format)
	if caps.SupportsImageEmbeddings {
		slog.Info("provider claims native image embedding support; using hybrid pipeline until a native path exists",
			"embedding_model", cfg.EmbeddingModel)
	}

	return &Client{
		vision:       vision,
		visionModel:  visionModel,
		embedding:    embedding,
		capabilities: caps,
	}, nil
}

func splitModel(model string) (string, string) {
	if idx := strings.Index(model, "::"); idx >= 0 {
		return model[:idx], model[idx+2:]
	}
	return "openai", model
}

func newVisionClient(visionProvider string, cfg provider.Config) (*openai.Client, error) {
	switch visionProvider {
	case "ollama":
		// Ollama's OpenAI-compatible endpoint; the key is ignored.
		clientConfig := openai.DefaultConfig("ollama")
		clientConfig.BaseURL = "http://localhost:11434/v1"
		if cfg.URL != "" {
			clientConfig.BaseURL = cfg.URL
		}
		return openai.NewClientWithConfig(clientConfig), nil
	default:
		apiKey := cfg.APIKey
		if apiKey == "" {
			key, err := provider.TryEnvVar("OPENAI_API_KEY")
			if err != nil {
				return nil, err
			}
			apiKey = key
		}
		clientConfig := openai.DefaultConfig(apiKey)
		if cfg.URL != "" {
			clientConfig.BaseURL = cfg.URL
		}
		return openai.NewClientWithConfig(clientConfig), nil
	}
}

// detectCapabilities reports what the embedding provider claims to support.
// Logging-only: dispatch never branches on these flags.
func detectCapabilities(format string) types.Capabilities {
	switch format {
	case "openai":
		return types.Capabilities{MaxBatchSize: 100, SupportedFormats: []string{"jpeg", "png"}}
	case "ollama":
		return types.Capabilities{MaxBatchSize: 50, SupportedFormats: []string{"jpeg", "png"}}
	case "voyage":
		return types.Capabilities{
			SupportsImageEmbeddings: true,
			SupportsMultimodalBatch: true,
			MaxBatchSize:            20,
			SupportedFormats:        []string{"jpeg", "png", "webp"},
		}
	case "jina":
		return types.Capabilities{
			SupportsImageEmbeddings: true,
			SupportsMultimodalBatch: true,
			MaxBatchSize:            16,
			SupportedFormats:        []string{"jpeg", "png"},
		}
	default:
		return types.Capabilities{MaxBatchSize: 10, SupportedFormats: []string{"jpeg"}}
	}
}

// Capabilities returns the advisory capability descriptor.
func (c *Client) Capabilities() types.Capabilities {
	return c.capabilities
}

// Model returns the embedding model identifier.
func (c *Client) Model() string {
	return c.embedding.Model()
}

// InferSingle embeds one text through the underlying embedding client.
func (c *Client) InferSingle(ctx context.Context, input string) ([]float32, error) {
	return c.embedding.InferSingle(ctx, input)
}

// InferBatch embeds texts through the underlying embedding client.
func (c *Client) InferBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	return c.embedding.InferBatch(ctx, inputs)
}

// InferImage describes the image with the vision model and embeds the
// description. An empty prompt uses the default.
func (c *Client) InferImage(ctx context.Context, image []byte, prompt string) ([]float32, error) {
	description, err := c.describe(ctx, image, prompt)
	if err != nil {
		return nil, err
	}
	return c.embedding.InferSingle(ctx, description)
}

// InferImages runs the two-step pipeline sequentially: every image is
// described, then the descriptions are embedded in one batch call.
func (c *Client) InferImages(ctx context.Context, images [][]byte) ([][]float32, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: input array cannot be empty", types.ErrEmptyInput)
	}
	descriptions := make([]string, len(images))
	for i, image := range images {
		description, err := c.describe(ctx, image, "")
		if err != nil {
			return nil, fmt.Errorf("failed to describe image %d: %w", i, err)
		}
		descriptions[i] = description
	}
	return c.embedding.InferBatch(ctx, descriptions)
}

// InferImagesConcurrent runs the two-step pipeline per image under the
// bounded-concurrency engine, keeping results in input order.
func (c *Client) InferImagesConcurrent(ctx context.Context, images [][]byte) ([][]float32, types.Stats, error) {
	return engine.RunBatch(len(images), func(ctx context.Context, i int) ([]float32, error) {
		description, err := c.describe(ctx, images[i], "")
		if err != nil {
			return nil, err
		}
		return c.embedding.InferSingle(ctx, description)
	})
}

func (c *Client) describe(ctx context.Context, image []byte, prompt string) (string, error) {
	imageB64 := base64.StdEncoding.EncodeToString(image)

	userParts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: DefaultUserPrompt},
		{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: "data:image/jpeg;base64," + imageB64,
			},
		},
	}
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: DefaultSystemPrompt},
		{Role: openai.ChatMessageRoleUser, MultiContent: userParts},
	}
	if prompt != "" {
		userParts[0].Text = prompt
		messages = messages[1:]
	}

	resp, err := c.vision.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.visionModel,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("vision analysis failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: no description generated", types.ErrResponseShape)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ provider.ImageClient = (*Client)(nil)
