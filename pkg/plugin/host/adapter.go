package host

import (
	"context"
	"fmt"

	"github.com/sqlite-ai/rembed/pkg/plugin/shared"
	"github.com/sqlite-ai/rembed/pkg/provider"
	"github.com/sqlite-ai/rembed/pkg/types"
)

// ClientAdapter adapts a plugin EmbeddingProvider to the in-process
// client contract. The net/rpc protocol carries no context, so the
// adapter checks ctx before each call.
type ClientAdapter struct {
	plugin shared.EmbeddingProvider
}

// NewClientAdapter wraps a dispensed plugin provider.
func NewClientAdapter(p shared.EmbeddingProvider) *ClientAdapter {
	return &ClientAdapter{plugin: p}
}

// Model returns the plugin's model identifier.
func (a *ClientAdapter) Model() string {
	return a.plugin.Model()
}

// InferSingle embeds one text through the plugin.
func (a *ClientAdapter) InferSingle(ctx context.Context, input string) ([]float32, error) {
	vecs, err := a.InferBatch(ctx, []string{input})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// InferBatch embeds texts through the plugin. Plugin replies are untrusted,
// so the vector count is checked before callers index into the result.
func (a *ClientAdapter) InferBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vecs, err := a.plugin.Embed(inputs)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(inputs) {
		return nil, fmt.Errorf("%w: plugin returned %d vectors for %d inputs", types.ErrResponseShape, len(vecs), len(inputs))
	}
	return vecs, nil
}

var _ provider.Client = (*ClientAdapter)(nil)
