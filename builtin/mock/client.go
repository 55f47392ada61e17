// Package mock implements a deterministic in-process client for tests and
// CI environments. No network calls are made: vectors are derived from a
// hash of the input text, so equal inputs always produce equal vectors.
package mock

import (
	"context"
	"math"

	"github.com/sqlite-ai/rembed/pkg/provider"
)

// DefaultDimensions is used when the configuration does not choose one.
const DefaultDimensions = 10

// Client generates hash-derived vectors in [-1, 1].
type Client struct {
	model string
	dims  int

	// failOn aborts inputs matching this text, for failure-isolation tests.
	failOn map[string]error
}

// New creates a mock client.
func New(cfg provider.Config) (*Client, error) {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}
	model := cfg.Model
	if model == "" {
		model = "mock"
	}
	return &Client{model: model, dims: dims}, nil
}

// FailOn makes the client return err for the given input text.
func (c *Client) FailOn(input string, err error) {
	if c.failOn == nil {
		c.failOn = make(map[string]error)
	}
	c.failOn[input] = err
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// InferSingle returns the deterministic vector for input.
func (c *Client) InferSingle(ctx context.Context, input string) ([]float32, error) {
	if err, ok := c.failOn[input]; ok {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := hash(input)
	vec := make([]float32, c.dims)
	for i := range vec {
		vec[i] = float32(h+uint32(i))/float32(math.MaxUint32)*2 - 1
	}
	return vec, nil
}

// InferBatch returns one vector per input in input order.
func (c *Client) InferBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	vecs := make([][]float32, len(inputs))
	for i, input := range inputs {
		vec, err := c.InferSingle(ctx, input)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func hash(text string) uint32 {
	var acc uint32
	for i := 0; i < len(text); i++ {
		acc = acc*31 + uint32(text[i])
	}
	return acc
}

var _ provider.Client = (*Client)(nil)
