package engine

import (
	"context"
	"fmt"

	"github.com/sqlite-ai/rembed/pkg/provider"
	"github.com/sqlite-ai/rembed/pkg/types"
)

// The façade: the uniform blocking entry points SQL functions use to reach
// a client. Each call submits the provider work to the worker context and
// waits for it, so the single-threaded host only ever sees a plain
// blocking call.

// Single embeds one input through client.
func (r *Runtime) Single(client provider.Client, input string) ([]float32, error) {
	var vec []float32
	err := r.do(context.Background(), func(ctx context.Context) error {
		var err error
		vec, err = client.InferSingle(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// Batch embeds all inputs through one multi-item provider call.
func (r *Runtime) Batch(client provider.Client, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: input array cannot be empty", types.ErrEmptyInput)
	}

	var vecs [][]float32
	err := r.do(context.Background(), func(ctx context.Context) error {
		var err error
		vecs, err = client.InferBatch(ctx, inputs)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(inputs) {
		return nil, fmt.Errorf("%w: provider returned %d vectors for %d inputs", types.ErrResponseShape, len(vecs), len(inputs))
	}
	return vecs, nil
}

// Image embeds one image through client, describing it with prompt first.
// An empty prompt uses the client's default.
func (r *Runtime) Image(client provider.ImageClient, image []byte, prompt string) ([]float32, error) {
	var vec []float32
	err := r.do(context.Background(), func(ctx context.Context) error {
		var err error
		vec, err = client.InferImage(ctx, image, prompt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// Single embeds one input using the process-wide runtime.
func Single(client provider.Client, input string) ([]float32, error) {
	return Default().Single(client, input)
}

// Image embeds one image using the process-wide runtime.
func Image(client provider.ImageClient, image []byte, prompt string) ([]float32, error) {
	return Default().Image(client, image, prompt)
}

// Batch embeds inputs using the process-wide runtime.
func Batch(client provider.Client, inputs []string) ([][]float32, error) {
	return Default().Batch(client, inputs)
}
