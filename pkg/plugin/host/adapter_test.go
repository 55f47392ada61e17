package host

import (
	"context"
	"errors"
	"testing"

	"github.com/sqlite-ai/rembed/pkg/types"
)

type staticProvider struct {
	vec []float32
}

func (s *staticProvider) Model() string { return "static" }

func (s *staticProvider) Embed(texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = s.vec
	}
	return vecs, nil
}

func (s *staticProvider) Close() error { return nil }

func TestAdapterSingleAndBatch(t *testing.T) {
	a := NewClientAdapter(&staticProvider{vec: []float32{1, 2}})

	if a.Model() != "static" {
		t.Errorf("Model() = %q", a.Model())
	}

	vec, err := a.InferSingle(context.Background(), "x")
	if err != nil {
		t.Fatalf("InferSingle: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("len = %d, want 2", len(vec))
	}

	vecs, err := a.InferBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("InferBatch: %v", err)
	}
	if len(vecs) != 3 {
		t.Errorf("got %d vectors, want 3", len(vecs))
	}
}

// shortProvider replies with fewer vectors than inputs.
type shortProvider struct{}

func (shortProvider) Model() string { return "short" }

func (shortProvider) Embed(texts []string) ([][]float32, error) {
	return [][]float32{}, nil
}

func (shortProvider) Close() error { return nil }

func TestAdapterRejectsShortReply(t *testing.T) {
	a := NewClientAdapter(shortProvider{})

	if _, err := a.InferSingle(context.Background(), "x"); !errors.Is(err, types.ErrResponseShape) {
		t.Fatalf("InferSingle error = %v, want ErrResponseShape", err)
	}

	if _, err := a.InferBatch(context.Background(), []string{"a", "b"}); !errors.Is(err, types.ErrResponseShape) {
		t.Fatalf("InferBatch error = %v, want ErrResponseShape", err)
	}
}

func TestAdapterHonorsContext(t *testing.T) {
	a := NewClientAdapter(&staticProvider{vec: []float32{1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.InferBatch(ctx, []string{"x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestDiscoverMissingDirIsNotAnError(t *testing.T) {
	m := NewManager(t.TempDir() + "/does-not-exist")
	names, err := m.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v, want empty", names)
	}
}
