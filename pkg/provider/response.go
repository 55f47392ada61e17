package provider

import (
	"fmt"

	"github.com/sqlite-ai/rembed/pkg/types"
)

// Response parsers for the JSON shapes embedding APIs return. Every parser
// fails naming the exact path it expected; no shape is ever silently
// substituted with a default.

// ParseOpenAIResponse extracts the vector at data.0.embedding
// (OpenAI, Jina, Mixedbread).
func ParseOpenAIResponse(v any) ([]float32, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, shapeErr("expected response body to be an object")
	}
	data, ok := obj["data"]
	if !ok {
		return nil, shapeErr("expected 'data' key in response body")
	}
	list, ok := data.([]any)
	if !ok || len(list) == 0 {
		return nil, shapeErr("expected 'data.0' path in response body")
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return nil, shapeErr("expected 'data.0' path to be an object")
	}
	emb, ok := first["embedding"]
	if !ok {
		return nil, shapeErr("expected 'data.0.embedding' path in response body")
	}
	arr, ok := emb.([]any)
	if !ok {
		return nil, shapeErr("expected 'data.0.embedding' path to be an array")
	}
	return ParseFloatArray(arr, "data.0.embedding")
}

// ParseEmbeddingsResponse extracts the vector at embeddings.0
// (Cohere, Nomic).
func ParseEmbeddingsResponse(v any) ([]float32, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, shapeErr("expected response body to be an object")
	}
	embs, ok := obj["embeddings"]
	if !ok {
		return nil, shapeErr("expected 'embeddings' key in response body")
	}
	list, ok := embs.([]any)
	if !ok || len(list) == 0 {
		return nil, shapeErr("expected 'embeddings.0' path in response body")
	}
	arr, ok := list[0].([]any)
	if !ok {
		return nil, shapeErr("expected 'embeddings.0' path to be an array")
	}
	return ParseFloatArray(arr, "embeddings.0")
}

// ParseEmbeddingResponse extracts the vector at the flat 'embedding' key
// (Ollama, llamafile).
func ParseEmbeddingResponse(v any) ([]float32, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, shapeErr("expected response body to be an object")
	}
	emb, ok := obj["embedding"]
	if !ok {
		return nil, shapeErr("expected 'embedding' key in response body")
	}
	arr, ok := emb.([]any)
	if !ok {
		return nil, shapeErr("expected 'embedding' path to be an array")
	}
	return ParseFloatArray(arr, "embedding")
}

// ParseFloatArray converts a decoded JSON array into a float32 vector,
// rejecting non-numeric elements.
func ParseFloatArray(arr []any, path string) ([]float32, error) {
	out := make([]float32, len(arr))
	for i, el := range arr {
		f, ok := el.(float64)
		if !ok {
			return nil, shapeErr(fmt.Sprintf("expected '%s' array to contain floats", path))
		}
		out[i] = float32(f)
	}
	return out, nil
}

func shapeErr(msg string) error {
	return fmt.Errorf("%w: %s", types.ErrResponseShape, msg)
}
