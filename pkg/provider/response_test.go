package provider

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sqlite-ai/rembed/pkg/types"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad test fixture: %v", err)
	}
	return v
}

func TestParseOpenAIResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []float32
		wantErr string
	}{
		{
			name: "valid",
			body: `{"data": [{"embedding": [0.1, 0.2, 0.3]}]}`,
			want: []float32{0.1, 0.2, 0.3},
		},
		{
			name:    "not an object",
			body:    `[1, 2, 3]`,
			wantErr: "expected response body to be an object",
		},
		{
			name:    "missing data",
			body:    `{"usage": {}}`,
			wantErr: "expected 'data' key in response body",
		},
		{
			name:    "empty data",
			body:    `{"data": []}`,
			wantErr: "expected 'data.0' path in response body",
		},
		{
			name:    "data entry not an object",
			body:    `{"data": [42]}`,
			wantErr: "expected 'data.0' path to be an object",
		},
		{
			name:    "missing embedding",
			body:    `{"data": [{"index": 0}]}`,
			wantErr: "expected 'data.0.embedding' path in response body",
		},
		{
			name:    "embedding not an array",
			body:    `{"data": [{"embedding": "nope"}]}`,
			wantErr: "expected 'data.0.embedding' path to be an array",
		},
		{
			name:    "non-numeric element",
			body:    `{"data": [{"embedding": [0.1, "x"]}]}`,
			wantErr: "expected 'data.0.embedding' array to contain floats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOpenAIResponse(decode(t, tt.body))
			checkParse(t, got, err, tt.want, tt.wantErr)
		})
	}
}

func TestParseEmbeddingsResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []float32
		wantErr string
	}{
		{
			name: "valid",
			body: `{"embeddings": [[1, 2], [3, 4]]}`,
			want: []float32{1, 2},
		},
		{
			name:    "missing embeddings",
			body:    `{"texts": []}`,
			wantErr: "expected 'embeddings' key in response body",
		},
		{
			name:    "empty embeddings",
			body:    `{"embeddings": []}`,
			wantErr: "expected 'embeddings.0' path in response body",
		},
		{
			name:    "entry not an array",
			body:    `{"embeddings": ["x"]}`,
			wantErr: "expected 'embeddings.0' path to be an array",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEmbeddingsResponse(decode(t, tt.body))
			checkParse(t, got, err, tt.want, tt.wantErr)
		})
	}
}

func TestParseEmbeddingResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []float32
		wantErr string
	}{
		{
			name: "valid",
			body: `{"embedding": [0.5, -0.5]}`,
			want: []float32{0.5, -0.5},
		},
		{
			name:    "missing embedding",
			body:    `{"model": "m"}`,
			wantErr: "expected 'embedding' key in response body",
		},
		{
			name:    "embedding not an array",
			body:    `{"embedding": {"0": 1}}`,
			wantErr: "expected 'embedding' path to be an array",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEmbeddingResponse(decode(t, tt.body))
			checkParse(t, got, err, tt.want, tt.wantErr)
		})
	}
}

func checkParse(t *testing.T, got []float32, err error, want []float32, wantErr string) {
	t.Helper()
	if wantErr != "" {
		if err == nil {
			t.Fatalf("expected error containing %q, got vector %v", wantErr, got)
		}
		if !errors.Is(err, types.ErrResponseShape) {
			t.Errorf("error %v is not ErrResponseShape", err)
		}
		if !strings.Contains(err.Error(), wantErr) {
			t.Errorf("error %q does not contain %q", err.Error(), wantErr)
		}
		return
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}
