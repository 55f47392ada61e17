package llamafile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sqlite-ai/rembed/pkg/provider"
)

func TestInferSingle(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{1, 2, 3, 4}})
	}))
	defer srv.Close()

	c, err := New(provider.Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Model() != "llamafile" {
		t.Errorf("Model() = %q, want llamafile default", c.Model())
	}

	vec, err := c.InferSingle(context.Background(), "some text")
	if err != nil {
		t.Fatalf("InferSingle: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("len = %d, want 4", len(vec))
	}
	if gotBody["content"] != "some text" {
		t.Errorf("request content = %v", gotBody["content"])
	}
	if _, ok := gotBody["model"]; ok {
		t.Error("request should not carry a model field")
	}
}
