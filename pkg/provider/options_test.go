package provider

import (
	"errors"
	"strings"
	"testing"

	"github.com/sqlite-ai/rembed/pkg/types"
)

func TestBuildOptions(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    Config
		wantErr error
	}{
		{
			name:  "format and model",
			pairs: []string{"format", "ollama", "model", "all-minilm"},
			want:  Config{Format: "ollama", Model: "all-minilm"},
		},
		{
			name:  "model with provider prefix",
			pairs: []string{"model", "ollama::all-minilm"},
			want:  Config{Format: "ollama", Model: "all-minilm"},
		},
		{
			name:  "bare model defaults to openai",
			pairs: []string{"model", "text-embedding-3-small"},
			want:  Config{Format: "openai", Model: "text-embedding-3-small"},
		},
		{
			name:  "key and url",
			pairs: []string{"model", "m", "format", "openai", "key", "sk-x", "url", "http://localhost:9999"},
			want:  Config{Format: "openai", Model: "m", APIKey: "sk-x", URL: "http://localhost:9999"},
		},
		{
			name:  "api_key alias",
			pairs: []string{"model", "m", "format", "mock", "api_key", "k"},
			want:  Config{Format: "mock", Model: "m", APIKey: "k"},
		},
		{
			name:  "dimensions",
			pairs: []string{"model", "m", "format", "mock", "dimensions", "128"},
			want:  Config{Format: "mock", Model: "m", Dimensions: 128},
		},
		{
			name:  "embedding_model selects multimodal",
			pairs: []string{"vision_model", "ollama::llava", "embedding_model", "ollama::all-minilm"},
			want:  Config{Format: "multimodal", VisionModel: "ollama::llava", EmbeddingModel: "ollama::all-minilm"},
		},
		{
			name:  "embedding_model falls back to model for vision",
			pairs: []string{"model", "gpt-4o", "embedding_model", "text-embedding-3-small"},
			want:  Config{Format: "multimodal", Model: "gpt-4o", VisionModel: "gpt-4o", EmbeddingModel: "text-embedding-3-small"},
		},
		{
			name:    "odd argument count",
			pairs:   []string{"model"},
			wantErr: types.ErrMalformedInput,
		},
		{
			name:    "bad dimensions",
			pairs:   []string{"model", "m", "dimensions", "lots"},
			wantErr: types.ErrInvalidConfig,
		},
		{
			name:    "no model or format",
			pairs:   []string{"key", "k"},
			wantErr: types.ErrInvalidConfig,
		},
		{
			name:    "format without model",
			pairs:   []string{"format", "ollama"},
			wantErr: types.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildOptions(tt.pairs)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("BuildOptions() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildOptions() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildOptionsOddArityMessage(t *testing.T) {
	_, err := BuildOptions([]string{"model", "m", "key"})
	if err == nil {
		t.Fatal("expected error")
	}
	want := "even number of arguments to rembed_client_options"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not contain %q", err.Error(), want)
	}
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		client  string
		options string
		want    Config
		wantErr bool
	}{
		{
			name:    "provider and model",
			client:  "default",
			options: "ollama::all-minilm",
			want:    Config{Format: "ollama", Model: "all-minilm"},
		},
		{
			name:    "provider and key",
			client:  "embedder",
			options: "openai:sk-secret",
			want:    Config{Format: "openai", Model: "embedder", APIKey: "sk-secret"},
		},
		{
			name:    "bare legacy provider uses client name as model",
			client:  "all-minilm",
			options: "ollama",
			want:    Config{Format: "ollama", Model: "all-minilm"},
		},
		{
			name:    "bare model defaults to openai",
			client:  "default",
			options: "text-embedding-3-small",
			want:    Config{Format: "openai", Model: "text-embedding-3-small"},
		},
		{
			name:    "json object",
			client:  "default",
			options: `{"format": "ollama", "model": "all-minilm", "url": "http://localhost:9999"}`,
			want:    Config{Format: "ollama", Model: "all-minilm", URL: "http://localhost:9999"},
		},
		{
			name:    "json model defaults to client name",
			client:  "all-minilm",
			options: `{"format": "ollama"}`,
			want:    Config{Format: "ollama", Model: "all-minilm"},
		},
		{
			name:    "json multimodal",
			client:  "mm",
			options: `{"vision_model": "ollama::llava", "embedding_model": "ollama::all-minilm"}`,
			want:    Config{Format: "multimodal", Model: "mm", VisionModel: "ollama::llava", EmbeddingModel: "ollama::all-minilm"},
		},
		{
			name:    "empty options",
			client:  "default",
			options: "  ",
			wantErr: true,
		},
		{
			name:    "invalid json",
			client:  "default",
			options: `{"format": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptions(tt.client, tt.options)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseOptions() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOptions() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New(Config{Format: "no-such-provider", Model: "m"})
	if !errors.Is(err, types.ErrInvalidConfig) {
		t.Fatalf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestTryEnvVar(t *testing.T) {
	t.Setenv("REMBED_TEST_KEY", "secret")
	got, err := TryEnvVar("REMBED_TEST_KEY")
	if err != nil || got != "secret" {
		t.Fatalf("TryEnvVar() = %q, %v", got, err)
	}

	_, err = TryEnvVar("REMBED_TEST_KEY_UNSET")
	if err == nil {
		t.Fatal("expected error for unset variable")
	}
	want := "REMBED_TEST_KEY_UNSET environment variable not defined"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not contain %q", err.Error(), want)
	}
}
