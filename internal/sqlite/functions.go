package sqlite

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/mattn/go-sqlite3"

	"github.com/sqlite-ai/rembed/internal/engine"
	"github.com/sqlite-ai/rembed/internal/vector"
	"github.com/sqlite-ai/rembed/pkg/provider"
	"github.com/sqlite-ai/rembed/pkg/types"
)

func registerFunctions(conn *sqlite3.SQLiteConn, reg *provider.Registry) error {
	funcs := []struct {
		name string
		impl any
		pure bool
	}{
		{"rembed_version", versionFunc, true},
		{"rembed_debug", debugFunc, true},
		{"rembed_client_options", clientOptionsFunc, false},
		{"rembed", rembedFunc(reg), false},
		{"rembed_batch", rembedBatchFunc(reg), false},
		{"rembed_image", rembedImageFunc(reg), false},
		{"rembed_image_prompt", rembedImagePromptFunc(reg), false},
		{"rembed_images_concurrent", rembedImagesConcurrentFunc(reg), false},
		{"rembed_raw", rawFunc, true},
	}

	for _, f := range funcs {
		if err := conn.RegisterFunc(f.name, f.impl, f.pure); err != nil {
			return fmt.Errorf("failed to register %s: %w", f.name, err)
		}
	}
	return nil
}

func versionFunc() string {
	return "v" + Version
}

func debugFunc() string {
	return fmt.Sprintf("Version: v%s\nSource: %s\nRuntime: %s %s/%s\n",
		Version, Source, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// clientOptionsFunc builds a client from key/value pairs and returns a
// single-use handle token for a rembed_clients insert to claim.
func clientOptionsFunc(pairs ...string) (string, error) {
	cfg, err := provider.BuildOptions(pairs)
	if err != nil {
		return "", err
	}
	client, err := provider.New(cfg)
	if err != nil {
		return "", err
	}
	return handles.put(client), nil
}

// rembedFunc embeds one text. Extra arguments after the input are accepted
// for compatibility and ignored.
func rembedFunc(reg *provider.Registry) any {
	return func(clientName, input string, _ ...string) ([]byte, error) {
		entry, err := reg.Lookup(clientName)
		if err != nil {
			return nil, err
		}
		vec, err := engine.Single(entry.Client, input)
		if err != nil {
			return nil, err
		}
		return vector.Encode(vec), nil
	}
}

// rembedBatchFunc embeds a JSON array of texts in one provider call and
// returns a JSON array of base64-encoded tagged blobs.
func rembedBatchFunc(reg *provider.Registry) any {
	return func(clientName, jsonInput string) (string, error) {
		var texts []string
		if err := json.Unmarshal([]byte(jsonInput), &texts); err != nil {
			return "", fmt.Errorf("%w: invalid JSON array: %v", types.ErrMalformedInput, err)
		}

		entry, err := reg.Lookup(clientName)
		if err != nil {
			return "", err
		}
		vecs, err := engine.Batch(entry.Client, texts)
		if err != nil {
			return "", err
		}

		encoded := make([]string, len(vecs))
		for i, vec := range vecs {
			encoded[i] = base64.StdEncoding.EncodeToString(vector.Encode(vec))
		}
		out, err := json.Marshal(encoded)
		if err != nil {
			return "", fmt.Errorf("JSON serialization failed: %w", err)
		}
		return string(out), nil
	}
}

func lookupImageClient(reg *provider.Registry, name string) (provider.ImageClient, error) {
	entry, err := reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	img, ok := entry.Client.(provider.ImageClient)
	if !ok {
		return nil, fmt.Errorf("%w: client %s does not accept image inputs; register it with an embedding_model option", types.ErrUnsupported, name)
	}
	return img, nil
}

func rembedImageFunc(reg *provider.Registry) any {
	return func(clientName string, image []byte) ([]byte, error) {
		return embedImage(reg, clientName, image, "")
	}
}

func rembedImagePromptFunc(reg *provider.Registry) any {
	return func(clientName string, image []byte, prompt string) ([]byte, error) {
		return embedImage(reg, clientName, image, prompt)
	}
}

func embedImage(reg *provider.Registry, clientName string, image []byte, prompt string) ([]byte, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image data cannot be empty", types.ErrEmptyInput)
	}
	client, err := lookupImageClient(reg, clientName)
	if err != nil {
		return nil, err
	}
	vec, err := engine.Image(client, image, prompt)
	if err != nil {
		return nil, err
	}
	return vector.Encode(vec), nil
}

// concurrentResult is the JSON shape rembed_images_concurrent returns.
type concurrentResult struct {
	Embeddings []string        `json:"embeddings"`
	Stats      concurrentStats `json:"stats"`
}

type concurrentStats struct {
	Processed      int     `json:"total_processed"`
	Succeeded      int     `json:"successful"`
	Failed         int     `json:"failed"`
	TotalSeconds   float64 `json:"total_time_seconds"`
	AvgPerItemMs   float64 `json:"avg_time_per_item_ms"`
	ItemsPerSecond float64 `json:"throughput_per_sec"`
}

// rembedImagesConcurrentFunc embeds a JSON array of base64 images through
// the bounded-concurrency engine. Failed items are dropped from the output;
// the stats block reports how many.
func rembedImagesConcurrentFunc(reg *provider.Registry) any {
	return func(clientName, jsonInput string) (string, error) {
		var encoded []string
		if err := json.Unmarshal([]byte(jsonInput), &encoded); err != nil {
			return "", fmt.Errorf("%w: invalid JSON array: %v", types.ErrMalformedInput, err)
		}
		if len(encoded) == 0 {
			return "", fmt.Errorf("%w: input array cannot be empty", types.ErrEmptyInput)
		}

		images := make([][]byte, len(encoded))
		for i, s := range encoded {
			data, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return "", fmt.Errorf("%w: item %d is not valid base64: %v", types.ErrMalformedInput, i, err)
			}
			images[i] = data
		}

		client, err := lookupImageClient(reg, clientName)
		if err != nil {
			return "", err
		}
		vecs, stats, err := client.InferImagesConcurrent(context.Background(), images)
		if err != nil {
			return "", err
		}

		result := concurrentResult{
			Embeddings: make([]string, len(vecs)),
			Stats: concurrentStats{
				Processed:      stats.Processed,
				Succeeded:      stats.Succeeded,
				Failed:         stats.Failed,
				TotalSeconds:   stats.TotalSeconds(),
				AvgPerItemMs:   float64(stats.AvgPerItem.Microseconds()) / 1000,
				ItemsPerSecond: stats.Throughput(),
			},
		}
		for i, vec := range vecs {
			result.Embeddings[i] = base64.StdEncoding.EncodeToString(vector.Encode(vec))
		}

		out, err := json.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("JSON serialization failed: %w", err)
		}
		return string(out), nil
	}
}

// rawFunc strips the vector tag so the remaining bytes can be handed
// straight to sqlite-vec.
func rawFunc(blob []byte) ([]byte, error) {
	return vector.Strip(blob)
}
