package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sqlite-ai/rembed/pkg/types"
)

// legacyFormats are the provider shorthands accepted in the options column
// and the 'format' option.
var legacyFormats = map[string]bool{
	"openai":     true,
	"nomic":      true,
	"cohere":     true,
	"jina":       true,
	"mixedbread": true,
	"ollama":     true,
	"llamafile":  true,
	"mock":       true,
	"plugin":     true,
}

// BuildOptions turns the key/value argument pairs of rembed_client_options
// into a client configuration. Presence of 'embedding_model' selects
// multimodal construction.
func BuildOptions(pairs []string) (Config, error) {
	if len(pairs)%2 != 0 {
		return Config{}, fmt.Errorf("%w: must have an even number of arguments to rembed_client_options, as key/value pairs", types.ErrMalformedInput)
	}

	var cfg Config
	for i := 0; i < len(pairs); i += 2 {
		key, value := pairs[i], pairs[i+1]
		switch key {
		case "model":
			cfg.Model = value
		case "format":
			cfg.Format = value
		case "key", "api_key":
			cfg.APIKey = value
		case "url":
			cfg.URL = value
		case "dimensions":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Config{}, fmt.Errorf("%w: 'dimensions' must be an integer, got %q", types.ErrInvalidConfig, value)
			}
			cfg.Dimensions = n
		case "vision_model":
			cfg.VisionModel = value
		case "embedding_model":
			cfg.EmbeddingModel = value
		default:
			// Unrecognized options are ignored for forward compatibility.
		}
	}

	if cfg.EmbeddingModel != "" {
		if cfg.VisionModel == "" {
			cfg.VisionModel = cfg.Model
		}
		if cfg.VisionModel == "" {
			return Config{}, fmt.Errorf("%w: 'vision_model' or 'model' is required for multimodal clients", types.ErrInvalidConfig)
		}
		cfg.Format = "multimodal"
		return cfg, nil
	}

	if cfg.Model == "" && cfg.Format == "" {
		return Config{}, fmt.Errorf("%w: 'model' or 'format' key is required", types.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return Config{}, fmt.Errorf("%w: 'model' option is required", types.ErrInvalidConfig)
	}
	normalizeFormat(&cfg)
	return cfg, nil
}

// ParseOptions interprets the textual options column of a rembed_clients
// insert. Accepted forms, most specific first: a JSON object, a
// "provider:key" pair, a "provider::model" identifier, a bare legacy
// provider name (the client name is then the model), or a bare model name.
func ParseOptions(name, options string) (Config, error) {
	options = strings.TrimSpace(options)
	if options == "" {
		return Config{}, fmt.Errorf("%w: client options required", types.ErrInvalidConfig)
	}

	if strings.Contains(options, "{") && strings.Contains(options, "}") {
		return parseJSONOptions(name, options)
	}

	if idx := strings.Index(options, "::"); idx >= 0 {
		cfg := Config{Format: options[:idx], Model: options[idx+2:]}
		normalizeFormat(&cfg)
		return cfg, nil
	}

	if idx := strings.Index(options, ":"); idx >= 0 {
		cfg := Config{Format: options[:idx], Model: name, APIKey: options[idx+1:]}
		normalizeFormat(&cfg)
		return cfg, nil
	}

	if legacyFormats[options] {
		return Config{Format: options, Model: name}, nil
	}

	cfg := Config{Model: options}
	normalizeFormat(&cfg)
	return cfg, nil
}

func parseJSONOptions(name, options string) (Config, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(options), &raw); err != nil {
		return Config{}, fmt.Errorf("%w: invalid JSON options: %v", types.ErrMalformedInput, err)
	}

	str := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := raw[k].(string); ok {
				return v
			}
		}
		return ""
	}

	cfg := Config{
		Format:         str("format"),
		Model:          str("model", "provider"),
		APIKey:         str("key", "api_key"),
		URL:            str("url"),
		VisionModel:    str("vision_model"),
		EmbeddingModel: str("embedding_model"),
	}
	if cfg.Model == "" {
		cfg.Model = name
	}
	if cfg.EmbeddingModel != "" {
		if cfg.VisionModel == "" {
			cfg.VisionModel = cfg.Model
		}
		cfg.Format = "multimodal"
		return cfg, nil
	}
	normalizeFormat(&cfg)
	return cfg, nil
}

// normalizeFormat splits a "provider::model" identifier and fills in the
// default format when none was given.
func normalizeFormat(cfg *Config) {
	if cfg.Format == "" {
		if idx := strings.Index(cfg.Model, "::"); idx >= 0 {
			cfg.Format = cfg.Model[:idx]
			cfg.Model = cfg.Model[idx+2:]
		} else {
			cfg.Format = "openai"
		}
	}
}
