// Package builtin registers all built-in client factories.
package builtin

import (
	"github.com/sqlite-ai/rembed/builtin/cohere"
	"github.com/sqlite-ai/rembed/builtin/llamafile"
	"github.com/sqlite-ai/rembed/builtin/mock"
	"github.com/sqlite-ai/rembed/builtin/ollama"
	"github.com/sqlite-ai/rembed/builtin/openai"
	"github.com/sqlite-ai/rembed/internal/multimodal"
	"github.com/sqlite-ai/rembed/pkg/plugin/host"
	"github.com/sqlite-ai/rembed/pkg/provider"
)

func init() {
	provider.RegisterFactory("openai", func(cfg provider.Config) (provider.Client, error) {
		return openai.New(cfg, openai.PresetOpenAI)
	})
	provider.RegisterFactory("jina", func(cfg provider.Config) (provider.Client, error) {
		return openai.New(cfg, openai.PresetJina)
	})
	provider.RegisterFactory("mixedbread", func(cfg provider.Config) (provider.Client, error) {
		return openai.New(cfg, openai.PresetMixedbread)
	})

	provider.RegisterFactory("cohere", func(cfg provider.Config) (provider.Client, error) {
		return cohere.New(cfg, cohere.PresetCohere)
	})
	provider.RegisterFactory("nomic", func(cfg provider.Config) (provider.Client, error) {
		return cohere.New(cfg, cohere.PresetNomic)
	})

	provider.RegisterFactory("ollama", func(cfg provider.Config) (provider.Client, error) {
		return ollama.New(cfg)
	})
	provider.RegisterFactory("llamafile", func(cfg provider.Config) (provider.Client, error) {
		return llamafile.New(cfg)
	})

	provider.RegisterFactory("mock", func(cfg provider.Config) (provider.Client, error) {
		return mock.New(cfg)
	})

	provider.RegisterFactory("multimodal", func(cfg provider.Config) (provider.Client, error) {
		return multimodal.New(cfg)
	})

	// Out-of-process providers; the model names the plugin binary.
	provider.RegisterFactory("plugin", func(cfg provider.Config) (provider.Client, error) {
		loaded, err := host.DefaultManager().Load(cfg.Model)
		if err != nil {
			return nil, err
		}
		return host.NewClientAdapter(loaded.Embedding), nil
	})
}
