package providers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"chatrelay/internal/adapter"
)

// CustomProvider describes an OpenAI-compatible provider loaded from a YAML
// catalog file. Alias tables keep file order, so the first entry stays the
// fallback default.
type CustomProvider struct {
	Name           string                 `yaml:"name"`
	Endpoint       string                 `yaml:"endpoint"`
	ModelsEndpoint string                 `yaml:"models_endpoint"`
	AuthHeader     string                 `yaml:"auth_header"`
	APIKeyEnv      string                 `yaml:"api_key_env"`
	BearerPrefix   *bool                  `yaml:"bearer_prefix"`
	Models         []adapter.ModelAlias   `yaml:"models"`
	SystemPrompts  []adapter.SystemPrompt `yaml:"system_prompts"`
	Headers        map[string]string      `yaml:"headers"`
	StripNulls     bool                   `yaml:"strip_nulls"`
}

type customCatalog struct {
	Providers []CustomProvider `yaml:"providers"`
}

// LoadCustom parses a providers YAML file into adapter configurations.
// A missing file is not an error: custom providers are optional.
func LoadCustom(path string) ([]adapter.Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}

	var catalog customCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse providers file: %w", err)
	}

	out := make([]adapter.Config, 0, len(catalog.Providers))
	for _, p := range catalog.Providers {
		cfg, err := p.toConfig()
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

func (p CustomProvider) toConfig() (adapter.Config, error) {
	if p.Name == "" || p.Endpoint == "" || p.APIKeyEnv == "" {
		return adapter.Config{}, fmt.Errorf("custom provider %q: name, endpoint, and api_key_env are required", p.Name)
	}

	accessor := bearerFromEnv(p.APIKeyEnv)
	if p.BearerPrefix != nil && !*p.BearerPrefix {
		accessor = rawFromEnv(p.APIKeyEnv)
	}

	cfg := adapter.Config{
		Name:            p.Name,
		Endpoint:        adapter.EndpointURL(p.Endpoint),
		ModelsEndpoint:  p.ModelsEndpoint,
		AuthHeaderName:  p.AuthHeader,
		AuthHeaderValue: accessor,
		Models:          adapter.ModelTable(p.Models),
		SystemPrompts:   adapter.PromptTable(p.SystemPrompts),
		ExtraHeaders:    p.Headers,
	}
	if p.StripNulls {
		cfg.PostSanitize = adapter.PruneEmptyResponseFormat
	}
	return cfg, nil
}
