// Package providers holds the declarative catalog of upstream providers and
// the registry that routes caller model keys to adapters.
package providers

import (
	"fmt"
	"os"

	"chatrelay/internal/adapter"
)

const defaultSystemPrompt = adapter.DefaultSystemPrompt

// bearerFromEnv returns a credential accessor that reads the environment on
// every call, so rotated keys take effect without a restart. An unset or
// empty variable yields "" and the dispatcher fails the call before any
// network I/O.
func bearerFromEnv(envKey string) func() string {
	return func() string {
		key := os.Getenv(envKey)
		if key == "" {
			return ""
		}
		return "Bearer " + key
	}
}

// rawFromEnv returns the environment value verbatim, for providers whose
// auth header carries the bare key.
func rawFromEnv(envKey string) func() string {
	return func() string {
		return os.Getenv(envKey)
	}
}

// OpenAI returns the provider configuration for the OpenAI API.
func OpenAI() adapter.Config {
	return adapter.Config{
		Name:            "OpenAI",
		Endpoint:        adapter.EndpointURL("https://api.openai.com/v1/chat/completions"),
		ModelsEndpoint:  "https://api.openai.com/v1/models",
		AuthHeaderValue: bearerFromEnv("OPENAI_API_KEY"),
		Models: adapter.ModelTable{
			{Alias: "gpt-4o-mini", Target: "gpt-4o-mini"},
			{Alias: "gpt-4o", Target: "gpt-4o"},
			{Alias: "gpt-4.1", Target: "gpt-4.1"},
		},
		SystemPrompts: adapter.PromptTable{
			{Alias: "gpt-4o-mini", Prompt: defaultSystemPrompt},
		},
	}
}

// Groq returns the provider configuration for Groq's OpenAI-compatible API.
func Groq() adapter.Config {
	return adapter.Config{
		Name:            "Groq",
		Endpoint:        adapter.EndpointURL("https://api.groq.com/openai/v1/chat/completions"),
		ModelsEndpoint:  "https://api.groq.com/openai/v1/models",
		AuthHeaderValue: bearerFromEnv("GROQ_API_KEY"),
		Models: adapter.ModelTable{
			{Alias: "llama-3.3-70b", Target: "llama-3.3-70b-versatile"},
			{Alias: "llama-3.1-8b", Target: "llama-3.1-8b-instant"},
		},
		SystemPrompts: adapter.PromptTable{
			{Alias: "llama-3.3-70b", Prompt: defaultSystemPrompt},
		},
	}
}

// Mistral returns the provider configuration for the Mistral API. Mistral
// rejects literal null fields anywhere in the body, including inside nested
// objects, so its config installs the secondary sanitization pass.
func Mistral() adapter.Config {
	return adapter.Config{
		Name:            "Mistral",
		Endpoint:        adapter.EndpointURL("https://api.mistral.ai/v1/chat/completions"),
		ModelsEndpoint:  "https://api.mistral.ai/v1/models",
		AuthHeaderValue: bearerFromEnv("MISTRAL_API_KEY"),
		Models: adapter.ModelTable{
			{Alias: "mistral-small", Target: "mistral-small-latest"},
			{Alias: "mistral-large", Target: "mistral-large-latest"},
		},
		SystemPrompts: adapter.PromptTable{
			{Alias: "mistral-small", Prompt: defaultSystemPrompt},
		},
		PostSanitize: adapter.PruneEmptyResponseFormat,
	}
}

// OpenRouter returns the provider configuration for OpenRouter, which asks
// for attribution headers on every request.
func OpenRouter() adapter.Config {
	return adapter.Config{
		Name:            "OpenRouter",
		Endpoint:        adapter.EndpointURL("https://openrouter.ai/api/v1/chat/completions"),
		ModelsEndpoint:  "https://openrouter.ai/api/v1/models",
		AuthHeaderValue: bearerFromEnv("OPENROUTER_API_KEY"),
		Models: adapter.ModelTable{
			{Alias: "deepseek-v3", Target: "deepseek/deepseek-chat"},
			{Alias: "qwen-2.5-72b", Target: "qwen/qwen-2.5-72b-instruct"},
		},
		SystemPrompts: adapter.PromptTable{
			{Alias: "deepseek-v3", Prompt: defaultSystemPrompt},
		},
		ExtraHeaders: map[string]string{
			"HTTP-Referer": "https://chatrelay.dev",
			"X-Title":      "chatrelay",
		},
	}
}

// AzureOpenAI returns the provider configuration for Azure OpenAI, whose URL
// embeds the deployment (model) name and whose credential travels in an
// api-key header without a scheme prefix.
func AzureOpenAI() adapter.Config {
	resource := os.Getenv("AZURE_OPENAI_RESOURCE")
	return adapter.Config{
		Name: "AzureOpenAI",
		Endpoint: adapter.EndpointFunc(func(model string) string {
			return fmt.Sprintf(
				"https://%s.openai.azure.com/openai/deployments/%s/chat/completions?api-version=2024-06-01",
				resource, model,
			)
		}),
		AuthHeaderName:  "api-key",
		AuthHeaderValue: rawFromEnv("AZURE_OPENAI_API_KEY"),
		Models: adapter.ModelTable{
			{Alias: "azure-gpt-4o", Target: "gpt-4o"},
		},
		SystemPrompts: adapter.PromptTable{
			{Alias: "azure-gpt-4o", Prompt: defaultSystemPrompt},
		},
	}
}

// BuiltIn returns all built-in provider configurations.
func BuiltIn() []adapter.Config {
	return []adapter.Config{
		OpenAI(),
		Groq(),
		Mistral(),
		OpenRouter(),
		AzureOpenAI(),
	}
}

// Available filters configurations to those whose credential accessor
// currently yields a value, mirroring startup-time provider discovery.
// Credentials stay dynamic per call; this only decides what gets registered.
func Available(configs []adapter.Config) []adapter.Config {
	out := make([]adapter.Config, 0, len(configs))
	for _, cfg := range configs {
		if cfg.AuthHeaderValue != nil && cfg.AuthHeaderValue() != "" {
			out = append(out, cfg)
		}
	}
	return out
}
