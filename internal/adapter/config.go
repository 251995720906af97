// Package adapter builds callable chat-completion adapters from declarative
// provider configurations. An adapter normalizes an inbound request, builds a
// sanitized outbound body tailored to the provider's dialect, dispatches it,
// and produces either a normalized response, a streaming envelope, or a
// uniform error response.
package adapter

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chatrelay/internal/core"
	"chatrelay/internal/httpclient"
)

// Endpoint is either a fixed URL or a resolver from the provider's native
// model name to a URL. Construct with EndpointURL or EndpointFunc; resolution
// always goes through Resolve so callers never inspect which kind it is.
type Endpoint struct {
	url string
	fn  func(model string) string
}

// EndpointURL returns an Endpoint that always resolves to the given URL.
func EndpointURL(u string) Endpoint {
	return Endpoint{url: u}
}

// EndpointFunc returns an Endpoint resolved per request from the native model name.
func EndpointFunc(fn func(model string) string) Endpoint {
	return Endpoint{fn: fn}
}

// Resolve returns the final URL for the given native model name.
func (e Endpoint) Resolve(model string) string {
	if e.fn != nil {
		return e.fn(model)
	}
	return e.url
}

// IsZero reports whether the endpoint was never configured.
func (e Endpoint) IsZero() bool {
	return e.url == "" && e.fn == nil
}

// ModelAlias maps a caller-facing model key to the provider's own identifier.
type ModelAlias struct {
	Alias  string `yaml:"alias"`
	Target string `yaml:"target"`
}

// ModelTable is an ordered alias table. The first entry is the fallback
// default for unknown aliases.
type ModelTable []ModelAlias

// Resolve returns the provider-native model name for the given alias,
// falling back to the first entry when the alias is unknown. An empty table
// passes the alias through unchanged.
func (t ModelTable) Resolve(alias string) string {
	for _, m := range t {
		if m.Alias == alias {
			return m.Target
		}
	}
	if len(t) > 0 {
		return t[0].Target
	}
	return alias
}

// Aliases returns the caller-facing model keys in table order.
func (t ModelTable) Aliases() []string {
	out := make([]string, 0, len(t))
	for _, m := range t {
		out = append(out, m.Alias)
	}
	return out
}

// DefaultSystemPrompt is injected when a provider configures no prompt table
// at all, so every outbound request still carries a leading system message.
// A configured table stays authoritative, including entries that explicitly
// map an alias to the empty prompt.
const DefaultSystemPrompt = "You are a helpful assistant."

// SystemPrompt maps a model alias to the default system prompt injected when
// the caller supplies no system message.
type SystemPrompt struct {
	Alias  string `yaml:"alias"`
	Prompt string `yaml:"prompt"`
}

// PromptTable is an ordered prompt table; the first entry is the fallback.
type PromptTable []SystemPrompt

// Lookup returns the prompt for the given alias, falling back to the first
// entry. An empty table returns "".
func (t PromptTable) Lookup(alias string) string {
	for _, p := range t {
		if p.Alias == alias {
			return p.Prompt
		}
	}
	if len(t) > 0 {
		return t[0].Prompt
	}
	return ""
}

// Hooks receives timing and token observations from the adapter.
// All fields are optional.
type Hooks struct {
	ObserveRequest func(provider, outcome string, elapsed time.Duration)
	ObserveTokens  func(provider string, usage core.Usage)
}

func (h Hooks) observeRequest(provider, outcome string, elapsed time.Duration) {
	if h.ObserveRequest != nil {
		h.ObserveRequest(provider, outcome, elapsed)
	}
}

func (h Hooks) observeTokens(provider string, usage core.Usage) {
	if h.ObserveTokens != nil {
		h.ObserveTokens(provider, usage)
	}
}

// Config is the immutable declarative description of one upstream provider.
// It is constructed once at startup and never mutated per request.
type Config struct {
	// Name is the human-readable provider identifier used in logs, error
	// messages, and synthesized response IDs.
	Name string

	// Endpoint resolves the chat-completion URL.
	Endpoint Endpoint

	// ModelsEndpoint, when set, is polled to enrich the advertised model
	// catalog with upstream metadata. Optional.
	ModelsEndpoint string

	// AuthHeaderName is the header carrying the credential. Defaults to
	// "Authorization".
	AuthHeaderName string

	// AuthHeaderValue returns the current credential value verbatim
	// (including any scheme prefix such as "Bearer "). An empty return is a
	// configuration error and fails the call before any network I/O.
	AuthHeaderValue func() string

	// Models maps caller-facing model keys to provider-native identifiers.
	Models ModelTable

	// SystemPrompts supplies per-model default system prompts.
	SystemPrompts PromptTable

	// DefaultOptions are merged under caller-supplied options.
	DefaultOptions Options

	// ExtraHeaders are merged into every outbound request.
	ExtraHeaders map[string]string

	// FormatResponse, when set, takes full ownership of shaping a successful
	// non-streaming payload; the default backfill does not run.
	FormatResponse func(raw []byte, requestID string) (*core.ChatResponse, error)

	// TransformRequest is the final mutation hook applied to the sanitized
	// outbound body before dispatch.
	TransformRequest func(body map[string]any) map[string]any

	// PostSanitize is a provider-specific secondary sanitization pass for
	// APIs that reintroduce or reject null fields after the generic pass
	// (see PruneEmptyResponseFormat).
	PostSanitize func(body map[string]any) map[string]any

	// HTTPClient overrides the default pooled client. Mainly for tests.
	HTTPClient *http.Client

	// Hooks receives metric observations.
	Hooks Hooks

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// validate checks the fields without which no call can succeed.
func (c *Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if c.Endpoint.IsZero() {
		return fmt.Errorf("provider %s: endpoint is required", c.Name)
	}
	if c.AuthHeaderValue == nil {
		return fmt.Errorf("provider %s: credential accessor is required", c.Name)
	}
	return nil
}

// withDefaults fills optional fields.
func (c Config) withDefaults() Config {
	if c.AuthHeaderName == "" {
		c.AuthHeaderName = "Authorization"
	}
	if c.HTTPClient == nil {
		c.HTTPClient = httpclient.NewDefault()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
