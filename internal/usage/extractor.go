package usage

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"chatrelay/internal/core"
)

// FromChatResponse builds a usage entry from a normalized response.
// Error-shaped responses yield nil: there is nothing to account.
func FromChatResponse(resp *core.ChatResponse, requestID string) *Entry {
	if resp == nil || resp.Error != nil {
		return nil
	}

	return &Entry{
		ID:           uuid.NewString(),
		RequestID:    requestID,
		ProviderID:   resp.ID,
		Timestamp:    time.Now().UTC(),
		Model:        resp.Model,
		Provider:     resp.Provider,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
		RawData:      ExtendedUsage(resp.Raw),
	}
}

// extendedUsagePaths are the provider-specific counters worth preserving
// beyond the three standard token counts.
var extendedUsagePaths = map[string]string{
	"cached_tokens":     "usage.prompt_tokens_details.cached_tokens",
	"reasoning_tokens":  "usage.completion_tokens_details.reasoning_tokens",
	"audio_tokens":      "usage.prompt_tokens_details.audio_tokens",
	"queue_time":        "usage.queue_time",
	"prompt_time":       "usage.prompt_time",
	"completion_time":   "usage.completion_time",
}

// ExtendedUsage pulls provider-specific usage counters out of the raw
// response payload. Returns nil when none are present.
func ExtendedUsage(raw []byte) map[string]any {
	if !gjson.ValidBytes(raw) {
		return nil
	}

	var out map[string]any
	for name, path := range extendedUsagePaths {
		if v := gjson.GetBytes(raw, path); v.Exists() {
			if out == nil {
				out = make(map[string]any)
			}
			out[name] = v.Value()
		}
	}
	return out
}
