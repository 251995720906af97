package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chatrelay/internal/core"
)

// builtRequest is the per-call state produced by the request builder and
// consumed by the dispatcher and the response shapers.
type builtRequest struct {
	ID       string // correlates log lines and synthesized response IDs
	Alias    string // caller-facing model key
	Model    string // provider-native model identifier
	Options  NormalizedOptions
	Messages []core.Message
	Body     map[string]any
	Start    time.Time
}

// buildRequest validates the inbound messages, merges options, enforces the
// leading system message, resolves the model alias, and assembles the
// sanitized outbound wire body. Null-valued fields are placed into the body
// first and stripped by the generic sanitizer, so provider hooks observe the
// same shape the upstream will.
func (a *Adapter) buildRequest(ctx context.Context, messages any, opts Options) (*builtRequest, error) {
	msgs, err := validateMessages(messages)
	if err != nil {
		return nil, err
	}

	normalized := normalizeOptions(opts, a.cfg.DefaultOptions)

	prompt := a.cfg.SystemPrompts.Lookup(normalized.Model)
	if len(a.cfg.SystemPrompts) == 0 {
		prompt = DefaultSystemPrompt
	}
	msgs = ensureSystemMessage(msgs, prompt)

	model := a.cfg.Models.Resolve(normalized.Model)

	var responseFormat any
	if normalized.JSONMode {
		responseFormat = map[string]any{"type": "json_object"}
	}

	body := map[string]any{
		"model":           model,
		"messages":        messageMaps(msgs),
		"temperature":     normalized.Temperature,
		"stream":          normalized.Stream,
		"seed":            normalized.Seed,
		"max_tokens":      normalized.MaxTokens,
		"response_format": responseFormat,
		"tools":           normalized.Tools,
		"tool_choice":     normalized.ToolChoice,
	}

	body = Sanitize(body)
	if a.cfg.TransformRequest != nil {
		body = a.cfg.TransformRequest(body)
	}
	if a.cfg.PostSanitize != nil {
		body = a.cfg.PostSanitize(body)
	}

	// Reuse the front-end's request ID when one travels in the context, so
	// every log line and the synthesized response ID correlate end to end.
	requestID := core.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	return &builtRequest{
		ID:       requestID,
		Alias:    normalized.Model,
		Model:    model,
		Options:  normalized,
		Messages: msgs,
		Body:     body,
		Start:    time.Now(),
	}, nil
}

// messageMaps converts messages to the generic form so transform and
// sanitization hooks can reach inside them.
func messageMaps(msgs []core.Message) []any {
	out := make([]any, len(msgs))
	for i, m := range msgs {
		out[i] = map[string]any{"role": m.Role, "content": m.Content}
	}
	return out
}
