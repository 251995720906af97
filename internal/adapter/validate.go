package adapter

import (
	"strings"

	"chatrelay/internal/core"
)

// validRoles are the message roles the pipeline accepts.
var validRoles = map[string]bool{
	core.RoleSystem:    true,
	core.RoleUser:      true,
	core.RoleAssistant: true,
	core.RoleTool:      true,
}

// validateMessages normalizes an arbitrary caller-supplied value into a
// message sequence. The input may already be []core.Message (internal
// callers) or the []any/map shapes produced by JSON decoding. Anything that
// is not a non-empty list of {role, content-string} elements fails with a
// validation error whose message contains "invalid messages".
func validateMessages(v any) ([]core.Message, error) {
	switch msgs := v.(type) {
	case []core.Message:
		return validateTyped(msgs)
	case []map[string]any:
		generic := make([]any, len(msgs))
		for i, m := range msgs {
			generic[i] = m
		}
		return validateGeneric(generic)
	case []any:
		return validateGeneric(msgs)
	default:
		return nil, core.NewValidationError("invalid messages: expected an array", nil)
	}
}

func validateTyped(msgs []core.Message) ([]core.Message, error) {
	if len(msgs) == 0 {
		return nil, core.NewValidationError("invalid messages: empty list", nil)
	}
	out := make([]core.Message, 0, len(msgs))
	for _, m := range msgs {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if !validRoles[role] {
			return nil, core.NewValidationError("invalid messages: unknown role "+m.Role, nil)
		}
		out = append(out, core.Message{Role: role, Content: m.Content})
	}
	return out, nil
}

func validateGeneric(msgs []any) ([]core.Message, error) {
	if len(msgs) == 0 {
		return nil, core.NewValidationError("invalid messages: empty list", nil)
	}
	out := make([]core.Message, 0, len(msgs))
	for _, raw := range msgs {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, core.NewValidationError("invalid messages: element is not an object", nil)
		}
		role, _ := obj["role"].(string)
		role = strings.ToLower(strings.TrimSpace(role))
		if !validRoles[role] {
			return nil, core.NewValidationError("invalid messages: unknown role", nil)
		}
		content, ok := obj["content"].(string)
		if !ok {
			return nil, core.NewValidationError("invalid messages: content must be a string", nil)
		}
		out = append(out, core.Message{Role: role, Content: content})
	}
	return out, nil
}

// ensureSystemMessage guarantees exactly one leading system message. If the
// sequence already contains a system message anywhere, it is left unchanged;
// otherwise the default prompt for the requested model alias is prepended.
// An empty default prompt injects nothing.
func ensureSystemMessage(msgs []core.Message, defaultPrompt string) []core.Message {
	for _, m := range msgs {
		if m.Role == core.RoleSystem {
			return msgs
		}
	}
	if defaultPrompt == "" {
		return msgs
	}
	out := make([]core.Message, 0, len(msgs)+1)
	out = append(out, core.Message{Role: core.RoleSystem, Content: defaultPrompt})
	return append(out, msgs...)
}
