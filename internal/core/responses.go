package core

import (
	"errors"
	"strings"
	"time"
)

// ErrorResponse is the single funnel that converts any failure on the
// non-streaming path into a uniform, success-shaped response with the error
// field populated. Callers receive this as data, never as a raised error.
func ErrorResponse(err error, provider, model, requestID string) *ChatResponse {
	detail := &ErrorDetail{
		Message: err.Error(),
		Status:  500,
	}

	var ge *GatewayError
	if errors.As(err, &ge) {
		detail.Message = ge.Message
		detail.Type = string(ge.Type)
		detail.Status = ge.HTTPStatusCode()
	}

	return &ChatResponse{
		ID:       SynthesizeResponseID(provider, requestID),
		Object:   "chat.completion",
		Created:  time.Now().Unix(),
		Model:    model,
		Provider: provider,
		Choices:  []Choice{},
		Error:    detail,
	}
}

// SynthesizeResponseID builds the fallback response ID used when a provider
// omits one: the lowercased provider name joined with the request ID.
func SynthesizeResponseID(provider, requestID string) string {
	return strings.ToLower(provider) + "-" + requestID
}
