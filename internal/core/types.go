// Package core provides the shared types and error taxonomy for the gateway.
package core

import "io"

// Recognized message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Choice represents a single completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorDetail is the error field attached to an otherwise success-shaped
// response. Status carries the HTTP status the front-end should serve the
// response with; it is not part of the wire shape.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Status  int    `json:"-"`
}

// ChatResponse represents the normalized chat completion response.
// Failure responses use the same shape with Error populated, so downstream
// handling is uniform for the non-streaming path.
type ChatResponse struct {
	ID       string       `json:"id"`
	Object   string       `json:"object"`
	Created  int64        `json:"created"`
	Model    string       `json:"model"`
	Provider string       `json:"provider,omitempty"`
	Choices  []Choice     `json:"choices"`
	Usage    Usage        `json:"usage"`
	Error    *ErrorDetail `json:"error,omitempty"`

	// Raw is the undecoded upstream payload, kept for usage accounting.
	// Never serialized back to callers.
	Raw []byte `json:"-"`
}

// Delta is the incremental content of a streaming choice.
type Delta struct {
	Content string `json:"content"`
}

// StreamChoice is the initial choice placed in a stream envelope.
// FinishReason is a pointer so the initial chunk serializes it as null.
type StreamChoice struct {
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
	Index        int     `json:"index"`
}

// StreamEnvelope wraps an upstream streaming response. The envelope never
// buffers or decodes the stream: Body is the untouched upstream handle and
// the consumer owns all further reads and the Close call.
type StreamEnvelope struct {
	ID          string         `json:"id"`
	Object      string         `json:"object"`
	Created     int64          `json:"created"`
	Model       string         `json:"model"`
	Stream      bool           `json:"stream"`
	Provider    string         `json:"provider"`
	IsSSE       bool           `json:"is_sse"`
	ContentType string         `json:"-"`
	Choices     []StreamChoice `json:"choices"`
	Error       *ErrorDetail   `json:"error,omitempty"`
	Body        io.ReadCloser  `json:"-"`
}

// Model represents a single model in the models list
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
	Created int64  `json:"created"`
}

// ModelsResponse represents the response from the /v1/models endpoint
type ModelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}
