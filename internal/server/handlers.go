// Package server provides the HTTP front-end for the gateway.
package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"chatrelay/internal/adapter"
	"chatrelay/internal/core"
	"chatrelay/internal/providers"
	"chatrelay/internal/usage"
)

// Handler holds the HTTP handlers.
type Handler struct {
	registry *providers.Registry
	usage    *usage.Logger // optional
}

// NewHandler creates a handler over the given registry. The usage logger may
// be nil when accounting is disabled.
func NewHandler(registry *providers.Registry, usageLogger *usage.Logger) *Handler {
	return &Handler{registry: registry, usage: usageLogger}
}

// chatCompletionRequest is the inbound wire shape. Messages stays untyped so
// malformed values reach the adapter's validator instead of failing JSON
// binding with an opaque error.
type chatCompletionRequest struct {
	Model       string           `json:"model"`
	Messages    any              `json:"messages"`
	Temperature *float64         `json:"temperature"`
	Stream      *bool            `json:"stream"`
	Seed        *int             `json:"seed"`
	MaxTokens   *int             `json:"max_tokens"`
	Tools       []map[string]any `json:"tools"`
	ToolChoice  any              `json:"tool_choice"`

	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func (r *chatCompletionRequest) options() adapter.Options {
	opts := adapter.Options{
		Model:       r.Model,
		Temperature: r.Temperature,
		Stream:      r.Stream,
		Seed:        r.Seed,
		MaxTokens:   r.MaxTokens,
		Tools:       r.Tools,
		ToolChoice:  r.ToolChoice,
	}
	if r.ResponseFormat != nil {
		jsonMode := r.ResponseFormat.Type == "json_object"
		opts.JSONMode = &jsonMode
	}
	return opts
}

// ChatCompletion handles POST /v1/chat/completions.
func (h *Handler) ChatCompletion(c echo.Context) error {
	var req chatCompletionRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	ad, ok := h.registry.Lookup(req.Model)
	if !ok {
		return handleError(c, core.NewInvalidRequestError("unsupported model: "+req.Model, nil))
	}

	requestID := uuid.NewString()
	c.Response().Header().Set("X-Request-Id", requestID)
	ctx := core.WithRequestID(c.Request().Context(), requestID)

	result, err := ad.Complete(ctx, req.Messages, req.options())
	if err != nil {
		// Streaming-path failure: nothing was written yet, so the error can
		// still be served with its own status instead of a broken stream.
		return handleError(c, err)
	}

	if result.Stream != nil {
		return h.proxyStream(c, result.Stream)
	}

	resp := result.Response
	if resp.Error != nil {
		status := resp.Error.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		return c.JSON(status, resp)
	}

	if h.usage != nil {
		h.usage.Write(usage.FromChatResponse(resp, requestID))
	}
	return c.JSON(http.StatusOK, resp)
}

// proxyStream copies the raw upstream body to the client without buffering
// or decoding. The envelope's Content-Type is forwarded so SSE streams stay
// SSE end to end.
func (h *Handler) proxyStream(c echo.Context, env *core.StreamEnvelope) error {
	defer func() {
		_ = env.Body.Close()
	}()

	contentType := env.ContentType
	if contentType == "" {
		contentType = "text/event-stream"
	}
	c.Response().Header().Set("Content-Type", contentType)
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	if _, err := io.Copy(c.Response().Writer, env.Body); err != nil {
		// Headers are committed; nothing left to do but drop the connection.
		return nil
	}
	return nil
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ListModels handles GET /v1/models.
func (h *Handler) ListModels(c echo.Context) error {
	return c.JSON(http.StatusOK, h.registry.Models())
}

// handleError converts gateway errors to HTTP responses.
func handleError(c echo.Context, err error) error {
	var gatewayErr *core.GatewayError
	if errors.As(err, &gatewayErr) {
		return c.JSON(gatewayErr.HTTPStatusCode(), map[string]any{
			"error": map[string]any{
				"type":    gatewayErr.Type,
				"message": gatewayErr.Message,
			},
		})
	}

	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
