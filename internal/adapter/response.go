package adapter

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"chatrelay/internal/core"
	"chatrelay/internal/httpclient"
)

// buildStreamEnvelope performs the streaming pre-flight. A non-2xx status
// reads the error body and returns it as an error (the raised path), so the
// caller can fail its own transport before committing success headers. On
// success the envelope carries the untouched body handle: this layer reads
// nothing past the headers, and the HTTP client's flow control governs how
// fast bytes arrive.
func (a *Adapter) buildStreamEnvelope(req *builtRequest, resp *http.Response) (*core.StreamEnvelope, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			body = []byte("failed to read error response")
		}
		_ = resp.Body.Close()
		return nil, core.ParseProviderError(a.cfg.Name, resp.StatusCode, body, nil)
	}

	contentType := resp.Header.Get("Content-Type")

	return &core.StreamEnvelope{
		ID:          core.SynthesizeResponseID(a.cfg.Name, req.ID),
		Object:      "chat.completion.chunk",
		Created:     time.Now().Unix(),
		Model:       req.Alias,
		Stream:      true,
		Provider:    a.cfg.Name,
		IsSSE:       strings.HasPrefix(contentType, "text/event-stream"),
		ContentType: contentType,
		Choices: []core.StreamChoice{
			{Delta: core.Delta{Content: ""}, FinishReason: nil, Index: 0},
		},
		Body: resp.Body,
	}, nil
}

// normalizeResponse shapes a non-streaming response. Non-2xx statuses come
// back as errors for the classifier to convert into a uniform error response.
// On success it parses the JSON body, defers entirely to FormatResponse when
// configured, and otherwise backfills the envelope fields the provider
// omitted.
func (a *Adapter) normalizeResponse(req *builtRequest, resp *http.Response, elapsed time.Duration) (*core.ChatResponse, error) {
	defer func() {
		_ = resp.Body.Close()
	}()

	reader, err := httpclient.DecodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, core.NewProviderError(a.cfg.Name, http.StatusBadGateway, "failed to decode response body: "+err.Error(), err)
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, core.NewProviderError(a.cfg.Name, http.StatusBadGateway, "failed to read response: "+err.Error(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, core.ParseProviderError(a.cfg.Name, resp.StatusCode, raw, nil)
	}

	var out *core.ChatResponse
	if a.cfg.FormatResponse != nil {
		out, err = a.cfg.FormatResponse(raw, req.ID)
		if err != nil {
			return nil, core.NewProviderError(a.cfg.Name, http.StatusBadGateway, "failed to format response: "+err.Error(), err)
		}
	} else {
		out = &core.ChatResponse{}
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, core.NewProviderError(a.cfg.Name, http.StatusBadGateway, "failed to parse response: "+err.Error(), err)
		}
		a.backfill(out, req)
	}
	out.Raw = raw

	completionTime := time.Since(req.Start)
	a.logger.Info("chat completion finished",
		"request_id", req.ID,
		"model", req.Model,
		"upstream_ms", elapsed.Milliseconds(),
		"completion_ms", completionTime.Milliseconds(),
		"prompt_tokens", out.Usage.PromptTokens,
		"completion_tokens", out.Usage.CompletionTokens,
	)
	a.cfg.Hooks.observeTokens(a.cfg.Name, out.Usage)

	return out, nil
}

// backfill fills the response envelope fields a provider omitted.
// Usage needs no special handling: its zero value is the all-zero backfill.
func (a *Adapter) backfill(resp *core.ChatResponse, req *builtRequest) {
	if resp.ID == "" {
		resp.ID = core.SynthesizeResponseID(a.cfg.Name, req.ID)
	}
	if resp.Object == "" {
		resp.Object = "chat.completion"
	}
	if resp.Created == 0 {
		resp.Created = time.Now().Unix()
	}
	if resp.Model == "" {
		resp.Model = req.Alias
	}
	resp.Provider = a.cfg.Name
}
