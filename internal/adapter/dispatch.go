package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"chatrelay/internal/core"
)

// dispatch resolves the endpoint and credentials, issues the single HTTP
// POST, and returns the raw transport response plus elapsed time. An empty
// credential fails before any network I/O. No retries: a chat completion is
// not safely repeatable once bytes may have reached the provider.
func (a *Adapter) dispatch(ctx context.Context, req *builtRequest) (*http.Response, time.Duration, error) {
	credential := a.cfg.AuthHeaderValue()
	if credential == "" {
		return nil, 0, core.NewConfigurationError(a.cfg.Name, "missing credential for provider "+a.cfg.Name)
	}

	url := a.cfg.Endpoint.Resolve(req.Model)

	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, 0, core.NewInvalidRequestError("failed to marshal request body", err)
	}

	httpReq, err := http.NewRequestWithContext(core.WithRequestID(ctx, req.ID), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, core.NewInvalidRequestError("failed to create request", err)
	}

	httpReq.Header.Set(a.cfg.AuthHeaderName, credential)
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range a.cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	a.logger.Debug("dispatching upstream request",
		"request_id", req.ID,
		"model", req.Model,
		"url", url,
		"stream", req.Options.Stream,
	)

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, core.NewProviderError(a.cfg.Name, http.StatusBadGateway, "failed to send request: "+err.Error(), err)
	}

	return resp, elapsed, nil
}
