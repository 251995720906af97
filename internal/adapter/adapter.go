package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"chatrelay/internal/core"
)

// Adapter is a callable chat-completion client for one provider. It is safe
// for concurrent use: the configuration is immutable and all per-call state
// lives on the stack.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New validates the provider configuration and returns an adapter for it.
func New(cfg Config) (*Adapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &Adapter{
		cfg:    cfg,
		client: cfg.HTTPClient,
		logger: cfg.Logger.With("provider", cfg.Name),
	}, nil
}

// Name returns the provider's human-readable identifier.
func (a *Adapter) Name() string { return a.cfg.Name }

// Aliases returns the caller-facing model keys this adapter serves.
func (a *Adapter) Aliases() []string { return a.cfg.Models.Aliases() }

// Models returns the adapter's alias table.
func (a *Adapter) Models() ModelTable { return a.cfg.Models }

// Result is the outcome of a Complete call: exactly one of Response or
// Stream is set. A non-streaming failure is still a Response, with its Error
// field populated.
type Result struct {
	Response *core.ChatResponse
	Stream   *core.StreamEnvelope
}

// IsError reports whether the result carries a uniform error response.
func (r *Result) IsError() bool {
	return r.Response != nil && r.Response.Error != nil
}

// Complete runs the full pipeline: validate and normalize the inbound
// request, build the sanitized outbound body, dispatch, and shape the
// outcome.
//
// Error propagation follows two deliberate contracts:
//
//   - Non-streaming path: every failure — validation, configuration,
//     dispatch, upstream status, body parsing — is converted into a uniform
//     error response and returned as data with a nil error. Callers must not
//     rely on the error return for this path.
//   - Streaming path: transport failures and the pre-flight status check are
//     returned as a non-nil error, so a caller proxying a streaming HTTP
//     response can fail its transport before committing success headers.
//     Request-construction and credential failures are classified as data on
//     both paths, since no stream was ever in play.
func (a *Adapter) Complete(ctx context.Context, messages any, opts Options) (*Result, error) {
	req, err := a.buildRequest(ctx, messages, opts)
	if err != nil {
		a.logger.Warn("request rejected", "error", err)
		a.cfg.Hooks.observeRequest(a.cfg.Name, "rejected", 0)
		return &Result{Response: core.ErrorResponse(err, a.cfg.Name, opts.Model, uuid.NewString())}, nil
	}

	resp, elapsed, err := a.dispatch(ctx, req)
	if err != nil {
		return a.failDispatch(req, err, elapsed)
	}

	if req.Options.Stream {
		envelope, err := a.buildStreamEnvelope(req, resp)
		if err != nil {
			a.logger.Error("streaming pre-flight failed", "request_id", req.ID, "error", err)
			a.cfg.Hooks.observeRequest(a.cfg.Name, "stream_error", elapsed)
			return nil, err
		}
		a.logger.Info("streaming response started",
			"request_id", req.ID,
			"model", req.Model,
			"sse", envelope.IsSSE,
			"upstream_ms", elapsed.Milliseconds(),
		)
		a.cfg.Hooks.observeRequest(a.cfg.Name, "stream", elapsed)
		return &Result{Stream: envelope}, nil
	}

	out, err := a.normalizeResponse(req, resp, elapsed)
	if err != nil {
		a.logger.Error("chat completion failed", "request_id", req.ID, "error", err)
		a.cfg.Hooks.observeRequest(a.cfg.Name, "error", elapsed)
		return &Result{Response: core.ErrorResponse(err, a.cfg.Name, req.Alias, req.ID)}, nil
	}

	a.cfg.Hooks.observeRequest(a.cfg.Name, "success", elapsed)
	return &Result{Response: out}, nil
}

// failDispatch applies the dual-path policy to a dispatch failure: raised
// for streaming (no stream was committed, but the caller still needs to fail
// its transport), returned as data otherwise. Credential failures are
// deterministic and happen before any network I/O, so they stay classified
// as data on both paths; only transport-level failures raise.
func (a *Adapter) failDispatch(req *builtRequest, err error, elapsed time.Duration) (*Result, error) {
	a.logger.Error("dispatch failed", "request_id", req.ID, "error", err)
	a.cfg.Hooks.observeRequest(a.cfg.Name, "dispatch_error", elapsed)
	if req.Options.Stream && !isConfigurationError(err) {
		return nil, err
	}
	return &Result{Response: core.ErrorResponse(err, a.cfg.Name, req.Alias, req.ID)}, nil
}

func isConfigurationError(err error) bool {
	var ge *core.GatewayError
	return errors.As(err, &ge) && ge.Type == core.ErrorTypeConfiguration
}

// ListModels fetches the provider's advertised model list from its models
// endpoint, if one is configured. Used only for catalog enrichment; chat
// routing never depends on it.
func (a *Adapter) ListModels(ctx context.Context) (*core.ModelsResponse, error) {
	if a.cfg.ModelsEndpoint == "" {
		return nil, core.NewNotFoundError("provider " + a.cfg.Name + " has no models endpoint")
	}

	credential := a.cfg.AuthHeaderValue()
	if credential == "" {
		return nil, core.NewConfigurationError(a.cfg.Name, "missing credential for provider "+a.cfg.Name)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.ModelsEndpoint, nil)
	if err != nil {
		return nil, core.NewInvalidRequestError("failed to create request", err)
	}
	httpReq.Header.Set(a.cfg.AuthHeaderName, credential)
	for k, v := range a.cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, core.NewProviderError(a.cfg.Name, http.StatusBadGateway, "failed to send request: "+err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewProviderError(a.cfg.Name, http.StatusBadGateway, "failed to read response: "+err.Error(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.ParseProviderError(a.cfg.Name, resp.StatusCode, raw, nil)
	}

	var out core.ModelsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, core.NewProviderError(a.cfg.Name, http.StatusBadGateway, "failed to parse models response: "+err.Error(), err)
	}
	return &out, nil
}
