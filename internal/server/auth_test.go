package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func authTestHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func doAuthRequest(t *testing.T, masterKey string, skipPaths []string, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Use(AuthMiddleware(masterKey, skipPaths))
	e.GET("/*", authTestHandler)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareValidKey(t *testing.T) {
	rec := doAuthRequest(t, "secret", nil, "/v1/models", "Bearer secret")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	rec := doAuthRequest(t, "secret", nil, "/v1/models", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareWrongKey(t *testing.T) {
	rec := doAuthRequest(t, "secret", nil, "/v1/models", "Bearer wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareBadFormat(t *testing.T) {
	rec := doAuthRequest(t, "secret", nil, "/v1/models", "Basic secret")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareSkipPaths(t *testing.T) {
	rec := doAuthRequest(t, "secret", []string{"/health"}, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("skip path must bypass auth, got %d", rec.Code)
	}
}

func TestAuthMiddlewareEmptyKeyAllowsAll(t *testing.T) {
	rec := doAuthRequest(t, "", nil, "/v1/models", "")
	if rec.Code != http.StatusOK {
		t.Errorf("empty master key must allow requests, got %d", rec.Code)
	}
}
