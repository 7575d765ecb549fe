package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func serveCORS(t *testing.T, cfg CORSConfig, method, origin string, next http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/graphql", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	CORSMiddleware(cfg)(next).ServeHTTP(rr, req)
	return rr
}

func TestCORSMiddleware_Disabled(t *testing.T) {
	rr := serveCORS(t, CORSConfig{}, http.MethodGet, "https://listings.example.com", okHandler)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	cfg := CORSConfig{
		Enabled:          true,
		AllowedOrigins:   []string{" https://listings.example.com "},
		AllowedMethods:   []string{"GET", "POST"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
	}
	rr := serveCORS(t, cfg, http.MethodPost, "https://listings.example.com", okHandler)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://listings.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rr.Header().Get("Vary"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "X-Request-ID", rr.Header().Get("Access-Control-Expose-Headers"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"), "methods are only sent on preflight")
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	cfg := CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"https://listings.example.com"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         600,
	}
	never := func(http.ResponseWriter, *http.Request) { t.Fatal("preflight must not reach the handler") }

	rr := serveCORS(t, cfg, http.MethodOptions, "https://listings.example.com", never)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, X-Request-ID", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))

	rr = serveCORS(t, cfg, http.MethodOptions, "https://elsewhere.example.org", never)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	cfg := CORSConfig{Enabled: true, AllowedOrigins: []string{"https://listings.example.com"}}
	rr := serveCORS(t, cfg, http.MethodGet, "https://elsewhere.example.org", okHandler)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_Wildcard(t *testing.T) {
	cfg := CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}, AllowCredentials: true}
	rr := serveCORS(t, cfg, http.MethodGet, "https://any.example.net", okHandler)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Vary"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSMiddleware_NoOriginHeader(t *testing.T) {
	cfg := CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}}
	rr := serveCORS(t, cfg, http.MethodGet, "", okHandler)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
