package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/animathic/backend/internal/auth"
	"github.com/animathic/backend/internal/concurrency"
)

func TestSetupRoutes_HealthCheckIsUnauthenticated(t *testing.T) {
	jobs := &stubJobRepo{}
	assets := &stubAssetRepo{}

	server := NewServer(&ServerConfig{
		Environment:  "test",
		Logger:       zap.NewNop(),
		JobRepo:      jobs,
		VideoRepo:    &stubVideoRepo{},
		AssetRepo:    assets,
		Semaphore:    concurrency.NewSemaphore(1),
		JobDeadline:  300 * time.Second,
		JWTValidator: auth.NewJWTValidator("https://issuer.example.com/.well-known/jwks.json", "https://issuer.example.com", "", zap.NewNop()),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRoutes_GenerateRequiresAuth(t *testing.T) {
	server := NewServer(&ServerConfig{
		Environment:  "test",
		Logger:       zap.NewNop(),
		JobRepo:      &stubJobRepo{},
		VideoRepo:    &stubVideoRepo{},
		AssetRepo:    &stubAssetRepo{},
		Semaphore:    concurrency.NewSemaphore(1),
		JobDeadline:  300 * time.Second,
		JWTValidator: auth.NewJWTValidator("https://issuer.example.com/.well-known/jwks.json", "https://issuer.example.com", "", zap.NewNop()),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
