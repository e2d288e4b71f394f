package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/freelance-crm/relation-bot/internal/auth"
	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler(counter *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if counter != nil {
			*counter++
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_Bypass(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.RateLimitConfig
		path   string
		remote string
	}{
		{"disabled", config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, "/api/v1/projects", "192.168.1.1:12345"},
		{"whitelisted ip", config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, WhitelistIPs: []string{"127.0.0.1"}}, "/api/v1/projects", "127.0.0.1:12345"},
		{"whitelisted path", config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, WhitelistPaths: []string{"/health"}}, "/health", "192.168.1.1:12345"},
		{"whitelisted prefix", config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, WhitelistPaths: []string{"/health/*"}}, "/health/ready", "192.168.1.1:12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			rl := middleware.NewRateLimiter(&cfg, zap.NewNop())
			calls := 0
			handler := rl.LimitByIP(okHandler(&calls))

			for i := 0; i < 20; i++ {
				req := httptest.NewRequest(http.MethodGet, tt.path, nil)
				req.RemoteAddr = tt.remote
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				assert.Equal(t, http.StatusOK, w.Code)
			}
			assert.Equal(t, 20, calls)
		})
	}
}

func TestRateLimiter_LimitExceeded(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 5}, zap.NewNop())
	handler := rl.LimitByIP(okHandler(nil))

	okCount, limited := 0, 0
	var last *httptest.ResponseRecorder
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		switch w.Code {
		case http.StatusOK:
			okCount++
		case http.StatusTooManyRequests:
			limited++
			last = w
		}
	}

	assert.Equal(t, 5, okCount)
	assert.Equal(t, 15, limited)
	require.NotNil(t, last)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))

	var body domain.APIError
	require.NoError(t, json.NewDecoder(last.Body).Decode(&body))
	assert.Equal(t, http.StatusTooManyRequests, body.Status)
}

func TestRateLimiter_KeysAuthenticatedCallersBySubject(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, RequestsPerMinuteAuth: 2}, zap.NewNop())
	handler := rl.Limit(okHandler(nil))

	send := func(subject string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
		req.RemoteAddr = "10.0.0.1:1"
		req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{Subject: subject}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice"))
	assert.Equal(t, http.StatusOK, send("bob"), "same IP, different subject")
}
