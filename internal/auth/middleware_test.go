package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freelance-crm/relation-bot/internal/auth"
	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "test-secret-0123456789abcdef"
	testAPIKey = "test-api-key-12345"
)

func createTestConfig() *config.Config {
	return &config.Config{
		ApiKey: config.ApiKeyConfig{Value: testAPIKey},
		JWT:    config.JWTConfig{Secret: testSecret, Issuer: "relation-bot", Audience: "dashboard"},
	}
}

func createTestMiddleware() *auth.Middleware {
	return auth.NewMiddleware(createTestConfig(), zap.NewNop())
}

func captureHandler(called *bool, captured **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func signToken(t *testing.T, secret string, claims auth.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() auth.Claims {
	return auth.Claims{
		Name:  "Aiko",
		Roles: []string{"viewer"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "relation-bot",
			Audience:  jwt.ClaimStrings{"dashboard"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestMiddleware_Authenticate_WithAPIKey(t *testing.T) {
	m := createTestMiddleware()

	var called bool
	var captured *auth.UserContext
	handler := m.Authenticate(captureHandler(&called, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("x-api-key", testAPIKey)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "System", captured.DisplayName)
	assert.Equal(t, auth.SystemUserID, captured.UserID)
	assert.Equal(t, auth.AuthTypeAPIKey, captured.AuthType)
	assert.True(t, captured.HasRole(auth.RoleService))
}

func TestMiddleware_Authenticate_Rejections(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"no credentials", nil},
		{"wrong api key", map[string]string{"x-api-key": "nope"}},
		{"basic auth", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}},
		{"garbage token", map[string]string{"Authorization": "Bearer not.a.jwt"}},
		{"wrong secret", map[string]string{"Authorization": "Bearer " + signToken(t, "other-secret", validClaims())}},
		{"expired", map[string]string{"Authorization": "Bearer " + signToken(t, testSecret, expired)}},
		{"wrong issuer", map[string]string{"Authorization": "Bearer " + signToken(t, testSecret, wrongIssuer)}},
		{"wrong audience", map[string]string{"Authorization": "Bearer " + signToken(t, testSecret, wrongAudience)}},
		{"missing subject", map[string]string{"Authorization": "Bearer " + signToken(t, testSecret, noSubject)}},
	}

	m := createTestMiddleware()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var captured *auth.UserContext
			handler := m.Authenticate(captureHandler(&called, &captured))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestMiddleware_Authenticate_WithJWT(t *testing.T) {
	m := createTestMiddleware()

	var called bool
	var captured *auth.UserContext
	handler := m.Authenticate(captureHandler(&called, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Authorization", "bearer "+signToken(t, testSecret, validClaims()))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", captured.Subject)
	assert.Equal(t, "Aiko", captured.DisplayName)
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceOID, []byte("user-1")), captured.UserID)
	assert.True(t, captured.HasRole(auth.RoleViewer))
	assert.Equal(t, auth.AuthTypeJWT, captured.AuthType)
}

func TestMiddleware_NoAPIKeyConfigured(t *testing.T) {
	cfg := createTestConfig()
	cfg.ApiKey.Value = ""
	m := auth.NewMiddleware(cfg, zap.NewNop())

	var called bool
	var captured *auth.UserContext
	handler := m.Authenticate(captureHandler(&called, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-api-key", "anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_RequireWrite(t *testing.T) {
	m := createTestMiddleware()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		method string
		user   *auth.UserContext
		want   int
	}{
		{"viewer may read", http.MethodGet, &auth.UserContext{Roles: []auth.Role{auth.RoleViewer}}, http.StatusOK},
		{"viewer may not write", http.MethodPost, &auth.UserContext{Roles: []auth.Role{auth.RoleViewer}}, http.StatusForbidden},
		{"admin may write", http.MethodDelete, &auth.UserContext{Roles: []auth.Role{auth.RoleAdmin}}, http.StatusOK},
		{"no roles may write", http.MethodPut, &auth.UserContext{}, http.StatusOK},
		{"anonymous write", http.MethodPost, nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/projects", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUserContext(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			m.RequireWrite(ok).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	m := createTestMiddleware()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := m.RequireRole(auth.RoleAdmin)(ok)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{Roles: []auth.Role{auth.RoleViewer}}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{Roles: []auth.Role{auth.RoleAdmin}}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
