package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/freelance-crm/relation-bot/internal/auth"
	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidator_IssueAndValidate(t *testing.T) {
	v := auth.NewJWTValidator(&config.JWTConfig{Secret: testSecret, Issuer: "relation-bot", Audience: "dashboard"})

	subject := uuid.NewString()
	token, err := v.IssueToken(subject, "Dashboard", []auth.Role{auth.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	userCtx, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject, userCtx.UserID.String())
	assert.Equal(t, "Dashboard", userCtx.DisplayName)
	assert.True(t, userCtx.HasRole(auth.RoleAdmin))
	assert.True(t, userCtx.CanWrite())
}

func TestJWTValidator_Expired(t *testing.T) {
	v := auth.NewJWTValidator(&config.JWTConfig{Secret: testSecret})

	token, err := v.IssueToken("user", "", nil, -time.Minute)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.True(t, errors.Is(err, auth.ErrExpiredToken))
}

func TestJWTValidator_NoSecret(t *testing.T) {
	v := auth.NewJWTValidator(&config.JWTConfig{})

	_, err := v.IssueToken("user", "", nil, time.Hour)
	assert.True(t, errors.Is(err, auth.ErrNoTokenSecret))

	_, err = v.ValidateToken("anything")
	assert.True(t, errors.Is(err, auth.ErrNoTokenSecret))
}

func TestUserContext_HasAnyRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []auth.Role
		check    []auth.Role
		expected bool
	}{
		{"has one of the roles", []auth.Role{auth.RoleViewer}, []auth.Role{auth.RoleAdmin, auth.RoleViewer}, true},
		{"has none", []auth.Role{auth.RoleViewer}, []auth.Role{auth.RoleAdmin}, false},
		{"empty roles", nil, []auth.Role{auth.RoleAdmin}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.HasAnyRole(tt.check...))
		})
	}
}
