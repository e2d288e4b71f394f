package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role is a coarse permission attached to a caller
type Role string

const (
	// RoleAdmin may call every endpoint
	RoleAdmin Role = "admin"
	// RoleService is carried by API-key callers such as the chat adapter
	RoleService Role = "api_service"
	// RoleViewer may only read
	RoleViewer Role = "viewer"
)

// Auth types recorded on the context for logging
const (
	AuthTypeAPIKey = "api_key"
	AuthTypeJWT    = "jwt"
)

// SystemUserID identifies requests authenticated with the API key
var SystemUserID = uuid.Nil

// UserContext holds authenticated caller information
type UserContext struct {
	UserID      uuid.UUID
	Subject     string
	DisplayName string
	Email       string
	Roles       []Role
	AuthType    string
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// CanWrite reports whether the caller may change data. Callers without roles are treated as admins
// of their own single-user CRM.
func (u *UserContext) CanWrite() bool {
	if len(u.Roles) == 0 {
		return true
	}
	return u.HasAnyRole(RoleAdmin, RoleService)
}

// RolesAsStrings returns roles as a slice of strings
func (u *UserContext) RolesAsStrings() []string {
	result := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		result[i] = string(role)
	}
	return result
}

func systemUser() *UserContext {
	return &UserContext{
		UserID:      SystemUserID,
		Subject:     "system",
		DisplayName: "System",
		Roles:       []Role{RoleAdmin, RoleService},
		AuthType:    AuthTypeAPIKey,
	}
}
