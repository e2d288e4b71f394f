package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrNoTokenSecret = errors.New("jwt secret is not configured")
)

// Claims are the registered claims plus the caller's name and roles
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator validates and issues HS256 tokens signed with a shared secret
type JWTValidator struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(cfg *config.JWTConfig) *JWTValidator {
	return &JWTValidator{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}
}

// ValidateToken validates a token and returns the caller it identifies
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	if len(v.secret) == 0 {
		return nil, ErrNoTokenSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	userCtx := &UserContext{
		Subject:     claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		AuthType:    AuthTypeJWT,
	}
	for _, r := range claims.Roles {
		userCtx.Roles = append(userCtx.Roles, Role(r))
	}

	// Subjects that are not UUIDs get a stable derived id
	if uid, err := uuid.Parse(claims.Subject); err == nil {
		userCtx.UserID = uid
	} else {
		userCtx.UserID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(claims.Subject))
	}

	return userCtx, nil
}

// IssueToken signs a token for subject that expires after ttl
func (v *JWTValidator) IssueToken(subject, name string, roles []Role, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrNoTokenSecret
	}

	now := v.now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	for _, r := range roles {
		claims.Roles = append(claims.Roles, string(r))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
