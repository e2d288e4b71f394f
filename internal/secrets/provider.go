package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Source defines where secrets are loaded from
type Source string

const (
	// SourceEnvironment reads every secret from its environment variable
	SourceEnvironment Source = "environment"
	// SourceVault reads secrets from Azure Key Vault, environment variables still override
	SourceVault Source = "vault"
	// SourceAuto uses the vault in staging and production when one is named
	SourceAuto Source = "auto"
)

var ErrNotSet = errors.New("secret not set")

// Secret is one Key Vault entry and the environment variable that overrides it
type Secret struct {
	Name string
	Env  string
}

var (
	DatabaseHost            = Secret{Name: "POSTGRES-MAIN-HOST", Env: "DATABASE_HOST"}
	DatabaseUser            = Secret{Name: "POSTGRES-MAIN-USER", Env: "DATABASE_USER"}
	DatabasePassword        = Secret{Name: "POSTGRES-MAIN-PASSWORD", Env: "DATABASE_PASSWORD"}
	AdminAPIKey             = Secret{Name: "admin-api-key", Env: "ADMIN_API_KEY"}
	JWTSecret               = Secret{Name: "jwt-secret", Env: "JWT_SECRET"}
	ChatBotToken            = Secret{Name: "slack-bot-token", Env: "SLACK_BOT_TOKEN"}
	ChatSigningSecret       = Secret{Name: "slack-signing-secret", Env: "SLACK_SIGNING_SECRET"}
	StorageConnectionString = Secret{Name: "storage-connection-string", Env: "STORAGE_CLOUDCONNECTIONSTRING"}
)

// Store fetches a secret value by its vault name
type Store interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// ResolveSource turns the configured source into a concrete one.
// An empty source is treated as auto.
func ResolveSource(source Source, environment, vaultName string) (Source, error) {
	switch source {
	case SourceEnvironment:
		return SourceEnvironment, nil
	case SourceVault:
		if vaultName == "" {
			return "", fmt.Errorf("vault name required when using vault secret source")
		}
		return SourceVault, nil
	case SourceAuto, "":
		if (environment == "staging" || environment == "production") && vaultName != "" {
			return SourceVault, nil
		}
		return SourceEnvironment, nil
	default:
		return "", fmt.Errorf("unknown secret source: %s", source)
	}
}

// Provider resolves the bot's secrets from the environment or a vault store
type Provider struct {
	source Source
	store  Store
	logger *zap.Logger
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       Source
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewProvider resolves the source and, for the vault, connects to Key Vault
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source, err := ResolveSource(cfg.Source, cfg.Environment, cfg.VaultName)
	if err != nil {
		return nil, err
	}

	provider := &Provider{source: source, logger: logger}

	if source == SourceVault {
		vault, err := NewKeyVault(cfg.VaultName, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		provider.store = vault
		if cfg.CacheEnabled {
			provider.store = Cached(vault, cfg.CacheTTL)
		}
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)

	return provider, nil
}

// NewStoreProvider returns a vault-sourced provider backed by store
func NewStoreProvider(store Store, logger *zap.Logger) *Provider {
	return &Provider{source: SourceVault, store: store, logger: logger}
}

// Source returns the resolved secret source
func (p *Provider) Source() Source {
	return p.source
}

// Lookup returns the value of s. A set environment variable always wins.
func (p *Provider) Lookup(ctx context.Context, s Secret) (string, error) {
	if value := os.Getenv(s.Env); value != "" {
		p.logger.Debug("Using environment variable for secret", zap.String("env_name", s.Env))
		return value, nil
	}

	if p.source != SourceVault {
		return "", fmt.Errorf("%w: %s", ErrNotSet, s.Env)
	}
	if p.store == nil {
		return "", fmt.Errorf("vault client not initialized")
	}
	return p.store.GetSecret(ctx, s.Name)
}
