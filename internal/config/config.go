package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/freelance-crm/relation-bot/internal/secrets"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	ApiKey    ApiKeyConfig
	JWT       JWTConfig
	Chat      ChatConfig
	Redmine   RedmineConfig
	Report    ReportConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

// DatabaseConfig describes the relational store.
// Driver is "postgres" (default) or "sqlite"; for sqlite only Path is used.
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	Path            string
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type ApiKeyConfig struct {
	SecretName string
	Value      string // Loaded from secrets or environment
}

// JWTConfig holds settings for HS256 bearer tokens issued to dashboard clients
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// ChatConfig holds credentials for the chat platform adapter that calls the chat bridge
type ChatConfig struct {
	BotToken      string
	SigningSecret string
	// DefaultChannel is where scheduled reports are announced, if set
	DefaultChannel string
}

// RedmineConfig holds defaults for the issue tracker client.
// Per-project URL and API key live in the database.
type RedmineConfig struct {
	// Timeout is the per-call timeout in seconds
	Timeout    int
	DefaultURL string
}

// ReportConfig controls monthly report generation and archiving
type ReportConfig struct {
	// Timezone is an IANA name used to compute month windows and timestamps
	Timezone       string
	ArchiveEnabled bool
	// ArchiveCron runs with a seconds field (robfig/cron WithSeconds)
	ArchiveCron    string
	ArchiveTimeout int
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

type SecretsConfig struct {
	// Source is "environment", "vault" or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	// Use "*" to allow all origins (not recommended for production)
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	// FrameOptions sets the X-Frame-Options header (DENY, SAMEORIGIN, or empty to disable)
	FrameOptions       string
	ContentTypeNosniff bool
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the default rate limit for unauthenticated requests (per IP)
	RequestsPerMinute int
	// RequestsPerMinuteAuth is the rate limit for authenticated requests (per principal)
	RequestsPerMinuteAuth int
	WhitelistIPs          []string
	// WhitelistPaths is a list of paths that bypass rate limiting (e.g., /health)
	WhitelistPaths []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// IsSQLite reports whether the sqlite driver is configured
func (d *DatabaseConfig) IsSQLite() bool {
	return strings.EqualFold(d.Driver, "sqlite")
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// TimeoutDuration returns the Redmine per-call timeout
func (r *RedmineConfig) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

// ArchiveTimeoutDuration returns how long a scheduled archive run may take
func (r *ReportConfig) ArchiveTimeoutDuration() time.Duration {
	return time.Duration(r.ArchiveTimeout) * time.Second
}

// Location resolves the report timezone, falling back to UTC for unknown names
func (r *ReportConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("ADMIN_API_KEY")
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = v.GetString("JWT_SECRET")
	}
	if cfg.Chat.BotToken == "" {
		cfg.Chat.BotToken = v.GetString("SLACK_BOT_TOKEN")
	}
	if cfg.Chat.SigningSecret == "" {
		cfg.Chat.SigningSecret = v.GetString("SLACK_SIGNING_SECRET")
	}
	if cfg.Chat.DefaultChannel == "" {
		cfg.Chat.DefaultChannel = v.GetString("SLACK_DEFAULT_CHANNEL")
	}
	if cfg.Redmine.DefaultURL == "" {
		cfg.Redmine.DefaultURL = v.GetString("REDMINE_URL")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	// DATABASE_URL is accepted for sqlite paths, matching the bot's original env contract
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" && strings.HasPrefix(dbURL, "sqlite://") {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = strings.TrimPrefix(dbURL, "sqlite://")
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and overlays secrets from secrets.source.
// "environment" reads env vars, "vault" reads Azure Key Vault with env var overrides,
// and "auto" uses the vault in staging/production when AZURE_KEY_VAULT_NAME is set.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.Source(cfg.Secrets.Source),
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	if err := ApplySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded",
		zap.String("source", string(provider.Source())),
		zap.String("environment", cfg.App.Environment),
	)
	return cfg, nil
}

// SecretSource is the lookup surface ApplySecrets needs from a secrets provider
type SecretSource interface {
	Lookup(ctx context.Context, s secrets.Secret) (string, error)
}

// ApplySecrets overlays secret values onto cfg. Missing secrets keep the configured value.
func ApplySecrets(ctx context.Context, cfg *Config, src SecretSource) error {
	if src == nil {
		return fmt.Errorf("secret source is required")
	}

	overlay := []struct {
		secret secrets.Secret
		target *string
	}{
		{secrets.DatabaseHost, &cfg.Database.Host},
		{secrets.DatabaseUser, &cfg.Database.User},
		{secrets.DatabasePassword, &cfg.Database.Password},
		{secrets.AdminAPIKey, &cfg.ApiKey.Value},
		{secrets.JWTSecret, &cfg.JWT.Secret},
		{secrets.ChatBotToken, &cfg.Chat.BotToken},
		{secrets.ChatSigningSecret, &cfg.Chat.SigningSecret},
		{secrets.StorageConnectionString, &cfg.Storage.CloudConnectionString},
	}

	for _, o := range overlay {
		if value, err := src.Lookup(ctx, o.secret); err == nil && value != "" {
			*o.target = value
		}
	}

	// Database name varies per environment and is never stored in the vault
	if defaultDB := os.Getenv("DEFAULT_DATABASE"); defaultDB != "" {
		cfg.Database.Name = defaultDB
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Freelance CRM Relation Bot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "freelance_crm")
	v.SetDefault("database.user", "freelance_user")
	v.SetDefault("database.password", "freelance_pass")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.path", "./freelance_crm.db")
	v.SetDefault("database.autoMigrate", false)
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	v.SetDefault("jwt.issuer", "relation-bot")

	v.SetDefault("chat.defaultChannel", "")

	v.SetDefault("redmine.timeout", 30)
	v.SetDefault("redmine.defaultUrl", "")

	v.SetDefault("report.timezone", "Asia/Tokyo")
	v.SetDefault("report.archiveEnabled", false)
	v.SetDefault("report.archiveCron", "0 0 9 1 * *") // 09:00 on the first of every month
	v.SetDefault("report.archiveTimeout", 120)

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "reports")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 60)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 120)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})
}
