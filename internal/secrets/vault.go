package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// KeyVault reads secrets from Azure Key Vault
type KeyVault struct {
	client *azsecrets.Client
	logger *zap.Logger
}

// NewKeyVault connects to https://<vaultName>.vault.azure.net with DefaultAzureCredential
// (environment credentials, managed identity, or the Azure CLI login)
func NewKeyVault(vaultName string, logger *zap.Logger) (*KeyVault, error) {
	if vaultName == "" {
		return nil, fmt.Errorf("vault name is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		logger.Error("Failed to create Azure credential", zap.Error(err))
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", vaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		logger.Error("Failed to create Key Vault client", zap.Error(err))
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	logger.Info("Azure Key Vault client initialized", zap.String("vault_url", vaultURL))
	return &KeyVault{client: client, logger: logger}, nil
}

// GetSecret fetches the latest version of a secret
func (v *KeyVault) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := v.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		v.logger.Error("Failed to get secret from Key Vault",
			zap.String("secret_name", name),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to get secret '%s': %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret '%s' has no value", name)
	}
	return *resp.Value, nil
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

type cachedStore struct {
	store   Store
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]cachedSecret
}

// Cached wraps store so each value is fetched at most once per ttl.
// Failed lookups are not cached.
func Cached(store Store, ttl time.Duration) Store {
	return CachedWithClock(store, ttl, time.Now)
}

// CachedWithClock is Cached with an explicit clock
func CachedWithClock(store Store, ttl time.Duration, now func() time.Time) Store {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &cachedStore{
		store:   store,
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cachedSecret),
	}
}

func (c *cachedStore) GetSecret(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if cached, ok := c.entries[name]; ok && c.now().Before(cached.expiresAt) {
		c.mu.Unlock()
		return cached.value, nil
	}
	c.mu.Unlock()

	value, err := c.store.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[name] = cachedSecret{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}
