package secrets_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freelance-crm/relation-bot/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	values map[string]string
	calls  int
	err    error
}

func (f *fakeStore) GetSecret(_ context.Context, name string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.values[name]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		name        string
		source      secrets.Source
		environment string
		vaultName   string
		want        secrets.Source
		wantErr     bool
	}{
		{name: "environment", source: secrets.SourceEnvironment, environment: "production", vaultName: "kv", want: secrets.SourceEnvironment},
		{name: "vault", source: secrets.SourceVault, vaultName: "kv", want: secrets.SourceVault},
		{name: "vault without name", source: secrets.SourceVault, wantErr: true},
		{name: "auto in development", source: secrets.SourceAuto, environment: "development", vaultName: "kv", want: secrets.SourceEnvironment},
		{name: "auto in production", source: secrets.SourceAuto, environment: "production", vaultName: "kv", want: secrets.SourceVault},
		{name: "auto in staging without vault", source: secrets.SourceAuto, environment: "staging", want: secrets.SourceEnvironment},
		{name: "empty is auto", source: "", environment: "staging", vaultName: "kv", want: secrets.SourceVault},
		{name: "unknown", source: "file", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := secrets.ResolveSource(tt.source, tt.environment, tt.vaultName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProvider_EnvironmentSource(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-jwt")
	t.Setenv("SLACK_BOT_TOKEN", "")

	p, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:      secrets.SourceAuto,
		Environment: "development",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, secrets.SourceEnvironment, p.Source())

	value, err := p.Lookup(context.Background(), secrets.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "env-jwt", value)

	_, err = p.Lookup(context.Background(), secrets.ChatBotToken)
	assert.True(t, errors.Is(err, secrets.ErrNotSet))
}

func TestNewProvider_VaultWithoutName(t *testing.T) {
	_, err := secrets.NewProvider(&secrets.ProviderConfig{Source: secrets.SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestProvider_StoreLookup(t *testing.T) {
	store := &fakeStore{values: map[string]string{
		"jwt-secret":    "vault-jwt",
		"admin-api-key": "vault-key",
	}}
	p := secrets.NewStoreProvider(store, zap.NewNop())
	ctx := context.Background()

	t.Setenv("ADMIN_API_KEY", "env-key")
	t.Setenv("JWT_SECRET", "")

	value, err := p.Lookup(ctx, secrets.AdminAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "env-key", value, "environment overrides the vault")
	assert.Equal(t, 0, store.calls)

	value, err = p.Lookup(ctx, secrets.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "vault-jwt", value)

	_, err = p.Lookup(ctx, secrets.ChatSigningSecret)
	assert.Error(t, err)
}

func TestCached(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ctx := context.Background()

	t.Run("hits the store once per ttl", func(t *testing.T) {
		store := &fakeStore{values: map[string]string{"jwt-secret": "v1"}}
		cached := secrets.CachedWithClock(store, time.Minute, clock)

		for i := 0; i < 3; i++ {
			value, err := cached.GetSecret(ctx, "jwt-secret")
			require.NoError(t, err)
			assert.Equal(t, "v1", value)
		}
		assert.Equal(t, 1, store.calls)

		store.values["jwt-secret"] = "v2"
		now = now.Add(2 * time.Minute)
		value, err := cached.GetSecret(ctx, "jwt-secret")
		require.NoError(t, err)
		assert.Equal(t, "v2", value)
		assert.Equal(t, 2, store.calls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		store := &fakeStore{err: errors.New("vault unavailable")}
		cached := secrets.CachedWithClock(store, time.Minute, clock)

		_, err := cached.GetSecret(ctx, "jwt-secret")
		assert.Error(t, err)
		_, err = cached.GetSecret(ctx, "jwt-secret")
		assert.Error(t, err)
		assert.Equal(t, 2, store.calls)
	})
}
