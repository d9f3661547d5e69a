package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nao-existe.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, StorageJSON, cfg.StorageDriver)
	assert.Equal(t, 365*24*time.Hour, cfg.LicenseDuration)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.False(t, cfg.StripeEnabled())
	assert.False(t, cfg.WebhookEnabled())
}

func TestLoad_EnvFileAndEnvironment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "STORAGE_DRIVER=sqlite\nSTRIPE_SECRET_KEY=sk_test_123\nSTRIPE_PRICE_ID=price_123\nSTRIPE_WEBHOOK_SECRET=whsec_123\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))
	t.Setenv("PORT", "9090")
	t.Setenv("LICENSE_DURATION", "720h")
	// godotenv não sobrescreve variáveis já definidas, então limpamos as do arquivo no fim.
	t.Cleanup(func() {
		os.Unsetenv("STORAGE_DRIVER")
		os.Unsetenv("STRIPE_SECRET_KEY")
		os.Unsetenv("STRIPE_PRICE_ID")
		os.Unsetenv("STRIPE_WEBHOOK_SECRET")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, 720*time.Hour, cfg.LicenseDuration)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.True(t, cfg.StripeEnabled())
	assert.True(t, cfg.WebhookEnabled())
}

func TestLoad_InvalidStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")

	_, err := Load(filepath.Join(t.TempDir(), "nao-existe.env"))
	assert.ErrorContains(t, err, "STORAGE_DRIVER")
}
