package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(1), cfg.NodeID)
	require.Equal(t, 5, cfg.Provisioning.SlugAttempts)
	require.Equal(t, "sha256", cfg.Provisioning.PasswordHash)
	require.Equal(t, 5, cfg.Billing.GraceDays)
	require.Equal(t, 30, cfg.Billing.PeriodDays)
	require.Equal(t, "http://localhost:5173", cfg.TenantURLs.StoreBaseURL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROVISIONING_PASSWORD_HASH", "argon2id")
	t.Setenv("BILLING_GRACE_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "argon2id", cfg.Provisioning.PasswordHash)
	require.Equal(t, 7, cfg.Billing.GraceDays)
}
