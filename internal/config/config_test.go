package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("IDVIEW_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.HTTPAddress())
	require.Equal(t, "secret", cfg.JWTRefreshSecret)
	require.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 15*time.Minute, cfg.AccountLockout)
	require.Equal(t, 30*time.Minute, cfg.AddressLockout)
	require.Equal(t, 5, cfg.LoginMaxAttempts)
	require.Equal(t, "console", cfg.MailProvider)
	require.Equal(t, "ADM001", cfg.BootstrapAdminReg)
	require.Empty(t, cfg.BootstrapAdminPassword)
}

func TestLoadRequiresSecretAndSendGridKey(t *testing.T) {
	t.Setenv("IDVIEW_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("IDVIEW_JWT_SECRET", "secret")
	t.Setenv("IDVIEW_MAIL_PROVIDER", "sendgrid")
	_, err = Load()
	require.ErrorContains(t, err, "sendgrid")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("IDVIEW_JWT_SECRET", "secret")
	t.Setenv("IDVIEW_JWT_ACCESS_TTL", "soon")
	_, err := Load()
	require.ErrorContains(t, err, "jwt.access_ttl")
}
