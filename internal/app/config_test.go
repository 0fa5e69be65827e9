package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AUTH_TOKEN_SECRET", "secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, AuthModeToken, cfg.AuthMode)
	assert.Equal(t, "reviewdesk.session", cfg.AuthCookieName)
	assert.False(t, cfg.RBACBootstrapEnabled)
	assert.Empty(t, cfg.BootstrapAllowList())
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
}

func TestLoadConfigSuperadminAllowList(t *testing.T) {
	t.Setenv("AUTH_TOKEN_SECRET", "secret")
	t.Setenv("SUPERADMIN_EMAILS", " root@example.com ,,ops@example.com")
	t.Setenv("RBAC_BOOTSTRAP_ENABLED", "true")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.BootstrapAllowList())
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]Config{
		"token mode without secret": {AuthMode: AuthModeToken, AuthCookieName: "c", RateLimitPerMinute: 1},
		"unknown mode":              {AuthMode: "oauth", AuthCookieName: "c", RateLimitPerMinute: 1},
		"bootstrap without list":    {AuthMode: AuthModeSession, AuthCookieName: "c", RateLimitPerMinute: 1, RBACBootstrapEnabled: true},
		"zero rate limit":           {AuthMode: AuthModeSession, AuthCookieName: "c"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
	ok := Config{AuthMode: AuthModeSession, AuthCookieName: "c", RateLimitPerMinute: 1}
	assert.NoError(t, ok.Validate())
}
