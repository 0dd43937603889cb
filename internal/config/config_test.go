package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_URL", "postgres://localhost/battler")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
}

func TestLoadFailsWithoutRequiredURLs(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
}

func TestLoadFailsWithOnlyOneRequiredURL(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/battler")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "development", cfg.Env)
	require.Equal(t, 60*time.Second, cfg.TurnTimeout)
	require.Equal(t, "battler", cfg.Realm)
	require.False(t, cfg.UsePRNGSeed)
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("TURN_TIMEOUT", "15s")
	t.Setenv("PRNG_SEED", "42")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "production", cfg.Env)
	require.Equal(t, 15*time.Second, cfg.TurnTimeout)
	require.True(t, cfg.UsePRNGSeed)
	require.EqualValues(t, 42, cfg.PRNGSeed)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRejectsInvalidPRNGSeed(t *testing.T) {
	setRequired(t)
	t.Setenv("PRNG_SEED", "not-a-number")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadIgnoresInvalidIntAndFallsBackToDefault(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "not-a-number")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
}
