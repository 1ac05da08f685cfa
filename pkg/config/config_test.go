package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAgent(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.ValidateAgent())

	cfg.DatabaseURL = "postgresql://localhost/picks"
	require.Error(t, cfg.ValidateAgent(), "still missing LLM key")

	cfg.XAIAPIKey = "key"
	require.Error(t, cfg.ValidateAgent(), "needs a web research path")

	cfg.BackendURL = "http://localhost:3000"
	assert.NoError(t, cfg.ValidateAgent())

	// Google search satisfies the research requirement without a backend.
	cfg.BackendURL = ""
	cfg.GoogleSearchAPIKey = "gkey"
	assert.NoError(t, cfg.ValidateAgent())
}

func TestValidateAgentSupabasePair(t *testing.T) {
	cfg := &Config{
		SupabaseURL:        "https://abc123.supabase.co",
		SupabaseServiceKey: "service-key",
		XAIAPIKey:          "key",
		BackendURL:         "http://localhost:3000",
	}
	assert.NoError(t, cfg.ValidateAgent())

	cfg.SupabaseServiceKey = ""
	assert.Error(t, cfg.ValidateAgent())
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgresql://localhost/picks"}
	require.Error(t, cfg.ValidateServer(), "models dir required")

	cfg.ModelsDir = "./models"
	assert.NoError(t, cfg.ValidateServer())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgresql://direct"}
	assert.Equal(t, "postgresql://direct", cfg.DSN())

	cfg = &Config{SupabaseURL: "https://abc123.supabase.co", SupabaseServiceKey: "sk"}
	assert.Equal(t, "postgresql://postgres:sk@db.abc123.supabase.co:5432/postgres", cfg.DSN())

	cfg = &Config{}
	assert.Empty(t, cfg.DSN())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.x.ai/v1", cfg.XAIBaseURL)
	assert.Equal(t, "grok-4-0709", cfg.LLMModel)
	assert.Equal(t, 350, cfg.MaxOdds)
	assert.Equal(t, 40, cfg.MaxInsights)
	assert.Equal(t, 8, cfg.MinInsights)
	assert.Equal(t, "0 9 * * *", cfg.PicksSchedule)
	assert.Equal(t, 5, cfg.DBMaxIdleConns)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, time.Hour, cfg.DBConnMaxLifetime)
}
