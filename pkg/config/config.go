package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Supabase (used to derive a Postgres DSN when DATABASE_URL is unset)
	SupabaseURL        string `mapstructure:"SUPABASE_URL"`
	SupabaseServiceKey string `mapstructure:"SUPABASE_SERVICE_ROLE_KEY"`

	// Connection pool
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`

	// Redis
	RedisURL string `mapstructure:"REDIS_URL"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// LLM (Grok / OpenAI-compatible)
	XAIAPIKey     string  `mapstructure:"XAI_API_KEY"`
	XAIBaseURL    string  `mapstructure:"XAI_BASE_URL"`
	LLMModel      string  `mapstructure:"LLM_MODEL"`
	LLMTemp       float64 `mapstructure:"LLM_TEMPERATURE"`
	LLMCacheTTL   int     `mapstructure:"LLM_CACHE_EXPIRATION"`
	LLMRateLimit  int     `mapstructure:"LLM_RATE_LIMIT"`

	// Research services
	BackendURL           string `mapstructure:"BACKEND_URL"`
	StatMuseURL          string `mapstructure:"STATMUSE_URL"`
	GoogleSearchAPIKey   string `mapstructure:"GOOGLE_SEARCH_API_KEY"`
	GoogleSearchEngineID string `mapstructure:"GOOGLE_SEARCH_ENGINE_ID"`
	ScrapedDataDir       string `mapstructure:"SCRAPED_DATA_DIR"`
	ScrapedMaxAgeHours   int    `mapstructure:"SCRAPED_MAX_AGE_HOURS"`
	StatMuseQueryDelay   time.Duration `mapstructure:"STATMUSE_QUERY_DELAY"`

	// Pick policy
	MaxOdds           int `mapstructure:"MAX_ODDS"`
	MaxInsights       int `mapstructure:"MAX_INSIGHTS"`
	MinInsights       int `mapstructure:"MIN_INSIGHTS"`
	StatsQueryCap     int `mapstructure:"STATS_QUERY_CAP"`
	WebQueryCap       int `mapstructure:"WEB_QUERY_CAP"`
	AdaptiveQueryCap  int `mapstructure:"ADAPTIVE_QUERY_CAP"`

	// ML serving
	ModelsDir       string `mapstructure:"MODELS_DIR"`
	StatsGameWindow int    `mapstructure:"STATS_GAME_WINDOW"`

	// Scheduler
	PicksSchedule string `mapstructure:"PICKS_SCHEDULE"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	viper.SetDefault("PORT", "8001")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("SUPABASE_URL", "")
	viper.SetDefault("SUPABASE_SERVICE_ROLE_KEY", "")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")

	viper.SetDefault("XAI_API_KEY", "")
	viper.SetDefault("XAI_BASE_URL", "https://api.x.ai/v1")
	viper.SetDefault("LLM_MODEL", "grok-4-0709")
	viper.SetDefault("LLM_TEMPERATURE", 0.2)
	viper.SetDefault("LLM_CACHE_EXPIRATION", 900) // seconds
	viper.SetDefault("LLM_RATE_LIMIT", 10)        // requests per minute

	viper.SetDefault("BACKEND_URL", "")
	viper.SetDefault("STATMUSE_URL", "http://127.0.0.1:5001")
	viper.SetDefault("GOOGLE_SEARCH_API_KEY", "")
	viper.SetDefault("GOOGLE_SEARCH_ENGINE_ID", "")
	viper.SetDefault("SCRAPED_DATA_DIR", "./scraped_data")
	viper.SetDefault("SCRAPED_MAX_AGE_HOURS", 24)
	viper.SetDefault("STATMUSE_QUERY_DELAY", "1500ms")

	viper.SetDefault("MAX_ODDS", 350)
	viper.SetDefault("MAX_INSIGHTS", 40)
	viper.SetDefault("MIN_INSIGHTS", 8)
	viper.SetDefault("STATS_QUERY_CAP", 8)
	viper.SetDefault("WEB_QUERY_CAP", 3)
	viper.SetDefault("ADAPTIVE_QUERY_CAP", 6)

	viper.SetDefault("MODELS_DIR", "./models")
	viper.SetDefault("STATS_GAME_WINDOW", 10)

	viper.SetDefault("PICKS_SCHEDULE", "0 9 * * *") // daily, 9 AM

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if corsStr := viper.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	return &config, nil
}

// ValidateAgent checks the variables the picks pipeline cannot run without.
// Missing required configuration is fatal at startup, never retried.
func (c *Config) ValidateAgent() error {
	if c.DatabaseURL == "" && (c.SupabaseURL == "" || c.SupabaseServiceKey == "") {
		return fmt.Errorf("DATABASE_URL or SUPABASE_URL + SUPABASE_SERVICE_ROLE_KEY must be set")
	}
	if c.XAIAPIKey == "" {
		return fmt.Errorf("XAI_API_KEY must be set")
	}
	if c.BackendURL == "" && c.GoogleSearchAPIKey == "" {
		return fmt.Errorf("BACKEND_URL must be set when no GOOGLE_SEARCH_API_KEY is configured")
	}
	return nil
}

// ValidateServer checks the variables the ML prediction server requires.
func (c *Config) ValidateServer() error {
	if c.DatabaseURL == "" && (c.SupabaseURL == "" || c.SupabaseServiceKey == "") {
		return fmt.Errorf("DATABASE_URL or SUPABASE_URL + SUPABASE_SERVICE_ROLE_KEY must be set")
	}
	if c.ModelsDir == "" {
		return fmt.Errorf("MODELS_DIR must be set")
	}
	return nil
}

// DSN returns the Postgres connection string, deriving one from the
// Supabase project when DATABASE_URL is unset.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
		return ""
	}
	host := strings.TrimPrefix(c.SupabaseURL, "https://")
	host = strings.TrimPrefix(host, "http://")
	ref := strings.SplitN(host, ".", 2)[0]
	return fmt.Sprintf("postgresql://postgres:%s@db.%s.supabase.co:5432/postgres", c.SupabaseServiceKey, ref)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
