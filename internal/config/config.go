package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                  string   `mapstructure:"PORT"`
	Env                   string   `mapstructure:"ENV"`
	DatabaseURL           string   `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret             string   `mapstructure:"JWT_SECRET"`
	CORSOrigins           []string `mapstructure:"CORS_ORIGINS"`
	RequestTimeoutSeconds int      `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("REQUEST_TIMEOUT_SECONDS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when ENV=production")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
