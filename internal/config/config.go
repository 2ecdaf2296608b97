package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	ServerAddr      string        `mapstructure:"server_addr"`
	TLSEnabled      bool          `mapstructure:"tls_enabled"`
	TLSCert         string        `mapstructure:"tls_cert"`
	TLSKey          string        `mapstructure:"tls_key"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogLevel        string        `mapstructure:"log_level"`

	// Auth
	DatabaseURL    string  `mapstructure:"database_url"`
	TokenKey       string  `mapstructure:"token_key"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	// Solver
	SolverMaxIter   int     `mapstructure:"solver_max_iter"`
	SolverTolerance float64 `mapstructure:"solver_tolerance"`
	SpecificWeight  float64 `mapstructure:"specific_weight"`
	BatchMaxItems   int     `mapstructure:"batch_max_items"`
	BatchWorkers    int     `mapstructure:"batch_workers"`
}

var keys = []string{
	"server_addr", "tls_enabled", "tls_cert", "tls_key", "shutdown_timeout", "log_level",
	"database_url", "token_key", "rate_limit_rps", "rate_limit_burst",
	"solver_max_iter", "solver_tolerance", "specific_weight", "batch_max_items", "batch_workers",
}

// Load reads .env (if present), then config.yaml (if present), then the
// environment. TOKEN_KEY is required.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetDefault("server_addr", ":443")
	v.SetDefault("tls_enabled", true)
	v.SetDefault("tls_cert", "server.crt")
	v.SetDefault("tls_key", "server.key")
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("database_url", "user=postgres dbname=postgres password=password sslmode=disable")
	v.SetDefault("token_key", "")
	v.SetDefault("rate_limit_rps", 1.0)
	v.SetDefault("rate_limit_burst", 3)
	v.SetDefault("solver_max_iter", 100)
	v.SetDefault("solver_tolerance", 1e-6)
	v.SetDefault("specific_weight", 9000.0)
	v.SetDefault("batch_max_items", 500)
	v.SetDefault("batch_workers", 4)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if cfg.TokenKey == "" {
		return nil, errors.New("TOKEN_KEY environment variable is not set")
	}
	if cfg.BatchWorkers < 1 {
		cfg.BatchWorkers = 1
	}
	return &cfg, nil
}
