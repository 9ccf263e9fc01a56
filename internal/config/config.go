package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Environment string `toml:"environment"`

	// logging
	LogLevel    string `toml:"log_level"`
	LogsPath    string `toml:"logs_path"`
	LogToStdout bool   `toml:"log_to_stdout"`

	SentryEnabled bool `toml:"sentry_enabled"`

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// session store (sqlite file holding the strava access token)
	SessionDBPath string `toml:"session_db_path"`

	StravaBaseURL     string `toml:"strava_base_url"`
	ActivitiesPerPage int    `toml:"activities_per_page"`

	GeminiBaseURL string `toml:"gemini_base_url"`
	GeminiModel   string `toml:"gemini_model"`

	// when true, an unauthorized reply from strava clears the stored
	// session and sends the user back to the login screen; when false
	// the error screen with a manual "back to login" action is shown
	AutoLogoutOnUnauthorized bool `toml:"auto_logout_on_unauthorized"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlFile Toml
	if _, err := toml.DecodeFile(path, &tomlFile); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := tomlFile.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] is empty", env)
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StravaBaseURL == "" {
		c.StravaBaseURL = "https://www.strava.com/api/v3"
	}
	if c.GeminiBaseURL == "" {
		c.GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-2.5-flash"
	}
	if c.ActivitiesPerPage <= 0 {
		c.ActivitiesPerPage = 30
	}
	if c.SessionDBPath == "" {
		c.SessionDBPath = "stravalens-session.db"
	}
}
