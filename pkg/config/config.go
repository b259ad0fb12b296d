// Package config loads process configuration from defaults, an optional
// YAML file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Mail     MailConfig     `mapstructure:"mail"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Address         string        `mapstructure:"address"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

type EngineConfig struct {
	NodeTimeout   time.Duration `mapstructure:"node_timeout"`
	SuccessPolicy string        `mapstructure:"success_policy"`
}

type MailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type SessionConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	Issuer     string `mapstructure:"issuer"`
	CookieName string `mapstructure:"cookie_name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration. An empty path searches for automation.yaml
// in the usual locations; a missing file is not an error in that case.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Keys whose environment names do not follow the section_key pattern.
	envMappings := map[string]string{
		"http.allowed_origins":  "ALLOWED_ORIGINS",
		"engine.node_timeout":   "NODE_TIMEOUT",
		"engine.success_policy": "SUCCESS_POLICY",
	}
	for key, env := range envMappings {
		if err := v.BindEnv(key, env); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", env, key)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("automation")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.automation")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Debug().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3003"})
	v.SetDefault("http.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_idle_conns", 0)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.query_timeout", 10*time.Second)

	v.SetDefault("engine.node_timeout", 20*time.Second)
	v.SetDefault("engine.success_policy", "any")

	v.SetDefault("mail.resend_api_key", "")
	v.SetDefault("mail.from", "")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "")
	v.SetDefault("openai.base_url", "")

	v.SetDefault("session.jwt_secret", "")
	v.SetDefault("session.issuer", "")
	v.SetDefault("session.cookie_name", "session_token")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string

	switch c.Engine.SuccessPolicy {
	case "", "any", "all":
	default:
		problems = append(problems, fmt.Sprintf("engine.success_policy must be any or all, got %q", c.Engine.SuccessPolicy))
	}
	if c.Engine.NodeTimeout < 0 {
		problems = append(problems, "engine.node_timeout must not be negative")
	}
	if c.Database.QueryTimeout < 0 {
		problems = append(problems, "database.query_timeout must not be negative")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be console or json, got %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
