package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string  `mapstructure:"env"`              // current application environment (local, dev, prod etc)
	TelegramAPIToken string  `mapstructure:"-"`                // Telegram API token loaded from environment
	RequiredChannel  string  `mapstructure:"required_channel"` // channel users must join before taking quizzes
	Admins           []int64 `mapstructure:"-"`                // Telegram ids allowed to manage content
	DB               DB      `mapstructure:"database"`         // database configuration section
	Grader           Grader  `mapstructure:"grader"`           // AI grading configuration section
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// Grader contains AI grading configuration parameters.
type Grader struct {
	APIKey  string        `mapstructure:"-"`        // OpenAI API key loaded from environment
	Model   string        `mapstructure:"model"`    // chat model used for scoring open answers
	BaseURL string        `mapstructure:"base_url"` // optional OpenAI-compatible endpoint
	Timeout time.Duration `mapstructure:"timeout"`  // per-call grading timeout
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Pick up a local .env file when present; real environments set
	// variables directly.
	_ = godotenv.Load()

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("required_channel", "")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("grader.model", "gpt-4o-mini")
	v.SetDefault("grader.timeout", "30s")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("admins", "ADMINS")
	_ = v.BindEnv("required_channel", "REQUIRED_CHANNEL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.Grader.APIKey = v.GetString("openai_api_key")
	if cfg.Grader.APIKey == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	admins, err := parseAdmins(v.GetString("admins"))
	if err != nil {
		return nil, err
	}
	cfg.Admins = admins

	return &cfg, nil
}

// parseAdmins splits a comma-separated id list, ignoring blanks.
func parseAdmins(raw string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", part, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// IsAdmin reports whether the user id is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}
