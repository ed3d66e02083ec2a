// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port                      string `mapstructure:"PORT"`
	ManagementAPIURL          string `mapstructure:"MANAGEMENT_API_URL"`
	ManagementAPIPort         int    `mapstructure:"MANAGEMENT_API_PORT"`
	RedisURL                  string `mapstructure:"REDIS_URL"`
	DBHost                    string `mapstructure:"DB_HOST"`
	DBPort                    string `mapstructure:"DB_PORT"`
	DBUser                    string `mapstructure:"DB_USER"`
	DBPassword                string `mapstructure:"DB_PASSWORD"`
	DBName                    string `mapstructure:"DB_NAME"`
	DBSSLMode                 string `mapstructure:"DB_SSLMODE"`
	DisconnectTimerInSeconds  int    `mapstructure:"DISCONNECT_TIMER_IN_SECONDS"`
	QuestionsPerRound         int    `mapstructure:"QUESTIONS_PER_ROUND"`
	LogResponseExcludeAttrRaw string `mapstructure:"LOG_RESPONSE_EXCLUDE_ATTR"`
	Env                       string `mapstructure:"APP_ENV"`
	OTLPEndpoint              string `mapstructure:"OTLP_ENDPOINT"`
}

const envPrefix = "BANTER_BUS_CORE_API"

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	// The config file is optional; environment variables alone are enough.
	_ = viper.ReadInConfig()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MANAGEMENT_API_URL", "http://localhost")
	viper.SetDefault("MANAGEMENT_API_PORT", 0)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "banterbus")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DISCONNECT_TIMER_IN_SECONDS", 300)
	viper.SetDefault("QUESTIONS_PER_ROUND", 3)
	viper.SetDefault("LOG_RESPONSE_EXCLUDE_ATTR", "players: [avatar]")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("OTLP_ENDPOINT", "")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.ManagementAPIURL == "" {
		return errors.New("MANAGEMENT_API_URL is required")
	}
	if c.DisconnectTimerInSeconds <= 0 {
		return errors.New("DISCONNECT_TIMER_IN_SECONDS must be positive")
	}
	if c.QuestionsPerRound <= 0 {
		return errors.New("QUESTIONS_PER_ROUND must be positive")
	}
	if _, err := c.LogResponseExcludeAttr(); err != nil {
		return fmt.Errorf("LOG_RESPONSE_EXCLUDE_ATTR is not valid YAML: %w", err)
	}
	return nil
}

// ManagementURL returns the base URL of the management service, including the
// port when one is configured.
func (c *Config) ManagementURL() string {
	base := strings.TrimRight(c.ManagementAPIURL, "/")
	if c.ManagementAPIPort > 0 {
		base = fmt.Sprintf("%s:%d", base, c.ManagementAPIPort)
	}
	return base
}

// LogResponseExcludeAttr parses the configured exclusion table mapping a
// response field to the nested keys that must never reach structured logs.
func (c *Config) LogResponseExcludeAttr() (map[string][]string, error) {
	exclude := map[string][]string{}
	if c.LogResponseExcludeAttrRaw == "" {
		return exclude, nil
	}
	if err := yaml.Unmarshal([]byte(c.LogResponseExcludeAttrRaw), &exclude); err != nil {
		return nil, err
	}
	return exclude, nil
}
