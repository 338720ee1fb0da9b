package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DeepSeekAPIKey  string

	LogLevel string
	LogMode  string

	ProviderTimeout time.Duration
	Temperature     float64
	MaxTokens       int

	ClassifierCacheSize int
	ThrottleRPS         float64
	ThrottleBurst       int

	Policy    *PolicyConfig
	ConfigDir string
}

// Load reads configuration from the config file (if present), environment
// variables, and built-in defaults. TAXPILOT_-prefixed variables override
// the file; the conventional provider key variables (ANTHROPIC_API_KEY and
// friends) are honored when the prefixed forms are unset.
func Load() (*Config, error) {
	return load("")
}

// LoadWithPolicyFile loads configuration using an explicit policy file
// instead of the one in the config directory.
func LoadWithPolicyFile(policyPath string) (*Config, error) {
	return load(policyPath)
}

func load(policyPath string) (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("taxpilot")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")
	v.SetEnvPrefix("taxpilot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		AnthropicAPIKey: keyOrEnv(v, "anthropic.api_key", "ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    keyOrEnv(v, "openai.api_key", "OPENAI_API_KEY"),
		GoogleAPIKey:    keyOrEnv(v, "google.api_key", "GOOGLE_API_KEY"),
		DeepSeekAPIKey:  keyOrEnv(v, "deepseek.api_key", "DEEPSEEK_API_KEY"),

		LogLevel: v.GetString("log.level"),
		LogMode:  v.GetString("log.mode"),

		ProviderTimeout: v.GetDuration("provider.timeout"),
		Temperature:     v.GetFloat64("provider.temperature"),
		MaxTokens:       v.GetInt("provider.max_tokens"),

		ClassifierCacheSize: v.GetInt("classifier.cache_size"),
		ThrottleRPS:         v.GetFloat64("throttle.rps"),
		ThrottleBurst:       v.GetInt("throttle.burst"),

		ConfigDir: configDir,
	}

	if policyPath == "" {
		candidate := filepath.Join(configDir, "policy.yaml")
		if _, err := os.Stat(candidate); err == nil {
			policyPath = candidate
		}
	}
	if policyPath != "" {
		policy, err := LoadPolicyConfig(policyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load policy config from %s: %w", policyPath, err)
		}
		cfg.Policy = policy
	} else {
		cfg.Policy = DefaultPolicyConfig()
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.mode", "production")
	v.SetDefault("provider.timeout", 60*time.Second)
	v.SetDefault("provider.temperature", 0.2)
	v.SetDefault("provider.max_tokens", 4096)
	v.SetDefault("classifier.cache_size", 256)
	v.SetDefault("throttle.rps", 0.0)
	v.SetDefault("throttle.burst", 1)
}

// keyOrEnv prefers the viper key (file or TAXPILOT_ env) and falls back to
// the conventional environment variable.
func keyOrEnv(v *viper.Viper, key, envVar string) string {
	if val := v.GetString(key); val != "" {
		return val
	}
	return os.Getenv(envVar)
}

// HasProvider returns true if the API key for the given provider is
// configured.
func (c *Config) HasProvider(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	default:
		return false
	}
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".taxpilot")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
