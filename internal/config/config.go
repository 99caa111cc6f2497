package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	DataDir  string
	DBPath   string

	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// translation backend used when a request does not name one
	DefaultProvider string
	DefaultLanguage string
}

// Load reads configuration from a .env file when present, then from the
// environment. Missing values fall back to defaults; API keys stay empty
// and the matching backends report unconfigured at use time.
func Load() (Config, error) {
	// best effort; absence of a .env file is the normal production case
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		DataDir:         envOrDefault("DATA_DIR", defaultDataDir()),
		GeminiAPIKey:    firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		DefaultProvider: envOrDefault("TRANSLATE_PROVIDER", "gemini"),
		DefaultLanguage: envOrDefault("TARGET_LANGUAGE", "Spanish"),
	}
	cfg.DBPath = envOrDefault("DB_PATH", filepath.Join(cfg.DataDir, "subweaver.db"))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// APIKeyFor returns the configured key for a provider name, or "" when the
// provider is unknown or unconfigured. The Google web backend needs no key.
func (c Config) APIKeyFor(provider string) string {
	switch provider {
	case "gemini":
		return c.GeminiAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	}
	return ""
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".subweaver")
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
