// Package config loads HomeChef settings from an optional .env file and the
// process environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultModel is used when GEMINI_MODEL is unset.
const DefaultModel = "gemini-1.5-flash"

// Config represents the application configuration.
type Config struct {
	GeminiAPIKey   string
	GeminiModel    string
	AIProvider     string
	LocalLLMURL    string
	LocalLLMToken  string
	DataDir        string
	DatabasePath   string
	ImageDir       string
	SeedPath       string
	Addr           string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
}

// AIEnabled reports whether generative features can be offered at all.
func (c Config) AIEnabled() bool {
	if c.AIProvider == "local" {
		return c.LocalLLMURL != ""
	}
	return c.GeminiAPIKey != ""
}

// Load reads .env (if present) and then the environment.
func Load() Config {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "")
	v.SetDefault("HOMECHEF_AI_PROVIDER", "gemini")
	v.SetDefault("HOMECHEF_LOCAL_LLM_URL", "http://localhost:1234/v1")
	v.SetDefault("HOMECHEF_LOCAL_LLM_TOKEN", "local")
	v.SetDefault("HOMECHEF_DATA_DIR", "data")
	v.SetDefault("HOMECHEF_SEED_PATH", "")
	v.SetDefault("HOMECHEF_ADDR", "127.0.0.1:8080")
	v.SetDefault("HOMECHEF_LOG_LEVEL", "info")
	v.SetDefault("HOMECHEF_LOG_FORMAT", "console")
	v.SetDefault("HOMECHEF_ALLOWED_ORIGINS", "http://localhost:8081")

	dataDir := v.GetString("HOMECHEF_DATA_DIR")
	model := strings.TrimSpace(v.GetString("GEMINI_MODEL"))
	if model == "" {
		model = DefaultModel
	}

	return Config{
		GeminiAPIKey:   strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		GeminiModel:    model,
		AIProvider:     strings.ToLower(v.GetString("HOMECHEF_AI_PROVIDER")),
		LocalLLMURL:    v.GetString("HOMECHEF_LOCAL_LLM_URL"),
		LocalLLMToken:  v.GetString("HOMECHEF_LOCAL_LLM_TOKEN"),
		DataDir:        dataDir,
		DatabasePath:   filepath.Join(dataDir, "homechef.db"),
		ImageDir:       filepath.Join(dataDir, "images"),
		SeedPath:       v.GetString("HOMECHEF_SEED_PATH"),
		Addr:           v.GetString("HOMECHEF_ADDR"),
		LogLevel:       v.GetString("HOMECHEF_LOG_LEVEL"),
		LogFormat:      v.GetString("HOMECHEF_LOG_FORMAT"),
		AllowedOrigins: splitList(v.GetString("HOMECHEF_ALLOWED_ORIGINS")),
	}
}

// EnsureDirs creates the data and image directories. Failures are ignored;
// a missing data directory surfaces later when the database is opened.
func (c Config) EnsureDirs() {
	for _, dir := range []string{c.DataDir, c.ImageDir} {
		if dir == "" {
			continue
		}
		_ = os.MkdirAll(dir, 0o755)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
