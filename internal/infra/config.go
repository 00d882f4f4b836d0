package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	// SettingsFile backs the settings store when no database is configured.
	SettingsFile string

	GeminiAPIKeys  []string
	GeminiBaseURL  string
	GroqAPIKeys    []string
	GroqBaseURL    string
	MistralAPIKeys []string
	MistralBaseURL string

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
	MaxUploadBytes     int64

	ImageMaxDimension int
	ImageJPEGQuality  int
	WorkerStagger     time.Duration
	RotationCooldown  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	geminiKeys := getEnvList("GEMINI_API_KEYS")
	if len(geminiKeys) == 0 {
		geminiKeys = getEnvList("GEMINI_API_KEY")
	}

	cfg := &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		Port:         getEnv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SettingsFile: getEnv("SETTINGS_FILE", "metagen.yaml"),

		GeminiAPIKeys:  geminiKeys,
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GroqAPIKeys:    getEnvList("GROQ_API_KEYS"),
		GroqBaseURL:    getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		MistralAPIKeys: getEnvList("MISTRAL_API_KEYS"),
		MistralBaseURL: getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),

		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 64)) << 20,

		ImageMaxDimension: getEnvInt("IMAGE_MAX_DIMENSION", 800),
		ImageJPEGQuality:  getEnvInt("IMAGE_JPEG_QUALITY", 70),
		WorkerStagger:     getEnvDuration("WORKER_STAGGER_MS", 500*time.Millisecond),
		RotationCooldown:  getEnvDuration("ROTATION_COOLDOWN_MS", 2*time.Second),
	}

	if cfg.ImageJPEGQuality < 1 || cfg.ImageJPEGQuality > 100 {
		return nil, fmt.Errorf("IMAGE_JPEG_QUALITY must be between 1 and 100")
	}
	if cfg.ImageMaxDimension < 1 {
		return nil, fmt.Errorf("IMAGE_MAX_DIMENSION must be positive")
	}

	return cfg, nil
}

// EnvKeys returns the keys configured in the environment for provider id.
func (c *Config) EnvKeys(provider string) []string {
	switch provider {
	case "gemini":
		return c.GeminiAPIKeys
	case "groq":
		return c.GroqAPIKeys
	case "mistral":
		return c.MistralAPIKeys
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration reads a millisecond count.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
