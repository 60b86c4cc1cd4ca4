package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"scriptstudio/internal/domain"
)

const (
	ScriptProviderGemini = "gemini"
	ScriptProviderOpenAI = "openai"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	ScriptProvider    string
	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiScriptModel string
	GeminiImageModel  string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	OpenAIOrg         string
	StyleProfilePath  string

	DefaultLocale      string
	GeoIPDBPath        string
	DefaultAspectRatio domain.AspectRatio
	ScriptTimeout      time.Duration
	ImageTimeout       time.Duration
	ImageMinInterval   time.Duration

	SessionTTL        time.Duration
	SessionCleanup    time.Duration
	MaxReferenceBytes int64
	OutputDir         string

	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		ScriptProvider:    strings.ToLower(getEnv("SCRIPT_PROVIDER", ScriptProviderGemini)),
		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		GeminiScriptModel: getEnv("GEMINI_SCRIPT_MODEL", "gemini-3-flash-preview"),
		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		OpenAIAPIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OpenAIOrg:         os.Getenv("OPENAI_ORG"),
		StyleProfilePath:  os.Getenv("STYLE_PROFILE_PATH"),
		DefaultLocale:     getEnv("DEFAULT_LOCALE", "vi"),
		GeoIPDBPath:       strings.TrimSpace(os.Getenv("GEOIP_DB_PATH")),
		ScriptTimeout:     time.Second * time.Duration(getEnvInt("SCRIPT_TIMEOUT_SECONDS", 90)),
		ImageTimeout:      time.Second * time.Duration(getEnvInt("IMAGE_TIMEOUT_SECONDS", 120)),
		ImageMinInterval:  time.Millisecond * time.Duration(getEnvInt("IMAGE_MIN_INTERVAL_MS", 0)),
		SessionTTL:        time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)),
		SessionCleanup:    time.Minute * time.Duration(getEnvInt("SESSION_CLEANUP_MINUTES", 10)),
		MaxReferenceBytes: int64(getEnvInt("REFERENCE_IMAGE_MAX_MB", 10)) << 20,
		OutputDir:         getEnv("OUTPUT_DIR", "output"),
		AllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	aspect, err := domain.ParseAspectRatio(getEnv("DEFAULT_ASPECT_RATIO", string(domain.DefaultAspectRatio)))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_ASPECT_RATIO: %w", err)
	}
	cfg.DefaultAspectRatio = aspect

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	switch cfg.ScriptProvider {
	case ScriptProviderGemini:
	case ScriptProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when SCRIPT_PROVIDER=openai")
		}
	default:
		return nil, fmt.Errorf("unsupported SCRIPT_PROVIDER %q", cfg.ScriptProvider)
	}

	return cfg, nil
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

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
