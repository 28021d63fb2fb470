package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	ProviderGemini = "gemini"
	ProviderKIE    = "kie"
)

// Config aggregates runtime configuration for the studio API and supporting services.
type Config struct {
	ListenAddr          string
	LogLevel            string
	MySQLDSN            string
	JWTSecret           string
	JWTTTL              time.Duration
	TransformerProvider string
	GeminiAPIKey        string
	GeminiModel         string
	KIEAPIKey           string
	KIEBaseURL          string
	KIEPollInterval     time.Duration
	RequestTimeout      time.Duration
	GenerateRatePerMin  int
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	SettingsCacheTTL    time.Duration
	TelegramBotToken    string
	TelegramAdminChatID int64
	AdminEmail          string
	AdminPassword       string
	AdminPIN            string
	DefaultCost         decimal.Decimal
	DefaultWelcomeBonus decimal.Decimal
	S3Endpoint          string
	S3Region            string
	S3AccessKey         string
	S3SecretKey         string
	S3Bucket            string
	S3PublicBaseURL     string
	S3UsePathStyle      bool
	S3Prefix            string
}

// StorageEnabled reports whether every S3 field needed by the uploader is set.
func (c Config) StorageEnabled() bool {
	return c.S3Region != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3Bucket != "" && c.S3PublicBaseURL != ""
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	const defaultKIEBaseURL = "https://api.kie.ai"

	cfg := Config{
		ListenAddr:          getEnv("HTTP_LISTEN_ADDR", ":8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		JWTTTL:              time.Hour * time.Duration(getInt("JWT_TTL_HOURS", 72)),
		TransformerProvider: strings.ToLower(getEnv("TRANSFORMER_PROVIDER", ProviderGemini)),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		KIEBaseURL:          normalizeKIEBaseURL(getEnv("KIE_BASE_URL", defaultKIEBaseURL), defaultKIEBaseURL),
		KIEPollInterval:     time.Second * time.Duration(getInt("KIE_POLL_INTERVAL_SECONDS", 2)),
		RequestTimeout:      time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 120)),
		GenerateRatePerMin:  getInt("GENERATE_RATE_PER_MINUTE", 6),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getInt("REDIS_DB", 0),
		SettingsCacheTTL:    time.Second * time.Duration(getInt("SETTINGS_CACHE_TTL_SECONDS", 300)),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAdminChatID: getInt64("TELEGRAM_ADMIN_CHAT_ID", 0),
		AdminEmail:          strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),
		AdminPIN:            getEnv("ADMIN_PIN", "1234"),
		DefaultCost:         getDecimal("DEFAULT_GENERATION_COST", decimal.NewFromInt(20)),
		DefaultWelcomeBonus: getDecimal("DEFAULT_WELCOME_BONUS", decimal.NewFromInt(10)),
		S3Endpoint:          getEnv("S3_ENDPOINT", ""),
		S3Region:            os.Getenv("S3_REGION"),
		S3AccessKey:         os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:         os.Getenv("S3_SECRET_KEY"),
		S3Bucket:            os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:     os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:      getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:            getEnv("S3_PREFIX", "studio"),
	}

	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.KIEAPIKey = os.Getenv("KIE_API_KEY")

	var missing []string
	if cfg.MySQLDSN == "" {
		missing = append(missing, "MYSQL_DSN")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	switch cfg.TransformerProvider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case ProviderKIE:
		if cfg.KIEAPIKey == "" {
			missing = append(missing, "KIE_API_KEY")
		}
		// kie fetches the source portrait by URL, so it has to be uploaded first.
		if cfg.S3Region == "" {
			missing = append(missing, "S3_REGION")
		}
		if cfg.S3AccessKey == "" {
			missing = append(missing, "S3_ACCESS_KEY")
		}
		if cfg.S3SecretKey == "" {
			missing = append(missing, "S3_SECRET_KEY")
		}
		if cfg.S3Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
		if cfg.S3PublicBaseURL == "" {
			missing = append(missing, "S3_PUBLIC_BASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("unsupported TRANSFORMER_PROVIDER %q", cfg.TransformerProvider)
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

// normalizeKIEBaseURL ensures we always hit the documented API host. The root kie.ai domain
// serves HTML instead of JSON.
func normalizeKIEBaseURL(raw string, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fallback
	}

	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	if parsed.Host == "" {
		parsed.Host = parsed.Path
		parsed.Path = ""
	}

	if parsed.Host == "kie.ai" {
		parsed.Host = "api.kie.ai"
	}

	return parsed.String()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil || d.IsNegative() {
		return fallback
	}
	return d
}

// loadEnvFile loads the first env file found. Running without one is fine; the
// process environment is used as is.
func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	return nil
}
