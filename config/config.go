package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config is the environment surface consumed by the process. Loaded once at
// boot; godotenv has already populated os.Environ by then.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseDSN        string
	DBDriver           string
	MenuFile           string
	JWTSecret          string
	RedisAddr          string
	TurnstileSiteKey   string
	TurnstileSecretKey string
	CaptchaEnabled     bool

	OrderRateLimitMax    int
	OrderRateLimitWindow time.Duration
}

var captchaDisabledValues = map[string]bool{
	"0": true, "false": true, "off": true, "no": true,
}

func Load() Config {
	cfg := Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseDSN:        os.Getenv("DATABASE_DSN"),
		DBDriver:           getEnv("DATABASE_DRIVER", "mysql"),
		MenuFile:           getEnv("MENU_FILE", "data/menu.json"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		TurnstileSiteKey:   os.Getenv("TURNSTILE_SITE_KEY"),
		TurnstileSecretKey: os.Getenv("TURNSTILE_SECRET_KEY"),

		OrderRateLimitMax:    getEnvInt("ORDER_RATE_LIMIT_MAX", 5),
		OrderRateLimitWindow: time.Duration(getEnvInt("ORDER_RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}
	cfg.CaptchaEnabled = captchaEnabled(cfg.AppEnv)
	return cfg
}

// captchaEnabled: always on in production; elsewhere on unless explicitly
// disabled via ORDERS_CAPTCHA_ENABLED.
func captchaEnabled(appEnv string) bool {
	if appEnv == "production" {
		return true
	}
	toggle := strings.ToLower(strings.TrimSpace(os.Getenv("ORDERS_CAPTCHA_ENABLED")))
	if toggle != "" && captchaDisabledValues[toggle] {
		return false
	}
	return true
}

// InitDB opens the relational store. TranslateError is required so that the
// customer dedupe retry can recognise uniqueness conflicts across drivers.
func InitDB(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}

	switch cfg.DBDriver {
	case "sqlite":
		dsn := cfg.DatabaseDSN
		if dsn == "" {
			dsn = "pedidos.db"
		}
		return gorm.Open(sqlite.Open(dsn), gormCfg)
	default:
		return gorm.Open(mysql.Open(cfg.DatabaseDSN), gormCfg)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
