package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	API         APIConfig
	ZarinPal    ZarinPalConfig
	Idempotency IdempotencyConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type APIConfig struct {
	Key string
}

type ZarinPalConfig struct {
	Merchant string
	Sandbox  bool
	Timeout  time.Duration
	// Retries applies to verify and unverified calls only.
	Retries int
	// UnverifiedSchedule is a six-field cron spec; "off" disables the sweep.
	UnverifiedSchedule string
}

type IdempotencyConfig struct {
	TTL time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("APP_PORT"),
			Env:  v.GetString("APP_ENV"),
		},
		Redis: RedisConfig{
			Addr: v.GetString("REDIS_ADDR"),
			Pass: v.GetString("REDIS_PASS"),
			DB:   v.GetInt("REDIS_DB"),
		},
		API: APIConfig{
			Key: v.GetString("API_KEY"),
		},
		ZarinPal: ZarinPalConfig{
			Merchant:           v.GetString("ZARINPAL_MERCHANT"),
			Sandbox:            v.GetBool("ZARINPAL_SANDBOX"),
			Timeout:            positiveOr(v.GetDuration("ZARINPAL_TIMEOUT"), 30*time.Second),
			Retries:            max(v.GetInt("ZARINPAL_RETRIES"), 0),
			UnverifiedSchedule: schedule(v.GetString("ZARINPAL_UNVERIFIED_SCHEDULE")),
		},
		Idempotency: IdempotencyConfig{
			TTL: positiveOr(v.GetDuration("IDEMPOTENCY_TTL"), 10*time.Minute),
		},
	}

	if cfg.ZarinPal.Merchant == "" {
		log.Println("WARNING: ZARINPAL_MERCHANT is not set")
	}
	if cfg.API.Key == "" {
		log.Println("WARNING: API_KEY is not set, /api routes will reject every request")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ZARINPAL_SANDBOX", false)
	v.SetDefault("ZARINPAL_TIMEOUT", "30s")
	v.SetDefault("ZARINPAL_RETRIES", 0)
	v.SetDefault("ZARINPAL_UNVERIFIED_SCHEDULE", "0 */10 * * * *")
	v.SetDefault("IDEMPOTENCY_TTL", "10m")
}

// positiveOr guards against unparseable values, which viper reads as 0.
func positiveOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func schedule(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "off") {
		return ""
	}
	return s
}

// IsDevelopment reports whether the service runs in development mode.
func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}
