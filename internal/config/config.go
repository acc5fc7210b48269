// Package config loads process configuration from configs/.env and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string
	GinMode string

	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Payment  PaymentConfig
	AWS      AWSConfig
	Letters  LetterConfig
	Limits   RateLimitConfig

	CORSOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the postgres connection URL.
func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether a redis address was configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type PaymentConfig struct {
	DefaultAmount decimal.Decimal
	UPIID         string
	PayeeName     string
}

type AWSConfig struct {
	Region     string
	SESEnabled bool
	SESSender  string
}

type LetterConfig struct {
	Bucket   string
	LocalDir string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

const devJWTSecret = "default_super_secret_key"

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TRACKING_CACHE_TTL", "5m")
	v.SetDefault("PAYMENT_DEFAULT_AMOUNT", "25000")
	v.SetDefault("PAYMENT_UPI_ID", "campabeverages@upi")
	v.SetDefault("PAYMENT_PAYEE_NAME", "Campa Beverages")
	v.SetDefault("AWS_REGION", "ap-south-1")
	v.SetDefault("SES_ENABLED", false)
	v.SetDefault("LETTER_LOCAL_DIR", "letters")
	v.SetDefault("RATE_LIMIT_RPS", 2)
	v.SetDefault("RATE_LIMIT_BURST", 10)
}

// Load reads configs/.env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	amount, err := decimal.NewFromString(v.GetString("PAYMENT_DEFAULT_AMOUNT"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_DEFAULT_AMOUNT: %w", err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("PAYMENT_DEFAULT_AMOUNT must be greater than zero")
	}

	cfg := &Config{
		Port:    v.GetString("PORT"),
		GinMode: v.GetString("GIN_MODE"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			TokenTTL:      v.GetDuration("JWT_TTL"),
			AdminEmail:    v.GetString("ADMIN_EMAIL"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("TRACKING_CACHE_TTL"),
		},
		Payment: PaymentConfig{
			DefaultAmount: amount,
			UPIID:         v.GetString("PAYMENT_UPI_ID"),
			PayeeName:     v.GetString("PAYMENT_PAYEE_NAME"),
		},
		AWS: AWSConfig{
			Region:     v.GetString("AWS_REGION"),
			SESEnabled: v.GetBool("SES_ENABLED"),
			SESSender:  v.GetString("SES_SENDER"),
		},
		Letters: LetterConfig{
			Bucket:   v.GetString("LETTER_BUCKET"),
			LocalDir: v.GetString("LETTER_LOCAL_DIR"),
		},
		Limits: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	for _, origin := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		cfg.Auth.JWTSecret = devJWTSecret
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.AWS.SESEnabled && cfg.AWS.SESSender == "" {
		return nil, fmt.Errorf("SES_SENDER is required when SES_ENABLED is set")
	}
	if (cfg.Auth.AdminEmail == "") != (cfg.Auth.AdminPassword == "") {
		return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}
