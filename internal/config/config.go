package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultPort          = 8080
	DefaultTokenTTLHours = 24
	DefaultSMTPPort      = 587

	// Confirmation transports for Telegram login.
	ConfirmModeSigned = "signed"
	ConfirmModeBot    = "bot"

	// Session storage backends.
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	// Subscriber directory backends.
	DirectoryBackendDirectus = "directus"
	DirectoryBackendPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Directory DirectoryConfig
	Telegram  TelegramConfig
	Asterisk  AsteriskConfig
	SMTP      SMTPConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Env         string
	Host        string
	Port        int
	LogLevel    string
	CorsOrigins string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	Backend string
}

type DirectoryConfig struct {
	Backend       string
	DirectusURL   string
	DirectusToken string
}

type TelegramConfig struct {
	BotUsername   string
	BotToken      string
	WebhookSecret string
	ConfirmMode   string
}

type AsteriskConfig struct {
	APIURL       string
	Token        string
	VerifyNumber string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Env:         getEnv("APP_ENV", "development"),
			Host:        getEnv("HOST", "0.0.0.0"),
			Port:        getEnvInt("PORT", DefaultPort),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			CorsOrigins: getEnv("CORS_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			Backend: getEnv("SESSION_BACKEND", SessionBackendMemory),
		},
		Directory: DirectoryConfig{
			Backend:       getEnv("DIRECTORY_BACKEND", DirectoryBackendDirectus),
			DirectusURL:   getEnv("DIRECTUS_URL", ""),
			DirectusToken: getEnv("DIRECTUS_TOKEN", ""),
		},
		Telegram: TelegramConfig{
			BotUsername:   getEnv("TELEGRAM_BOT_USERNAME", ""),
			BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
			WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
			ConfirmMode:   getEnv("TELEGRAM_CONFIRM_MODE", ConfirmModeSigned),
		},
		Asterisk: AsteriskConfig{
			APIURL:       getEnv("ASTERISK_API_URL", ""),
			Token:        getEnv("ASTERISK_API_TOKEN", ""),
			VerifyNumber: getEnv("ASTERISK_VERIFY_NUMBER", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", DefaultSMTPPort),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		Auth: AuthConfig{
			TokenSecret: getEnv("AUTH_TOKEN_SECRET", ""),
			TokenTTL:    time.Duration(getEnvInt("AUTH_TOKEN_TTL_HOURS", DefaultTokenTTLHours)) * time.Hour,
		},
	}
}

// Validate fails fast on settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("AUTH_TOKEN_SECRET is required")
	}

	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}

	switch c.Directory.Backend {
	case DirectoryBackendDirectus:
		if c.Directory.DirectusURL == "" {
			return fmt.Errorf("DIRECTUS_URL is required when DIRECTORY_BACKEND=directus")
		}
	case DirectoryBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DIRECTORY_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown DIRECTORY_BACKEND %q", c.Directory.Backend)
	}

	switch c.Telegram.ConfirmMode {
	case ConfirmModeSigned, ConfirmModeBot:
	default:
		return fmt.Errorf("unknown TELEGRAM_CONFIRM_MODE %q", c.Telegram.ConfirmMode)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
