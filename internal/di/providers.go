package di

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/wire"
	_ "github.com/lib/pq"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"

	"github.com/pg19/portal-auth/internal/auth"
	"github.com/pg19/portal-auth/internal/config"
	"github.com/pg19/portal-auth/internal/directory"
	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/handler"
	"github.com/pg19/portal-auth/internal/middleware"
	"github.com/pg19/portal-auth/internal/notify"
	"github.com/pg19/portal-auth/internal/repository"
	"github.com/pg19/portal-auth/internal/server"
	"github.com/pg19/portal-auth/internal/session"
	"github.com/pg19/portal-auth/internal/telegram"
	"github.com/pg19/portal-auth/internal/token"
)

var ConfigSet = wire.NewSet(
	config.Load,
)

var LoggerSet = wire.NewSet(
	ProvideLogger,
)

var InfraSet = wire.NewSet(
	ProvideDatabase,
	ProvideStore,
	ProvideDirectory,
	ProvideAuthEventRepository,
)

var NotifySet = wire.NewSet(
	ProvideMailer,
	ProvideCallDetector,
	ProvideMessenger,
)

var AuthSet = wire.NewSet(
	ProvideIssuer,
	ProvidePhoneVerifier,
	ProvideEmailVerifier,
	ProvideTelegramVerifier,
	ProvideContractVerifier,
	middleware.NewAuthMiddleware,
)

var HandlerSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideRecorder,
	ProvidePhoneHandler,
	ProvideEmailHandler,
	ProvideTelegramHandler,
	ProvideContractHandler,
	handler.NewMeHandler,
)

var ServerSet = wire.NewSet(
	ProvideServerConfig,
	server.New,
	ProvideSweeper,
)

var AppSet = wire.NewSet(
	ConfigSet,
	LoggerSet,
	InfraSet,
	NotifySet,
	AuthSet,
	HandlerSet,
	ServerSet,
	wire.Struct(new(Application), "*"),
)

const Version = "0.1.0"

type Application struct {
	Config          *config.Config
	Logger          *slog.Logger
	DB              *sql.DB
	Store           *session.Store
	Sweeper         *session.Sweeper
	Server          *server.Server
	AuthMiddleware  *middleware.AuthMiddleware
	HealthHandler   *handler.HealthHandler
	PhoneHandler    *handler.PhoneHandler
	EmailHandler    *handler.EmailHandler
	TelegramHandler *handler.TelegramHandler
	ContractHandler *handler.ContractHandler
	MeHandler       *handler.MeHandler
}

func ProvideLogger(cfg *config.Config) *slog.Logger {
	var logLevel slog.Level
	switch cfg.Server.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var h slog.Handler
	if cfg.IsDevelopment() {
		h = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.Kitchen,
		})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	}
	return slog.New(h)
}

// ProvideDatabase opens the audit database. An empty DATABASE_URL disables it;
// Config.Validate has already rejected that when the directory backend needs it.
func ProvideDatabase(cfg *config.Config) (*sql.DB, func(), error) {
	if cfg.Database.URL == "" {
		return nil, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup, nil
}

func ProvideStore(cfg *config.Config) (*session.Store, func(), error) {
	if cfg.Session.Backend == config.SessionBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}

		cleanup := func() {
			client.Close()
		}
		return session.NewRedisStore(client), cleanup, nil
	}

	return session.NewMemoryStore(), func() {}, nil
}

func ProvideDirectory(cfg *config.Config, db *sql.DB, logger *slog.Logger) (domain.Directory, error) {
	switch cfg.Directory.Backend {
	case config.DirectoryBackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres directory backend requires DATABASE_URL")
		}
		return directory.NewPostgres(db), nil
	default:
		return directory.NewDirectusClient(cfg.Directory.DirectusURL, cfg.Directory.DirectusToken, logger), nil
	}
}

func ProvideAuthEventRepository(db *sql.DB) domain.AuthEventRepository {
	if db == nil {
		return nil
	}
	return repository.NewPostgresAuthEventRepository(db)
}

func ProvideMailer(cfg *config.Config, logger *slog.Logger) domain.Mailer {
	smtp := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	})
	return notify.NewFallbackMailer(logger, smtp)
}

func ProvideCallDetector(cfg *config.Config) domain.CallDetector {
	return notify.NewAsteriskCallDetector(cfg.Asterisk.APIURL, cfg.Asterisk.Token, cfg.Asterisk.VerifyNumber)
}

func ProvideMessenger(cfg *config.Config) domain.Messenger {
	return telegram.NewClient(cfg.Telegram.BotToken)
}

func ProvideIssuer(cfg *config.Config) *token.Issuer {
	return token.NewIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
}

func ProvidePhoneVerifier(store *session.Store, dir domain.Directory, calls domain.CallDetector, cfg *config.Config, logger *slog.Logger) *auth.PhoneVerifier {
	return auth.NewPhoneVerifier(auth.PhoneVerifierConfig{
		Store:        store,
		Directory:    dir,
		Calls:        calls,
		Logger:       logger,
		VerifyNumber: cfg.Asterisk.VerifyNumber,
	})
}

func ProvideEmailVerifier(store *session.Store, dir domain.Directory, mailer domain.Mailer, logger *slog.Logger) *auth.EmailVerifier {
	return auth.NewEmailVerifier(auth.EmailVerifierConfig{
		Store:     store,
		Directory: dir,
		Mailer:    mailer,
		Logger:    logger,
	})
}

func ProvideTelegramVerifier(store *session.Store, dir domain.Directory, messenger domain.Messenger, cfg *config.Config, logger *slog.Logger) *auth.TelegramVerifier {
	return auth.NewTelegramVerifier(auth.TelegramVerifierConfig{
		Store:         store,
		Directory:     dir,
		Messenger:     messenger,
		Logger:        logger,
		BotUsername:   cfg.Telegram.BotUsername,
		BotToken:      cfg.Telegram.BotToken,
		WebhookSecret: cfg.Telegram.WebhookSecret,
	})
}

func ProvideContractVerifier(dir domain.Directory, logger *slog.Logger) *auth.ContractVerifier {
	return auth.NewContractVerifier(dir, logger)
}

func ProvideHealthHandler() *handler.HealthHandler {
	return handler.NewHealthHandler(Version)
}

func ProvideRecorder(repo domain.AuthEventRepository, logger *slog.Logger) *handler.EventRecorder {
	return handler.NewEventRecorder(repo, logger)
}

func ProvidePhoneHandler(verifier *auth.PhoneVerifier, issuer *token.Issuer, recorder *handler.EventRecorder, logger *slog.Logger) *handler.PhoneHandler {
	return handler.NewPhoneHandler(handler.PhoneHandlerConfig{
		Verifier: verifier,
		Issuer:   issuer,
		Recorder: recorder,
		Logger:   logger,
	})
}

func ProvideEmailHandler(verifier *auth.EmailVerifier, issuer *token.Issuer, recorder *handler.EventRecorder, logger *slog.Logger) *handler.EmailHandler {
	return handler.NewEmailHandler(handler.EmailHandlerConfig{
		Verifier: verifier,
		Issuer:   issuer,
		Recorder: recorder,
		Logger:   logger,
	})
}

func ProvideTelegramHandler(verifier *auth.TelegramVerifier, issuer *token.Issuer, recorder *handler.EventRecorder, cfg *config.Config, logger *slog.Logger) *handler.TelegramHandler {
	return handler.NewTelegramHandler(handler.TelegramHandlerConfig{
		Verifier:    verifier,
		Issuer:      issuer,
		Recorder:    recorder,
		Logger:      logger,
		ConfirmMode: cfg.Telegram.ConfirmMode,
	})
}

func ProvideContractHandler(verifier *auth.ContractVerifier, issuer *token.Issuer, recorder *handler.EventRecorder, logger *slog.Logger) *handler.ContractHandler {
	return handler.NewContractHandler(handler.ContractHandlerConfig{
		Verifier: verifier,
		Issuer:   issuer,
		Recorder: recorder,
		Logger:   logger,
	})
}

func ProvideSweeper(store *session.Store, logger *slog.Logger) *session.Sweeper {
	return session.NewSweeper(store, 0, logger)
}

func ProvideServerConfig(cfg *config.Config) server.Config {
	return server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		CorsOrigins:  cfg.Server.CorsOrigins,
	}
}
