package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pg19/portal-auth/internal/database"
	"github.com/pg19/portal-auth/internal/di"
	"github.com/pg19/portal-auth/internal/server"
)

func main() {
	_ = godotenv.Load()

	app, cleanup, err := di.InitializeApplication()
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Config.Validate(); err != nil {
		app.Logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	app.Logger.Info("Starting PG19 Portal Auth", "version", di.Version, "env", app.Config.Server.Env)

	if app.DB != nil {
		migrationsPath := getMigrationsPath()
		if err := database.RunMigrations(app.DB, migrationsPath, app.Logger); err != nil {
			app.Logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.Sweeper.Start(ctx)

	fiberApp := app.Server.App()
	app.HealthHandler.Register(fiberApp)

	authGroup := fiberApp.Group("/auth", server.AuthRateLimiter())
	app.PhoneHandler.Register(authGroup)
	app.EmailHandler.Register(authGroup)
	app.TelegramHandler.Register(authGroup)
	app.ContractHandler.Register(authGroup)
	app.MeHandler.Register(authGroup, app.AuthMiddleware.Require())

	go func() {
		if err := app.Server.Start(); err != nil {
			app.Logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Sweeper.Stop()

	if err := app.Server.Shutdown(); err != nil {
		app.Logger.Error("Server forced to shutdown", "error", err)
	}

	app.Logger.Info("Server stopped")
}

func getMigrationsPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return "migrations"
	}

	execDir := filepath.Dir(execPath)

	possiblePaths := []string{
		filepath.Join(execDir, "migrations"),
		filepath.Join(execDir, "..", "..", "migrations"),
		"migrations",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "migrations"
}
