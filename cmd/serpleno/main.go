// Package main Serpleno API
//
// @title           Serpleno API
// @version         1.0
// @description     API платформы Serpleno: подписки на контент, запись к специалистам, кабинеты профессионала и администратора
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@serpleno.cl

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/serpleno/serpleno/docs"
	"github.com/serpleno/serpleno/internal/app/serpleno"
	"github.com/serpleno/serpleno/internal/config"
	"github.com/serpleno/serpleno/internal/lib/sl"
)

func main() {
	// .env необязателен
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting serpleno", slog.String("env", cfg.Env), slog.String("storage", cfg.Driver))
	logger.Debug("loaded config\n" + cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := serpleno.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("serpleno stopped gracefully")
}
