package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutor-app/internal/api/handlers"
	"tutor-app/internal/app"
	"tutor-app/internal/auth"
	"tutor-app/internal/config"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository"
	"tutor-app/internal/service/llm"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env file is fine; real deployments set the environment
	_ = godotenv.Load()

	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.Log.SetLevel(logger.ParseLevel(appConfig.Server.LogLevel))

	// Initialize store
	database, err := repository.Open(appConfig)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize store")
	}
	defer database.Close()

	// Initialize LLM provider
	provider, err := llm.NewProvider(&appConfig.LLM)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize LLM provider")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seed the default user every unauthenticated request acts as
	authService := auth.NewService(database, appConfig.Auth)
	if _, err := authService.EnsureDefaultUser(ctx, appConfig.Auth.DefaultUsername, appConfig.Auth.DefaultPassword); err != nil {
		logger.Log.WithError(err).Fatal("Failed to seed default user")
	}

	cfg := app.NewConfig(database, provider, appConfig)
	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           handlers.NewRouter(cfg, authService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.WithFields(logrus.Fields{
			"port":     appConfig.Server.Port,
			"storage":  appConfig.Storage.Backend,
			"provider": appConfig.LLM.Provider,
			"model":    appConfig.LLM.Model,
			"auth":     authService.TokensEnabled(),
		}).Info("Server starting")
		logger.Log.Infof("Health check: http://localhost:%s/api/health", appConfig.Server.Port)
		logger.Log.Infof("Chat endpoint: http://localhost:%s/api/chat", appConfig.Server.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.WithError(err).Error("Server stopped with error")
		database.Close()
		os.Exit(1)
	}
	logger.Log.Info("Server stopped")
}
