package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/domain/generation"
	"github.com/FACorreiaa/kanso/internal/app/governance"
	"github.com/FACorreiaa/kanso/internal/pkg/config"
	"github.com/FACorreiaa/kanso/internal/routes"
	"github.com/FACorreiaa/kanso/internal/server"
	"github.com/FACorreiaa/kanso/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel, zap.String("service", cfg.Observability.ServiceName)); err != nil {
		return err
	}
	l := logger.Log
	defer func() { _ = l.Sync() }()

	otelShutdown, err := server.InitObservability(cfg.Observability, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			l.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	ctx := context.Background()
	srv, err := server.New(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer srv.Close()

	governor := governance.NewGovernor(ctx, cfg.RateLimit, srv.Ledger(), l)

	provider, err := generation.NewGenAIProvider(ctx, cfg.Gemini.APIKey, l)
	if err != nil {
		return err
	}
	gateway := generation.NewGateway(provider, governor, cfg.Gemini, l)

	router := server.SetupRouter(routes.Dependencies{
		Config:   cfg,
		Pool:     srv.Pool(),
		Governor: governor,
		Gateway:  gateway,
	}, cfg.Observability.ServiceName, l)
	srv.SetRouter(router)

	pprofServer := server.StartPprofServer(cfg.Observability.PprofAddr, l)
	httpServer := srv.HTTPServer()

	done := make(chan struct{})
	go server.GracefulShutdown(l, done, httpServer, pprofServer)

	l.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("Server error", zap.Error(err))
		return err
	}

	<-done
	l.Info("Graceful shutdown complete")
	return nil
}
