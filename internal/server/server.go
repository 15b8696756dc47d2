package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	database "github.com/FACorreiaa/kanso/internal/db"
	"github.com/FACorreiaa/kanso/internal/pkg/config"
	"github.com/FACorreiaa/kanso/internal/pkg/ledger"
)

// generationWriteTimeout bounds a response that waits on the model provider.
const generationWriteTimeout = 2 * time.Minute

// Server owns the long lived resources of the process: the Postgres pool and
// the rate limit ledger store.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	ledger ledger.Store
	router http.Handler
}

// New connects to Postgres, applies migrations and opens the ledger store
// selected by cfg.Ledger.Driver.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	pool, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := ledger.Open(ctx, cfg.Ledger, pool, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open rate limit ledger: %w", err)
	}

	return &Server{cfg: cfg, logger: logger, pool: pool, ledger: store}, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pg := cfg.Repositories.Postgres
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, pg, logger)
	if err != nil {
		return nil, fmt.Errorf("database pool: %w", err)
	}
	if err := database.WaitForDB(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database at %s:%s: %w", pg.Host, pg.Port, err)
	}
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Info("Database ready",
		zap.String("host", pg.Host),
		zap.String("database", pg.DB))
	return pool, nil
}

func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.ServerPort,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: generationWriteTimeout,
	}
}

func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

func (s *Server) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Server) Ledger() ledger.Store {
	return s.ledger
}

// Close releases the ledger store, then the pool it may share.
func (s *Server) Close() {
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			s.logger.Warn("Failed to close ledger store", zap.Error(err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
