/*
main.go - Application entry point

PURPOSE:
  Starts the leave portal: the HTTP service between the browser SPA and
  the leave-management backend. Handles configuration, dependency
  injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, optional YAML file, LEAVE_PORTAL_* env)
  2. Build the zap logger
  3. Open the SQLite session store and restore live sessions
  4. Start the session sweeper
  5. Wire backend client, portal service, handlers and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (optional)
  -port    HTTP server port, overrides server.port
  -db      SQLite database path, overrides database.path
           Use ":memory:" for sessions that end with the process

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the session sweeper
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run against a local backend
  LEAVE_BACKEND_URL=http://localhost:5000/api ./server

  # Run with in-memory sessions on a different port
  ./server -db=":memory:" -port=3001

SEE ALSO:
  - config/config.go: Keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Session persistence
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/leave-portal/api"
	"github.com/warp/leave-portal/backend"
	"github.com/warp/leave-portal/config"
	"github.com/warp/leave-portal/leave"
	"github.com/warp/leave-portal/logging"
	"github.com/warp/leave-portal/portal"
	"github.com/warp/leave-portal/session"
	"github.com/warp/leave-portal/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Sessions
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	sessions := session.NewManager(store, cfg.Session.DefaultTTL, logger)
	if err := sessions.Init(context.Background()); err != nil {
		logger.Fatal("Failed to restore sessions", zap.Error(err))
	}

	sweeper := session.NewSweeper(sessions, cfg.Session.SweepInterval, logger)
	sweeper.Start()
	defer sweeper.Stop()

	// Portal
	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	svc := portal.NewService(leave.DefaultCatalog(), client, sessions, logger)
	svc.ServerSideReports = cfg.Reports.ServerSide

	handler := api.NewHandler(svc, cfg.Session.CookieName, logger)
	handler.SecureCookie = cfg.Session.SecureCookie
	handler.Health = store.Ping

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.Int("sessions", sessions.Count()),
			zap.Bool("server_side_reports", cfg.Reports.ServerSide))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
