package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slicework/pizza-lb-go/internal/api"
	"github.com/slicework/pizza-lb-go/internal/config"
	"github.com/slicework/pizza-lb-go/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		addr       = flag.String("addr", "", "listen address (overrides config)")
		dbPath     = flag.String("db", "", "SQLite database path (overrides config)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config_load_failed error=%q", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if err := cfg.RegisterDifficulties(); err != nil {
		logger.Fatalf("difficulty_register_failed error=%q", err)
	}

	db, err := store.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("database_open_failed path=%s error=%q", cfg.DatabasePath, err)
	}
	defer db.Close()

	srv := api.NewServer(db, cfg.SessionTTL())
	defer srv.Close()

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Routes(),
		// No WriteTimeout: /watch holds websocket connections open.
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Printf("listening addr=%s db=%s engine_version=%s", cfg.Addr, cfg.DatabasePath, api.EngineVersion)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server_failed error=%q", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutdown_started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown_failed error=%q", err)
	}
	logger.Printf("shutdown_complete")
}
