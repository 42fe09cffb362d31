/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Fleur rewards engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (and optional TOML config file)
  2. Initialize SQLite store
  3. Create rewards service and API handler
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Optional TOML config file
  -port    HTTP server port (overrides config; default 8080)
  -db      SQLite database path (overrides config; default fleur.db)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/fleur.db"
  ./server -db=":memory:" -port=3000
  ./server -config=./fleur.toml

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: TOML config shape
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleur/rewards-engine/api"
	"github.com/fleur/rewards-engine/config"
	"github.com/fleur/rewards-engine/rewards"
	"github.com/fleur/rewards-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "TOML config file (optional)")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire the rewards service
	rewardsCfg := rewards.DefaultConfig()
	rewardsCfg.ClawbackStreakBonus = cfg.Rewards.ClawbackStreakBonus
	rewardsCfg.CounterRetentionDays = cfg.Rewards.CounterRetentionDays
	svc := rewards.NewService(store, rewardsCfg)

	// Create router
	handler := api.NewHandler(svc)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Rewards engine listening on http://%s", cfg.Server.Addr())
		log.Printf("API available at http://%s/api", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
