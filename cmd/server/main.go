/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Expensiver settlement server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Configure HTTP router
  5. Start the settlement scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port             HTTP server port (default: 8080)
  -db               SQLite database path (default: expensiver.db)
                    Use ":memory:" for an in-memory database
  -settle-interval  How often the scheduler refreshes settlement plans
                    (default: 1h; 0 disables the scheduler)

ENVIRONMENT:
  Each flag reads its default from the environment, so flags override
  env vars. A .env file in the working directory is loaded first.
    PORT             -port
    DATABASE_PATH    -db
    SETTLE_INTERVAL  -settle-interval

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the settlement scheduler (waits for in-flight sweeps)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/expensiver.db"

  # Run with in-memory database and fast settlement sweeps
  ./server -db=":memory:" -settle-interval=1m

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - api/scheduler.go: Background settlement sweeps
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tejaperfect/expensiver1-sub001/api"
	"github.com/tejaperfect/expensiver1-sub001/store/sqlite"
)

func main() {
	// Load .env for local development (ignore errors in production/docker).
	// Must happen before flag defaults are computed.
	_ = godotenv.Load()

	// Flags, with environment defaults
	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("DATABASE_PATH", "expensiver.db"), "SQLite database path")
	settleInterval := flag.Duration("settle-interval", envDuration("SETTLE_INTERVAL", time.Hour),
		"settlement scheduler interval (0 disables)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store)

	// Create router
	router := api.NewRouter(handler)

	// Start background settlement sweeps
	scheduler := api.NewSettlementScheduler(handler.Ledger)
	if *settleInterval <= 0 {
		scheduler.Enabled = false
	} else {
		scheduler.CheckInterval = *settleInterval
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
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

// envString reads a string from the environment, falling back when unset.
func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt reads an integer from the environment, falling back when unset
// or unparseable.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return n
}

// envDuration reads a duration ("90s", "1h") from the environment,
// falling back when unset or unparseable.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return d
}
