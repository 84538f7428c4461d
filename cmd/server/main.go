/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the collection engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment config (.env honored), parse command-line flags
  2. Initialize SQLite store
  3. Wire the API handler: stores, ledger service, holiday client
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION:
  Environment (see config package):
    HTTP_ADDR         Listen address (default :8080)
    DB_PATH           SQLite database path (default collection.db)
    JWT_SECRET        HMAC secret for bearer tokens
    HOLIDAY_API_URL   Override for the national-holiday API
  Flags override the environment:
    -addr, -db

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/collection.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
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

	"github.com/tokocicil/collection-engine/api"
	"github.com/tokocicil/collection-engine/config"
	"github.com/tokocicil/collection-engine/holiday"
	"github.com/tokocicil/collection-engine/store/sqlite"
)

func main() {
	cfg := config.Load()

	// Flags override the environment.
	addr := flag.String("addr", cfg.HTTPAddr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(api.Deps{
		Orders:     store,
		Products:   store.Products(),
		Users:      store.Users(),
		Broadcasts: store.Broadcasts(),
		Promos:     store.Promos(),
		Holidays:   holiday.NewClient(cfg.HolidayBaseURL),
	})

	// Create router
	router := api.NewRouter(handler, []byte(cfg.JWTSecret))

	// Create server
	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on %s", *addr)
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
