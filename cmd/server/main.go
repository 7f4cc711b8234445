/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the fee ledger engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Build the ledger engine and balance sweeper
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: feeledger.db)
           Use ":memory:" for in-memory database
  -sweep   Balance sweep interval in minutes (default: 0 = off)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the balance sweeper
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/feeledger.db"

  # Run with in-memory database and a 30-minute sweep
  ./server -db=":memory:" -sweep=30

ENVIRONMENT:
  No environment variables currently. All config via flags.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
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
	"syscall"
	"time"

	"github.com/clearledger/fee-engine/api"
	"github.com/clearledger/fee-engine/ledger"
	"github.com/clearledger/fee-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "feeledger.db", "SQLite database path")
	sweepInterval := flag.Int("sweep", 0, "balance sweep interval in minutes (0 disables)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Build engine and sweeper
	engine := ledger.NewEngine(store)
	sweeper := ledger.NewSweeper(engine)
	if *sweepInterval > 0 {
		if err := sweeper.Start(*sweepInterval); err != nil {
			log.Fatalf("Failed to start balance sweep: %v", err)
		}
	}

	// Create router
	handler := api.NewHandler(engine, sweeper)
	router := api.NewRouter(handler)

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
		log.Printf("Fee ledger listening on http://localhost:%d (db=%s)", *port, *dbPath)
		if *sweepInterval > 0 {
			log.Printf("Balance sweep running every %d minute(s)", *sweepInterval)
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown requested, stopping balance sweep...")
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Fee ledger stopped")
}
