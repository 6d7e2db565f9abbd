/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the cash-flow engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open the household document store (SQLite or YAML file)
  3. Create API handler with dependencies
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: cashflow.db)
           Use ":memory:" for an in-memory database
  -state   YAML household file; when set, it is used instead of SQLite
  -debug   Human-readable console logging

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Run with a SQLite database
  ./server -db="./data/household.db"

  # Run against a YAML household file
  ./server -state="./household.yaml"

  # Run fully in memory
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
  - state/file.go: YAML file store
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/cashflow-engine/api"
	"github.com/warp/cashflow-engine/state"
	"github.com/warp/cashflow-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "cashflow.db", "SQLite database path")
	statePath := flag.String("state", "", "YAML household file (overrides -db)")
	debug := flag.Bool("debug", false, "console logging")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if *debug {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Open the store
	var store state.Store
	if *statePath != "" {
		store = state.NewFileStore(*statePath)
		log.Info().Str("path", *statePath).Msg("using YAML household file")
	} else {
		s, err := sqlite.New(*dbPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *dbPath).Msg("failed to open database")
		}
		store = s
		log.Info().Str("path", *dbPath).Msg("using SQLite store")
	}
	defer store.Close()

	// Handler and router
	handler := api.NewHandler(store, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", *port).Msgf("server listening on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
