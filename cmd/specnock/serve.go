package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/specnock/specnock/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the debug API over a loaded repository",
	Long: `Loads the configured endpoints and specifications, then serves the
read-only debug API:

  GET  /_api/state        repository snapshot
  GET  /_api/endpoints    configured endpoints
  GET  /_api/specs        loaded specifications
  GET  /_api/intercepts   active intercept handles
  GET  /_api/stats        activation statistics
  GET  /_api/traces       recorded activation traces
  GET  /_api/traces/live  live trace stream (WebSocket)
  POST /_api/match        dry-run matching for a request
  POST /_api/restore      clear all active intercepts`,
	RunE: runServe,
}

var portFlag int

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Override debug API port")
	viper.BindPFlag("debug.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if portFlag > 0 {
		cfg.Debug.Port = portFlag
	}

	repo, err := buildRepository(cfg)
	if err != nil {
		return err
	}

	router := api.NewRouter(repo)

	addr := fmt.Sprintf("%s:%d", cfg.Debug.Host, cfg.Debug.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Serving debug API on http://%s/_api/", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo.Restore()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	return nil
}
