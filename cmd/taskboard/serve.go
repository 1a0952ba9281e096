package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/taskboard/internal/audit"
	"github.com/fentz26/taskboard/internal/backend"
	"github.com/fentz26/taskboard/internal/config"
	"github.com/fentz26/taskboard/internal/store"
)

var (
	listenAddr string
	dbPath     string
	seedCount  int
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"daemon"},
	Short:   "Start the taskboard API server",
	Long:    `Starts the taskboard daemon which serves the task list over HTTP.`,
	RunE:    runServe,
}

func init() {
	defaultDB := filepath.Join(config.Dir(), "taskboard.db")

	serveCmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:7466", "Listen address for the API server")
	serveCmd.Flags().StringVar(&dbPath, "db", defaultDB, "Path to SQLite database")
	serveCmd.Flags().IntVar(&seedCount, "seed", 0, "Insert this many demo tasks into an empty database")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("Starting taskboard daemon...")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return err
	}

	s, err := store.New(dbPath)
	if err != nil {
		return err
	}

	if seedCount > 0 {
		n, err := s.Seed(seedCount)
		if err != nil {
			s.Close()
			return err
		}
		if n > 0 {
			log.Printf("Seeded %d demo tasks", n)
		}
	}

	service := backend.NewService(s, audit.NewTrail(s))
	server := backend.NewServer(service, s, listenAddr)

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
			s.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Closing database connection...")
	if err := s.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}
