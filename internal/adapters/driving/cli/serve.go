package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skyvense/SatExam/internal/adapters/driving/api"
	"github.com/skyvense/SatExam/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored results over a read-only JSON API",
	Long: `Starts an HTTP server exposing the result store:

  GET /healthz                                liveness check
  GET /api/types                              per-category distribution
  GET /api/questions?type=&limit=&offset=     pages of one category`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().String("db", "", "SQLite database path (default ~/.satexam/data/results.db)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if openStore == nil {
		return errors.New("store not configured")
	}

	dbPath := baseConfig.DBPath
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		dbPath = v
	}
	store, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	addr, _ := cmd.Flags().GetString("addr")
	server := api.NewServer(addr, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	cmd.Printf("Serving results on http://%s\n", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
