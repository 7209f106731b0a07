package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"asx-ingest/internal/ingest"
	"asx-ingest/internal/server"
	"asx-ingest/internal/store"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP ingestion server",
		Long: `Starts the HTTP server the scraping client talks to. The server
exposes the ticker work queue, accepts data submissions and lists
already-stored announcement documents.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				app.Config.Server.Addr = addr
			}
			return runServe(app)
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(app *App) error {
	cfg := app.Config
	log := app.Logger

	st, err := store.NewSQLiteStore(cfg.Store.DBPath, cfg.Market.Suffix)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info().Str("path", cfg.Store.DBPath).Msg("Store opened")

	coord := ingest.NewCoordinator(st, log, cfg.Market.Suffix, cfg.Store.HistoricalDir)
	srv := server.NewServer(st, coord, log, cfg.Market.Suffix, cfg.Server).HTTPServer(cfg.Server.Addr)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
