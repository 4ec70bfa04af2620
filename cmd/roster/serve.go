package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/N3moAhead/roster/internal/config"
	"github.com/N3moAhead/roster/internal/db"
	"github.com/N3moAhead/roster/internal/logging"
	"github.com/N3moAhead/roster/internal/migration"
	"github.com/N3moAhead/roster/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr, dataFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local persons backend backed by a JSON file",
		Long: `Serves GET/POST ` + server.CollectionPath + ` and DELETE ` + server.CollectionPath + `/{id}.
Records are kept in a JSON file which is migrated to the current format on start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}
			if cmd.Flags().Changed("data") {
				cfg.Serve.DataFile = dataFile
			}

			logger, err := logging.NewStderr(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg.Serve.Addr, cfg.Serve.DataFile, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+config.DefaultAddr+")")
	cmd.Flags().StringVar(&dataFile, "data", "", "JSON data file (default "+config.DefaultDataFile+")")
	return cmd
}

func serve(ctx context.Context, addr, dataFile string, logger *zap.Logger) error {
	migration.Logf = logger.Sugar().Infof

	store, err := db.Open(dataFile)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(store, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("data", dataFile))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
