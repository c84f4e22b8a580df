package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fileupload/internal/config"
	"github.com/vango-dev/fileupload/internal/errors"
	"github.com/vango-dev/fileupload/pkg/host"
	"github.com/vango-dev/fileupload/pkg/metrics"
	"github.com/vango-dev/fileupload/pkg/upload"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		initOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the widget server",
		Long: `Start the HTTP server hosting the file-upload widget.

Configuration is read from fileupload.json when present, then from
FILEUPLOAD_* environment variables, then from flags.

Examples:
  fileupload serve
  fileupload serve --addr :9000
  fileupload serve --config /etc/fileupload.json
  fileupload serve --init`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if initOnly {
				return runInit(cmd, configPath)
			}
			cfg, err := loadConfig(configPath, addr)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, newLogger(cfg, cmd.ErrOrStderr()))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.ConfigFileName, "Path to the configuration file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&initOnly, "init", false, "Write a default configuration file and exit")

	return cmd
}

func runInit(cmd *cobra.Command, path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf(errors.CategoryConfig, "%s already exists", path).
			WithSuggestion("Remove it first or pass --config with another path")
	}
	if err := config.New().SaveTo(path); err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Wrote %s", path)
	return nil
}

// loadConfig applies file, environment and flag settings in that order.
func loadConfig(path, addr string) (*config.Config, error) {
	cfg, err := config.LoadOrNew(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newStore builds the temporary upload store selected by the config.
func newStore(ctx context.Context, cfg *config.Config) (upload.Store, error) {
	switch cfg.Store.Kind {
	case config.StoreDisk:
		store, err := upload.NewDiskStore(cfg.Store.Dir, cfg.Store.MaxFileSize)
		if err != nil {
			return nil, errors.New("E120").WithDetail("disk store at " + cfg.Store.Dir).Wrap(err)
		}
		return store, nil
	case config.StoreS3:
		store, err := upload.NewS3StoreFromConfig(ctx, cfg.S3(), cfg.Store.MaxFileSize)
		if err != nil {
			return nil, errors.New("E120").WithDetail("s3 bucket " + cfg.Store.S3.Bucket).Wrap(err)
		}
		return store, nil
	}
	return nil, errors.New("E122").WithDetail("store.kind is " + cfg.Store.Kind)
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	slog.SetDefault(logger)

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	hc := host.DefaultConfig()
	hc.Widget = cfg.Widget
	hc.Upload = cfg.UploadConfig()
	hc.Workers = cfg.Server.Workers

	h := host.New(hc, store,
		host.WithLogger(logger.With("component", "host")),
		host.WithRecorder(metrics.NewRecorder()),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go runCleanup(ctx, store, cfg.TempExpiry(), cfg.CleanupInterval(), logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "store", cfg.Store.Kind)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("E143").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	h.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("E143").WithDetail(fmt.Sprintf("shutdown after %s", cfg.ShutdownTimeout())).Wrap(err)
	}
	return nil
}

// runCleanup removes expired uploads every interval until ctx is done.
func runCleanup(ctx context.Context, store upload.Store, maxAge, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := store.Cleanup(ctx, maxAge); err != nil && ctx.Err() == nil {
				logger.Warn("temp cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
