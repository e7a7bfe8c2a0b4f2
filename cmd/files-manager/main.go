package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tendant/chi-demo/app"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/api"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/config"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/scan"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/thumbnail"
)

var (
	envFile    string
	configFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env (when present), an optional config file and the
// environment, in increasing order of precedence.
func loadConfig() (*config.ServerConfig, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	opts := []config.Option{config.WithEnv()}
	if configFile != "" {
		opts = []config.Option{config.WithFile(configFile)}
	}
	return config.Load(opts...)
}

func newLogger(cfg *config.ServerConfig) *slog.Logger {
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newComponents loads configuration and opens every backend. The caller must
// Close the result.
func newComponents(ctx context.Context) (*config.Components, *config.ServerConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	components, err := cfg.Build(ctx, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing: %w", err)
	}
	return components, cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// recoverable is implemented by queues that park in-flight jobs
type recoverable interface {
	Recover(ctx context.Context) (int, error)
}

// requeueInFlight moves jobs left in flight by a crashed worker back to the queue
func requeueInFlight(ctx context.Context, components *config.Components) error {
	queue, ok := components.Source.(recoverable)
	if !ok {
		return nil
	}
	n, err := queue.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recovering in-flight jobs: %w", err)
	}
	if n > 0 {
		components.Logger.Info("Requeued in-flight thumbnail jobs", "count", n)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:          "files-manager",
	Short:        "File storage service with folders, visibility and thumbnails",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the files HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		components, cfg, err := newComponents(ctx)
		if err != nil {
			return err
		}
		defer components.Close()
		logger := components.Logger

		r := api.NewRouter(components.Service, logger)
		app.RoutesHealthz(r)
		app.RoutesHealthzReady(r)

		workerDone := make(chan error, 1)
		if components.InProcessQueue {
			logger.Info("Running thumbnail worker in process", "concurrency", components.WorkerConcurrency)
			go func() {
				workerDone <- components.NewWorker().Run(ctx)
			}()
		} else {
			close(workerDone)
		}

		server := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			logger.Info("Starting server", "addr", server.Addr, "environment", cfg.Environment)
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
		case <-ctx.Done():
			logger.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
		}

		stop()
		if err := <-workerDone; err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("worker: %w", err)
		}
		return nil
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume thumbnail jobs from the queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		components, _, err := newComponents(ctx)
		if err != nil {
			return err
		}
		defer components.Close()

		if components.InProcessQueue {
			return errors.New("the memory queue is only reachable from the serve process; set QUEUE=redis to run a separate worker")
		}
		if err := requeueInFlight(ctx, components); err != nil {
			return err
		}

		components.Logger.Info("Starting thumbnail worker", "concurrency", components.WorkerConcurrency)
		if err := components.NewWorker().Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

var (
	backfillOwner     string
	backfillAll       bool
	backfillDryRun    bool
	backfillBatchSize int
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Queue thumbnail jobs for stored images",
	Long:  `Backfill scans image objects and queues a thumbnail job for each one whose derivatives are missing (or for every image with --all). With the memory queue the jobs are processed before the command returns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		components, _, err := newComponents(ctx)
		if err != nil {
			return err
		}
		defer components.Close()
		logger := components.Logger

		processor := &scan.ThumbnailBackfill{Queue: components.Queue}
		if !backfillAll {
			processor.Store = components.Store
		}

		kind := filesmanager.KindImage
		opts := scan.ScanOptions{
			Kind:      &kind,
			Processor: processor,
			BatchSize: backfillBatchSize,
			DryRun:    backfillDryRun,
			OnProgress: func(processed, total int64) {
				logger.Debug("Backfill progress", "processed", processed, "total", total)
			},
		}
		if backfillOwner != "" {
			opts.OwnerID = &backfillOwner
		}

		// With the memory queue the jobs only exist in this process, so a
		// worker consumes them while the scan is still queueing.
		var wait func(n int64) error
		if components.InProcessQueue && !backfillDryRun {
			wait = startDrain(ctx, components)
		}

		result, err := scan.New(components.Repository, logger).Scan(ctx, opts)
		if err != nil {
			return fmt.Errorf("scanning images: %w", err)
		}
		logger.Info("Backfill scan finished",
			"found", result.TotalFound,
			"queued", result.TotalProcessed,
			"skipped", result.TotalSkipped,
			"failed", result.TotalFailed,
		)

		if wait != nil {
			return wait(result.TotalProcessed)
		}
		return nil
	},
}

// startDrain runs a worker in the background. The returned function blocks
// until n jobs have completed, then stops the worker.
func startDrain(ctx context.Context, components *config.Components) func(n int64) error {
	ctx, cancel := context.WithCancel(ctx)

	results := make(chan thumbnail.JobResult)
	worker := components.NewWorker(thumbnail.WithResults(results))

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	var (
		mu                sync.Mutex
		completed, failed int64
	)
	progress := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case result := <-results:
				mu.Lock()
				completed++
				if !result.Succeeded() {
					failed++
				}
				mu.Unlock()
				select {
				case progress <- struct{}{}:
				default:
				}
			case <-done:
				return
			}
		}
	}()

	return func(n int64) error {
		defer func() {
			cancel()
			<-done
		}()

		for {
			mu.Lock()
			c, f := completed, failed
			mu.Unlock()

			if c >= n {
				components.Logger.Info("Backfill jobs processed", "total", c, "failed", f)
				if f > 0 {
					return fmt.Errorf("%d of %d thumbnail jobs failed", f, c)
				}
				return nil
			}

			select {
			case <-progress:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the metadata store schema up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		if err := cfg.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrating %s: %w", cfg.DatabaseType, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", cfg.DatabaseType)
		return nil
	},
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := config.Describe()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment when present")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "yaml, json, toml or .env config file (environment still takes precedence)")

	backfillCmd.Flags().StringVar(&backfillOwner, "owner", "", "only scan this user's images")
	backfillCmd.Flags().BoolVar(&backfillAll, "all", false, "queue every image, even those with complete thumbnails")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "report what would be queued without queueing")
	backfillCmd.Flags().IntVar(&backfillBatchSize, "batch-size", scan.DefaultBatchSize, "objects listed per query")

	rootCmd.AddCommand(serveCmd, workerCmd, backfillCmd, migrateCmd, envCmd)
}
