package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pjgates/memsearch/internal/observability"
	"github.com/pjgates/memsearch/internal/tracing"
	"github.com/pjgates/memsearch/pkg/memory"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch configured paths and index changes live",
	Long: `Watch performs an initial indexing pass, then keeps the index in
sync with filesystem changes until interrupted. Deleted files have their
chunks removed from the store.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Paths) == 0 {
		return fmt.Errorf("no paths to watch: set \"paths\" in the config file")
	}

	log, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer log.Close()
	zl := log.GetZerolog()

	if err := tracing.InitOpenTelemetry("memsearch"); err != nil {
		zl.Warn().Err(err).Msg("Failed to initialize tracing")
	}
	defer tracing.ShutdownOpenTelemetry(cmd.Context())

	mgr, err := newManager(cfg, zl, false)
	if err != nil {
		return err
	}
	defer mgr.Close()

	ctx := cmd.Context()

	// Initial pass so the watcher only has to track deltas.
	if n, err := mgr.Index(ctx, memory.IndexOptions{}); err != nil {
		zl.Warn().Err(err).Msg("Initial indexing pass finished with errors")
	} else {
		zl.Info().Int("chunks", n).Msg("Initial indexing pass completed")
	}

	sess, err := mgr.Watch(ctx, func(ev memory.Event, n int, err error) {
		if err != nil || jsonOutput {
			return
		}
		fmt.Printf("%s %s (%d chunks)\n", ev.Kind, ev.Path, n)
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	// Periodic full resync catches events fsnotify missed (editors that
	// replace files, changes while a directory watch was being added).
	var scheduler *cron.Cron
	if cfg.Watch.ResyncCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Watch.ResyncCron, func() {
			if _, err := mgr.Index(ctx, memory.IndexOptions{}); err != nil {
				zl.Warn().Err(err).Msg("Scheduled resync finished with errors")
			}
		})
		if err != nil {
			sess.Stop()
			return fmt.Errorf("invalid resync cron expression %q: %w", cfg.Watch.ResyncCron, err)
		}
		scheduler.Start()
		zl.Info().Str("schedule", cfg.Watch.ResyncCron).Msg("Scheduled periodic resync")
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zl.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		zl.Info().Str("addr", cfg.Metrics.Addr).Msg("Serving metrics")
	}

	fmt.Println("Watching for changes. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zl.Info().Msg("Shutting down watcher")
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if metricsSrv != nil {
		metricsSrv.Close()
	}
	return sess.Stop()
}
