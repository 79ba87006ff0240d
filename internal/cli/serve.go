package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getpup/preprocessing-orchestrator/adminauth"
	"github.com/getpup/preprocessing-orchestrator/api"
	cfgpkg "github.com/getpup/preprocessing-orchestrator/config"
	"github.com/getpup/preprocessing-orchestrator/logging"
	"github.com/getpup/preprocessing-orchestrator/metrics"
	"github.com/getpup/preprocessing-orchestrator/notifier"
	"github.com/getpup/preprocessing-orchestrator/orchestrator"
	"github.com/getpup/preprocessing-orchestrator/phase"
	"github.com/getpup/preprocessing-orchestrator/retention"
	"github.com/getpup/preprocessing-orchestrator/spawner"
	"github.com/getpup/preprocessing-orchestrator/spawner/fly"
	"github.com/getpup/preprocessing-orchestrator/store"
	"github.com/getpup/preprocessing-orchestrator/store/cache"
	"github.com/getpup/preprocessing-orchestrator/store/memory"
	"github.com/getpup/preprocessing-orchestrator/store/mysql"
	"github.com/getpup/preprocessing-orchestrator/store/postgres"
	"github.com/getpup/preprocessing-orchestrator/store/sqlite"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestrator HTTP server",
	Long:  "Start the status/admin HTTP surface and resume every in-flight batch found in the durable store.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := cfgpkg.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		OutputPath: cfg.Log.OutputPath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer logger.Sync()

	st, closeStore, err := buildStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	registry, err := phase.NewRegistry(
		phase.NewTIFFConversion(phase.ResourceShape{MemoryMB: 512, CPUs: 1, CPUKind: "shared"}),
		phase.NewThumbnail(phase.ResourceShape{MemoryMB: 256, CPUs: 1, CPUKind: "shared"}),
	)
	if err != nil {
		return fmt.Errorf("build phase registry: %w", err)
	}

	var sp spawner.Spawner = fly.New(fly.Config{
		BaseURL: "https://api.machines.dev",
		AppName: cfg.Fly.AppName,
		Token:   cfg.Fly.APIToken,
	})

	collector := metrics.NewCollector()

	var notify notifier.Notifier = notifier.Nop{}
	if cfg.Notify.URL != "" {
		notify = notifier.New(cfg.Notify.URL)
	}

	orch, err := orchestrator.New(
		orchestrator.WithStore(st),
		orchestrator.WithRegistry(registry),
		orchestrator.WithSpawner(sp),
		orchestrator.WithEnv(phase.Env{
			OrchestratorURL:      cfg.Orchestrator.URL,
			WorkerImage:          cfg.Fly.WorkerImage,
			Region:               cfg.Fly.Region,
			ObjectStoreAccountID: cfg.ObjectStore.AccountID,
			ObjectStoreAccessKey: cfg.ObjectStore.AccessKey,
			ObjectStoreSecret:    cfg.ObjectStore.Secret,
			ObjectStoreBucket:    cfg.ObjectStore.Bucket,
		}),
		orchestrator.WithNotifier(notify),
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(collector),
		orchestrator.WithBatchSizePhase(cfg.Orchestrator.BatchSizePhase),
		orchestrator.WithAlarmDelayPhase(cfg.Orchestrator.AlarmDelayPhase),
		orchestrator.WithAlarmDelayErrorRetry(cfg.Orchestrator.AlarmDelayErrorRetry),
		orchestrator.WithMaxRetryAttempts(cfg.Orchestrator.MaxRetryAttempts),
		orchestrator.WithMaxTaskRetries(cfg.Orchestrator.MaxTaskRetries),
	)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := orch.Recover(ctx); err != nil {
		return fmt.Errorf("recover in-flight batches: %w", err)
	}

	srv := api.NewServer(orch, logger)
	if cfg.Admin.JWTSecret != "" {
		auth := adminauth.New(cfg.Admin.JWTSecret, "preprocessing-orchestrator", 0)
		srv.SetAdminAuth(auth.Middleware())
	}
	srv.EnableMetrics()

	var sweeper *retention.Sweeper
	if cfg.Retention.TTL > 0 {
		sweeper, err = retention.New(st, logger, cfg.Retention.CronSchedule, cfg.Retention.TTL)
		if err != nil {
			return fmt.Errorf("build retention sweeper: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	httpServer := &http.Server{Addr: cfg.HTTP.ListenAddr, Handler: srv.Handler()}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("received shutdown signal, stopping orchestrator")
		cancel()
		orch.Shutdown()
		_ = httpServer.Shutdown(context.Background())
	}()

	logger.Info("orchestrator listening", zap.String("addr", cfg.HTTP.ListenAddr))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

func buildStore(cfg cfgpkg.StoreConfig) (store.BatchStore, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case "", "memory":
		return memory.New(), noop, nil

	case "postgres":
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		return cache.New(postgres.New(db), 0), func() { _ = db.Close() }, nil

	case "mysql":
		db, err := sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open mysql: %w", err)
		}
		return cache.New(mysql.New(db), 0), func() { _ = db.Close() }, nil

	case "sqlite":
		db, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite: %w", err)
		}
		return cache.New(sqlite.New(db), 0), func() { _ = db.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
