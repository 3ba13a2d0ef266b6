package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/ca-practice/internal/config"
	"github.com/diewo77/ca-practice/internal/db"
	"github.com/diewo77/ca-practice/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	logLevel   zap.AtomicLevel
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "CA practice management API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if configPath == "" {
			configPath = os.Getenv("CONFIG_FILE")
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, logLevel, err = logging.New(cfg.App.LogLevel, cfg.App.Dev)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the automation scheduler",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := db.Open(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return err
		}
		defer closeDB(conn)
		if err := db.Migrate(cmd.Context(), conn, cfg.Database.DSN, true, logger); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("migrations completed")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate and load demo data",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(conn)
		if err := db.Seed(cmd.Context(), conn); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		logger.Info("seeding completed")
		return nil
	},
}

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Boot the API on an ephemeral port and check /api/health",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(conn)
		app, err := NewApp(cfg, conn, logger, logLevel)
		if err != nil {
			return err
		}
		defer app.Close()
		if code := runSelfTest(cmd.Context(), app, logger); code != 0 {
			return exitError{code: code}
		}
		logger.Info("selftest passed")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, selftestCmd)
}

// exitError carries a process exit code out of a command.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	var ee exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// openStore connects and brings the schema up to date.
func openStore(ctx context.Context) (*gorm.DB, error) {
	conn, err := db.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn, cfg.Database.DSN, cfg.Database.Migrations, logger); err != nil {
		closeDB(conn)
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return conn, nil
}

func closeDB(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB(conn)
	if cfg.Database.Seed {
		if err := db.Seed(ctx, conn); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	app, err := NewApp(cfg, conn, logger, logLevel)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Automation.Enabled {
		logger.Info("automation scheduler enabled", zap.String("timezone", cfg.Automation.Timezone))
		g.Go(func() error { return app.RunAutomation(gctx) })
	}
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
