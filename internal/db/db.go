// Package db opens the record store, applies its schema and seeds demo data.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/ca-practice/internal/config"
	"github.com/diewo77/ca-practice/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

// Open connects to the store named by cfg.DSN. PostgreSQL connections are
// retried while the server starts up.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dsn := NormalizeDSN(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}
	gcfg := &gorm.Config{
		Logger:                                   gormLogger(log, cfg.Debug),
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	}

	var conn *gorm.DB
	var err error
	if !IsPostgres(dsn) {
		conn, err = gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer; one connection avoids "table is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		for i := 1; i <= connectAttempts; i++ {
			conn, err = gorm.Open(postgres.Open(dsn), gcfg)
			if err == nil {
				break
			}
			log.Warn("database not ready, retrying", zap.Int("attempt", i), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
	}

	if err := Ping(ctx, conn); err != nil {
		return nil, err
	}
	log.Info("database connected", zap.String("dsn", MaskDSN(dsn)), zap.Bool("postgres", IsPostgres(dsn)))
	return conn, nil
}

// Ping runs a trivial statement against the store.
func Ping(ctx context.Context, conn *gorm.DB) error {
	if err := conn.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	return nil
}

// Migrate brings the schema up to date. With useSQL set on a PostgreSQL
// store the embedded SQL migrations run; otherwise gorm's AutoMigrate is
// used.
func Migrate(ctx context.Context, conn *gorm.DB, dsn string, useSQL bool, log *zap.Logger) error {
	dsn = NormalizeDSN(dsn)
	if useSQL && IsPostgres(dsn) {
		log.Info("running SQL migrations")
		if err := runSQLMigrations(dsn); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := conn.WithContext(ctx).AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}

	for _, m := range models.All() {
		if !conn.Migrator().HasTable(m) {
			return fmt.Errorf("missing table after migration: %T", m)
		}
	}
	return nil
}

func gormLogger(log *zap.Logger, debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
