package infrastructure

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rest-user-service/internal/adapter/db/migrations"
	"rest-user-service/internal/adapter/db/postgres"
	"rest-user-service/internal/config"
	"rest-user-service/pkg/logger"
)

// NewDatabase opens the configured database and prepares its schema:
// SQLite is auto-migrated, PostgreSQL is migrated when DB_MIGRATE_ON_START is set.
func NewDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.NewGormLogger(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DB.SQLitePath)
	default:
		dialector = pgdriver.Open(cfg.DB.DSN())
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.DB.Driver == config.DriverSQLite {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		if err := postgres.AutoMigrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	} else {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

		if cfg.App.MigrateOnStart {
			if err := migrateUp(cfg, l); err != nil {
				_ = sqlDB.Close()
				return nil, err
			}
		}
	}

	l.Info("database connected successfully",
		zap.String("driver", cfg.DB.Driver),
		zap.Int("max_open_conns", sqlDB.Stats().MaxOpenConnections),
	)

	return db, nil
}

func migrateUp(cfg *config.Config, l *zap.Logger) error {
	m, err := migrations.New(cfg.DB.MigrateURL(), l)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			l.Warn("failed to close migrator", zap.Error(err))
		}
	}()

	return m.Up()
}

// PingDatabase checks that the database answers.
func PingDatabase(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
