// Package repo implements the data persistence layer for enquiries. The GORM
// backed store (SQLite or PostgreSQL) is the default; MongoDB and an
// in-process memory store implement the same record store contract.
// This file contains database bootstrapping helpers and schema migrations.
package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-enquiry-backend/internal/config"
	"github.com/tbourn/go-enquiry-backend/internal/domain"
)

const pingTimeout = 5 * time.Second

// Store is the record store capability handed to the service layer at
// startup. Every implementation assigns ids and timestamps itself.
type Store interface {
	CreateEnquiry(ctx context.Context, in domain.EnquiryInput) (*domain.Enquiry, error)
	GetEnquiry(ctx context.Context, id string) (*domain.Enquiry, error)
	ListEnquiries(ctx context.Context, offset, limit int) ([]domain.Enquiry, int64, error)
	Stats(ctx context.Context) (count int64, newest *time.Time, err error)
	Ping(ctx context.Context) error
	Close() error
}

// OpenStore builds the store selected by cfg.Driver, migrating the schema
// where the backend needs one.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return migratedStore(db)
	case config.DriverPostgres:
		db, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return migratedStore(db)
	case config.DriverMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func migratedStore(db *gorm.DB) (Store, error) {
	if err := AutoMigrate(db); err != nil {
		if sqlDB, e := db.DB(); e == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewGormStore(db), nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return instrument(db)
}

// OpenPostgres connects to PostgreSQL using dsn, tunes the pool and pings
// the server before returning.
func OpenPostgres(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return instrument(db)
}

// AutoMigrate creates or updates the enquiries table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Enquiry{})
}

// gormConfig keeps SQL out of the logs: rows carry customer phone numbers.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// instrument attaches the OpenTelemetry GORM plugin so queries show up as
// child spans of the request trace.
func instrument(db *gorm.DB) (*gorm.DB, error) {
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, fmt.Errorf("gorm tracing: %w", err)
	}
	return db, nil
}
