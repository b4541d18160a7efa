package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/angelospk/tmdb-go/pkg/core/cache"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLitePath is used when no DSN is configured for sqlite.
const DefaultSQLitePath = "tmdb.db"

// Config selects and configures the database.
type Config struct {
	Driver string
	DSN    string
	// Verbose logs every SQL statement.
	Verbose bool
}

// Open connects to the configured database.
func Open(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Verbose {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver needs a DSN")
		}
		db, err := gorm.Open(postgres.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return db, nil
	case DriverSQLite, "":
		path := cfg.DSN
		if path == "" {
			path = DefaultSQLitePath
		}
		if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		db, err := gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// Migrate creates or updates every table used by the module, the response cache included.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Item{},
		&Meta{},
		&Term{},
		&TermRelationship{},
		&Option{},
		&Attachment{},
		&cache.Entry{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
