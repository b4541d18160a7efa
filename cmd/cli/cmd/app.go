package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	tmdb "github.com/angelospk/tmdb-go"
	"github.com/angelospk/tmdb-go/pkg/core/cache"
	"github.com/angelospk/tmdb-go/pkg/core/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// MovieClient is the part of the API client the commands use.
type MovieClient interface {
	SearchMovies(ctx context.Context, title string) (*tmdb.MovieSearchResult, error)
	GetMovie(ctx context.Context, id int) (*tmdb.MovieRecord, error)
	GetMediaInfo(ctx context.Context, hash string, byteSize int64) (*tmdb.MovieSummary, error)
	ImageConfig(ctx context.Context) tmdb.ImageConfig
	ValidateAPIKey(ctx context.Context) (bool, string)
	SetAPIKey(key string)
}

var _ MovieClient = (*tmdb.Client)(nil)

// NewTMDBClientFunc allows overriding the API client creation for testing.
var NewTMDBClientFunc = func(cfg tmdb.Config, responses cache.Store, logger *logrus.Logger) (MovieClient, error) {
	client, err := tmdb.NewClient(cfg, responses, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// tmdbConfig builds the client configuration from viper.
func tmdbConfig() tmdb.Config {
	return tmdb.Config{
		ApiKey:            viper.GetString(CfgKeyAPIKey),
		Language:          viper.GetString(CfgKeyLanguage),
		BaseURL:           viper.GetString(CfgKeyBaseURL),
		CacheTTL:          viper.GetDuration(CfgKeyCacheTTL),
		RequestsPerSecond: viper.GetFloat64(CfgKeyRequestsPerSecond),
	}
}

// newLogger returns a text logger writing to out at the configured level.
func newLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{})
	logger.SetOutput(out)
	level, err := logrus.ParseLevel(viper.GetString(CfgKeyLogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// openDatabase opens and migrates the configured database. Without a DSN the sqlite
// file lives in the config directory.
func openDatabase() (*gorm.DB, error) {
	driver := viper.GetString(CfgKeyDatabaseDriver)
	dsn := viper.GetString(CfgKeyDatabaseDSN)
	if dsn == "" && (driver == "" || driver == store.DriverSQLite) {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		dsn = filepath.Join(dir, store.DefaultSQLitePath)
	}

	db, err := store.Open(store.Config{
		Driver:  driver,
		DSN:     dsn,
		Verbose: viper.GetString(CfgKeyLogLevel) == logrus.TraceLevel.String(),
	})
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		closeDatabase(db)
		return nil, err
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// openClient opens the database and returns a client caching into it. The caller closes
// the database.
func openClient(logger *logrus.Logger) (MovieClient, *gorm.DB, error) {
	db, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}
	client, err := NewTMDBClientFunc(tmdbConfig(), cache.NewGormStore(db), logger)
	if err != nil {
		closeDatabase(db)
		logger.WithError(err).Error("Failed to initialize TMDb client")
		return nil, nil, fmt.Errorf("failed to initialize TMDb client: %w", err)
	}
	return client, db, nil
}
