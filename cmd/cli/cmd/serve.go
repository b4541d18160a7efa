package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tmdb "github.com/angelospk/tmdb-go"
	"github.com/angelospk/tmdb-go/pkg/core/cache"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/media"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
	"github.com/angelospk/tmdb-go/pkg/core/nonce"
	"github.com/angelospk/tmdb-go/pkg/core/queue"
	"github.com/angelospk/tmdb-go/pkg/core/settings"
	"github.com/angelospk/tmdb-go/pkg/core/store"
	"github.com/angelospk/tmdb-go/pkg/core/workflow"
	"github.com/angelospk/tmdb-go/pkg/processor"
	"github.com/angelospk/tmdb-go/pkg/server"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// cachePurgeSchedule is how often expired responses are removed while serving.
const cachePurgeSchedule = "@every 1h"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the movie item editor and the public item pages",
	Long: `Starts the HTTP server. Editors search, select and enrich movies on the item edit
pages, sideload images and manage the API key under /settings. Expired cache
entries are purged every hour.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default server.addr)")
	_ = viper.BindPFlag(CfgKeyServerAddr, serveCmd.Flags().Lookup("addr"))
}

// serveLogger writes to stderr, or to a rotated file when log.file is set.
func serveLogger(cmd *cobra.Command) *logrus.Logger {
	logger := newLogger(cmd.ErrOrStderr())
	if file := viper.GetString(CfgKeyLogFile); file != "" {
		logger.SetOutput(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    viper.GetInt(CfgKeyLogMaxSizeMB),
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	}
	return logger
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := serveLogger(cmd)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	events := host.NewDispatcher()
	s := store.New(db, events)
	responses := cache.NewGormStore(db)

	client, err := NewTMDBClientFunc(tmdbConfig(), responses, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDb client: %w", err)
	}

	keys := settings.New(s, settings.ClientProbe(tmdbConfig(), logger), client.SetAPIKey, logger)
	if valid, _ := keys.IsValid(ctx); valid {
		if key, err := keys.APIKey(ctx); err == nil && key != "" {
			client.SetAPIKey(key)
		}
	}

	mapper := metadata.NewMapper(s, s, logger)
	workflow.NewController(client, mapper, s, s, workflow.Hooks{
		OnSearch: func(ctx context.Context, itemID uint, query string, _ *tmdb.MovieSearchResult, err error) {
			if err != nil {
				logger.WithFields(logrus.Fields{"item": itemID, "query": query}).WithError(err).Warn("Movie search failed")
			}
		},
		OnSelect: func(ctx context.Context, itemID uint, record *tmdb.MovieRecord) {
			if record == nil {
				return
			}
			logger.WithFields(logrus.Fields{"item": itemID, "movie_id": record.ID}).Info("Movie selected")
		},
	}, logger).Register(events)

	historyDir, err := configDir()
	if err != nil {
		return err
	}
	uploads := viper.GetString(CfgKeyUploadsDir)
	sideloader := media.NewSideloader(s, media.Options{UploadsDir: uploads}, logger)
	reporter := queue.NewMetaReporter(s)
	qm, err := queue.NewQueueManager(historyDir, sideloader, reporter, logger)
	if err != nil {
		return err
	}

	secret := viper.GetString(CfgKeyServerSecret)
	if secret == "" {
		secret = uuid.NewString()
		logger.Warnf("%s is not set; sideload tokens will not survive a restart", CfgKeyServerSecret)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cachePurgeSchedule, func() {
		removed, err := responses.Purge(context.Background())
		if err != nil {
			logger.WithError(err).Error("Cache purge failed")
			return
		}
		logger.WithField("removed", removed).Debug("Purged expired cache entries")
	}); err != nil {
		return fmt.Errorf("failed to schedule cache purge: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(server.Config{
		Addr:           viper.GetString(CfgKeyServerAddr),
		EditorUser:     viper.GetString(CfgKeyEditorUser),
		EditorPassword: viper.GetString(CfgKeyEditorPassword),
		UploadsDir:     uploads,
	}, server.Deps{
		Host:       s,
		Nonces:     nonce.NewIssuer(secret, 0),
		Sideloader: sideloader,
		Queue:      qm,
		Reporter:   reporter,
		Images:     processor.NewProcessor(client, logger),
		Settings:   keys,
	}, logger)

	if viper.GetString(CfgKeyEditorUser) == "" {
		logger.Warn("No editor credentials configured; the editor is open to everyone")
	}
	return srv.ListenAndServe(ctx)
}
