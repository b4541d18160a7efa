package cmd

import (
	"errors"
	"fmt"
	"strconv"

	tmdb "github.com/angelospk/tmdb-go"
	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/media"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
	"github.com/angelospk/tmdb-go/pkg/core/queue"
	"github.com/angelospk/tmdb-go/pkg/core/store"
	"github.com/angelospk/tmdb-go/pkg/processor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sideloadCmd = &cobra.Command{
	Use:   "sideload <item-id>",
	Short: "Download every image of an item's selected movie",
	Long: `Downloads the backdrops and posters of the movie selected for an item, one at a
time, attaches them to the item and records the attachment ids. Images that fail
to download are skipped.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNeedsKey: "true"},
	RunE:        runSideload,
}

func init() {
	RootCmd.AddCommand(sideloadCmd)
}

func runSideload(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid item id %q", args[0])
	}
	itemID := uint(id)
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr())

	client, db, err := openClient(logger)
	if err != nil {
		return err
	}
	defer closeDatabase(db)
	s := store.New(db, host.NewDispatcher())

	if _, err := s.GetItem(ctx, itemID); err != nil {
		if errors.Is(err, coreErrors.ErrItemNotFound) {
			return fmt.Errorf("item %d does not exist", itemID)
		}
		return err
	}
	data, ok, err := s.GetMeta(ctx, itemID, metadata.MetaMovieData)
	if err != nil {
		return err
	}
	if !ok || data == "" {
		return fmt.Errorf("item %d has no selected movie", itemID)
	}
	record, err := tmdb.DecodeMovieRecord([]byte(data))
	if err != nil {
		return fmt.Errorf("stored movie of item %d is unreadable: %w", itemID, err)
	}

	urls := processor.NewProcessor(client, logger).ImageURLs(ctx, record)
	if len(urls) == 0 {
		fmt.Fprintf(out, "%s has no images.\n", record.Title)
		return nil
	}
	fmt.Fprintf(out, "Sideloading %d images of %s into item %d\n", len(urls), record.Title, itemID)

	historyDir, err := configDir()
	if err != nil {
		return err
	}
	sideloader := media.NewSideloader(s, media.Options{UploadsDir: viper.GetString(CfgKeyUploadsDir)}, logger)
	qm, err := queue.NewQueueManager(historyDir, sideloader, queue.NewMetaReporter(s), logger)
	if err != nil {
		return err
	}

	done := 0
	ids, err := qm.Run(ctx, itemID, urls, func(t queue.Task) {
		done++
		switch t.Status {
		case queue.StatusComplete:
			fmt.Fprintf(out, "[%d/%d] %s -> attachment %d\n", done, len(urls), t.URL, t.AttachmentID)
		default:
			logger.WithFields(logrus.Fields{"url": t.URL, "error": t.Message}).Debug("Image skipped")
			fmt.Fprintf(out, "[%d/%d] %s skipped: %s\n", done, len(urls), t.URL, t.Message)
		}
	})
	if err != nil {
		return fmt.Errorf("sideload failed: %w", err)
	}

	fmt.Fprintf(out, "Attached %d of %d images.\n", len(ids), len(urls))
	return nil
}
