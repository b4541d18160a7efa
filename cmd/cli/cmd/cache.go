package cmd

import (
	"fmt"

	"github.com/angelospk/tmdb-go/pkg/core/cache"
	"github.com/spf13/cobra"
)

var purgeAll bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired cache entries",
	Long:  `Removes cached API responses whose lifetime has passed. With --all every entry is removed.`,
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	RootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cachePurgeCmd.Flags().BoolVar(&purgeAll, "all", false, "Remove every entry, expired or not")
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr())

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	store := cache.NewGormStore(db)
	var removed int64
	if purgeAll {
		removed, err = store.Clear(cmd.Context())
	} else {
		removed, err = store.Purge(cmd.Context())
	}
	if err != nil {
		logger.WithError(err).Error("Cache purge failed")
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries.\n", removed)
	return nil
}
