package cmd

import (
	"fmt"

	"github.com/angelospk/tmdb-go/pkg/core/cache"
	"github.com/angelospk/tmdb-go/pkg/core/settings"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate-key [api-key]",
	Short: "Check that an API key is accepted",
	Long: `Runs a probe search with the given key, or with the configured key when none
is given. Keys are cleaned the same way the settings screen cleans them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	RootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	raw := tmdbConfig().ApiKey
	if len(args) == 1 {
		raw = args[0]
	}
	key := settings.SanitizeKey(raw)
	if key == "" {
		return fmt.Errorf("no API key given or configured")
	}

	cfg := tmdbConfig()
	cfg.ApiKey = key
	// A private in-memory cache keeps a previous key's answers out of the probe.
	client, err := NewTMDBClientFunc(cfg, cache.NewMemoryStore(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDb client: %w", err)
	}

	valid, message := client.ValidateAPIKey(cmd.Context())
	if !valid {
		fmt.Fprintf(out, "API key %s is invalid: %s\n", key, message)
		return fmt.Errorf("invalid API key")
	}
	fmt.Fprintf(out, "API key %s is valid.\n", key)
	return nil
}
