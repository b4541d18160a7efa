package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/angelospk/tmdb-go/pkg/processor"
	"github.com/spf13/cobra"
)

var (
	lookupRecursive bool
	lookupJSON      bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup-file <path>",
	Short: "Identify the movies of local video files",
	Long: `Hashes each video file and looks the hash up. Files the hash does not identify
are matched by the title and year parsed from the file name.

Examples:
  tmdbcli lookup-file ~/Videos/Fight.Club.1999.mkv
  tmdbcli lookup-file ~/Videos --recursive`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNeedsKey: "true"},
	RunE:        runLookup,
}

func init() {
	RootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().BoolVarP(&lookupRecursive, "recursive", "R", false, "Scan directories recursively")
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "Print the matches as JSON")
}

func runLookup(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	client, db, err := openClient(logger)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	matches, err := processor.NewProcessor(client, logger).IdentifyFiles(cmd.Context(), args[0], lookupRecursive)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if lookupJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}
	if len(matches) == 0 {
		fmt.Fprintln(out, "No video files found.")
		return nil
	}
	for _, m := range matches {
		if m.Movie == nil {
			fmt.Fprintf(out, "%s: %s\n", m.Path, m.Err)
			continue
		}
		fmt.Fprintf(out, "%s: %s (%s) [id %d, by %s]\n", m.Path, m.Movie.Title, m.Movie.Year(), m.Movie.ID, m.Source)
	}
	return nil
}
