package cmd

import (
	"fmt"
	"strconv"

	"github.com/angelospk/tmdb-go/pkg/processor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	searchQuery   string
	searchRelease string
	searchJSON    bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for movies on The Movie Database",
	Long: `Searches The Movie Database for movies by title.
Requires one of --query or --release. A release name is parsed into a title and
year first and the result released in that year is marked.

Examples:
  tmdbcli search --query "Fight Club"
  tmdbcli search --release "Fight.Club.1999.1080p.BluRay.x264-GRP"`,
	Annotations: map[string]string{annotationNeedsKey: "true"},
	RunE:        runSearch,
}

func init() {
	RootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Search query (movie title)")
	searchCmd.Flags().StringVarP(&searchRelease, "release", "r", "", "Release or file name to take the title from")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the normalized response body")
	searchCmd.MarkFlagsMutuallyExclusive("query", "release")
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	query, year := searchQuery, 0
	if searchRelease != "" {
		query, year = processor.GuessTitle(searchRelease)
		fmt.Fprintf(out, "Parsed release %q as %q", searchRelease, query)
		if year > 0 {
			fmt.Fprintf(out, " (%d)", year)
		}
		fmt.Fprintln(out)
	}
	if query == "" {
		return fmt.Errorf("one of --query or --release must be provided")
	}

	client, db, err := openClient(logger)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	logger.WithFields(logrus.Fields{"query": query, "year": year}).Debug("Searching movies...")
	results, err := client.SearchMovies(cmd.Context(), query)
	if err != nil {
		logger.WithError(err).Error("Movie search failed")
		return fmt.Errorf("movie search failed: %w", err)
	}

	if searchJSON {
		fmt.Fprintln(out, string(results.Raw))
		return nil
	}
	if len(results.Results) == 0 {
		fmt.Fprintln(out, "No movies found matching the query.")
		return nil
	}

	var best *int
	if year > 0 {
		if pick := processor.PickResult(results.Results, year); pick != nil && pick.Year() == strconv.Itoa(year) {
			best = &pick.ID
		}
	}

	fmt.Fprintf(out, "Found %d movies for %q:\n", len(results.Results), query)
	fmt.Fprintln(out, "--------------------------------------------------")
	for _, m := range results.Results {
		marker := " "
		if best != nil && *best == m.ID {
			marker = "*"
		}
		movieYear := m.Year()
		if movieYear == "" {
			movieYear = "????"
		}
		fmt.Fprintf(out, "%s %-8d %s (%s)\n", marker, m.ID, m.Title, movieYear)
	}
	if results.TotalPages > 1 {
		fmt.Fprintf(out, "More results available (Page %d of %d)\n", results.Page, results.TotalPages)
	}
	return nil
}
