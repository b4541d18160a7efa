package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/angelospk/tmdb-go/pkg/core/metadata"
	"github.com/angelospk/tmdb-go/pkg/core/regions"
	"github.com/spf13/cobra"
)

var infoCastLimit int

var infoCmd = &cobra.Command{
	Use:   "info <movie-id>",
	Short: "Show the full record of one movie",
	Long: `Fetches a movie with its cast, images, releases and trailers and prints it the
way it is filed: genres, directors, writers, actors and the certificate per country.

Example:
  tmdbcli info 550`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNeedsKey: "true"},
	RunE:        runInfo,
}

func init() {
	RootCmd.AddCommand(infoCmd)
	infoCmd.Flags().IntVar(&infoCastLimit, "cast", 10, "Number of actors to list (0 lists all)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid movie id %q", args[0])
	}

	logger := newLogger(cmd.ErrOrStderr())
	client, db, err := openClient(logger)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	record, err := client.GetMovie(cmd.Context(), id)
	if err != nil {
		logger.WithError(err).WithField("movie_id", id).Error("Failed to fetch movie")
		return fmt.Errorf("failed to fetch movie %d: %w", id, err)
	}

	out := cmd.OutOrStdout()
	year := ""
	if len(record.ReleaseDate) >= 4 {
		year = " (" + record.ReleaseDate[:4] + ")"
	}
	fmt.Fprintf(out, "%s%s\n", record.Title, year)
	fmt.Fprintln(out, "--------------------------------------------------")
	printField(out, "ID", strconv.Itoa(record.ID))
	printField(out, "IMDb", record.IMDbID)
	printField(out, "Tagline", record.Tagline)
	if record.Runtime > 0 {
		printField(out, "Runtime", fmt.Sprintf("%d min", record.Runtime))
	}

	genres := make([]string, 0, len(record.Genres))
	for _, g := range record.Genres {
		genres = append(genres, g.Name)
	}
	printField(out, "Genres", strings.Join(genres, ", "))

	var directors, writers []string
	for _, c := range record.Casts.Crew {
		switch metadata.Classify(c.Department) {
		case metadata.TaxonomyDirector:
			directors = append(directors, c.Name)
		case metadata.TaxonomyWriter:
			writers = append(writers, c.Name)
		}
	}
	printField(out, "Directors", strings.Join(directors, ", "))
	printField(out, "Writers", strings.Join(writers, ", "))

	actors := make([]string, 0, len(record.Casts.Cast))
	for i, c := range record.Casts.Cast {
		if infoCastLimit > 0 && i >= infoCastLimit {
			actors = append(actors, fmt.Sprintf("and %d more", len(record.Casts.Cast)-i))
			break
		}
		actors = append(actors, c.Name)
	}
	printField(out, "Actors", strings.Join(actors, ", "))
	printField(out, "Images", fmt.Sprintf("%d posters, %d backdrops", len(record.Images.Posters), len(record.Images.Backdrops)))

	if len(record.Releases.Countries) > 0 {
		fmt.Fprintln(out, "Releases:")
		for _, r := range record.Releases.Countries {
			cert := r.Certification
			if cert == "" {
				cert = "-"
			}
			fmt.Fprintf(out, "  %-3s %-28s %-8s %s\n", strings.ToUpper(r.ISO3166_1), regions.Name(r.ISO3166_1), cert, r.ReleaseDate)
		}
	}
	if trailers := metadata.TrailerURLs(record); len(trailers) > 0 {
		fmt.Fprintln(out, "Trailers:")
		for _, u := range trailers {
			fmt.Fprintf(out, "  %s\n", u)
		}
	}
	if record.Overview != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, record.Overview)
	}
	return nil
}

func printField(out io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(out, "%-10s %s\n", label+":", value)
}
