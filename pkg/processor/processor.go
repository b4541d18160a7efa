// Package processor turns movie records and local video files into work lists.
package processor

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tmdb "github.com/angelospk/tmdb-go"
	"github.com/angelospk/tmdb-go/pkg/core/fileops"
	ptn "github.com/razsteinmetz/go-ptn"
	log "github.com/sirupsen/logrus"
)

// MovieAPI is the part of the API client the processor uses.
type MovieAPI interface {
	ImageConfig(ctx context.Context) tmdb.ImageConfig
	GetMediaInfo(ctx context.Context, hash string, byteSize int64) (*tmdb.MovieSummary, error)
	SearchMovies(ctx context.Context, title string) (*tmdb.MovieSearchResult, error)
}

// Ensure the API client implements MovieAPI
var _ MovieAPI = (*tmdb.Client)(nil)

// Known video extensions
var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true, ".m4v": true,
}

// Processor derives work lists from movie records and local files.
type Processor struct {
	api    MovieAPI
	logger *log.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(api MovieAPI, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	return &Processor{
		api:    api,
		logger: logger,
	}
}

// ImageURLs lists the record's images at original size: backdrops first, then posters.
func (p *Processor) ImageURLs(ctx context.Context, record *tmdb.MovieRecord) []string {
	if record == nil {
		return nil
	}
	cfg := p.api.ImageConfig(ctx)
	var urls []string
	seen := make(map[string]bool)
	add := func(images []tmdb.Image) {
		for _, img := range images {
			if img.FilePath == "" {
				continue
			}
			u := cfg.ImageURL(img.FilePath, "")
			if seen[u] {
				continue
			}
			seen[u] = true
			urls = append(urls, u)
		}
	}
	add(record.Images.Backdrops)
	add(record.Images.Posters)
	p.logger.WithFields(log.Fields{"movie_id": record.ID, "images": len(urls)}).Debug("Collected image URLs")
	return urls
}

// GuessTitle extracts a movie title and year from a release or file name.
func GuessTitle(name string) (title string, year int) {
	base := filepath.Base(name)
	if videoExtensions[strings.ToLower(filepath.Ext(base))] {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	parsed, err := ptn.Parse(base)
	if err == nil && strings.TrimSpace(parsed.Title) != "" {
		return strings.TrimSpace(parsed.Title), parsed.Year
	}
	return strings.TrimSpace(strings.NewReplacer(".", " ", "_", " ").Replace(base)), 0
}

// ScanDirectoryResult holds the video files found.
type ScanDirectoryResult struct {
	VideoFiles []string
}

// ScanDirectory scans a directory for video files.
func (p *Processor) ScanDirectory(ctx context.Context, rootPath string, recursive bool) (*ScanDirectoryResult, error) {
	result := &ScanDirectoryResult{}

	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			p.logger.Warnf("Error accessing path %q: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != rootPath && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if videoExtensions[strings.ToLower(filepath.Ext(path))] {
			result.VideoFiles = append(result.VideoFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Infof("Scan complete. Found %d video files in %s (Recursive: %t)", len(result.VideoFiles), rootPath, recursive)
	return result, nil
}

// FileMatch is the movie identified for one local file.
type FileMatch struct {
	Path  string             `json:"path"`
	Hash  string             `json:"hash,omitempty"`
	Size  int64              `json:"size"`
	Movie *tmdb.MovieSummary `json:"movie,omitempty"`
	// Source is "hash" or "title" depending on how the movie was found.
	Source string `json:"source,omitempty"`
	Err    string `json:"error,omitempty"`
}

// IdentifyFile looks a file up by its movie hash and falls back to a title search on the
// name parsed from the file name.
func (p *Processor) IdentifyFile(ctx context.Context, path string) FileMatch {
	match := FileMatch{Path: path}
	logger := p.logger.WithField("file", filepath.Base(path))

	hash, size, err := fileops.CalculateMovieHash(path)
	match.Size = size
	if err == nil {
		match.Hash = hash
		movie, err := p.api.GetMediaInfo(ctx, hash, size)
		if err == nil && movie != nil && movie.ID != 0 {
			match.Movie, match.Source = movie, "hash"
			return match
		}
		if err != nil {
			logger.WithError(err).Debug("Hash lookup failed, searching by title")
		}
	} else {
		logger.WithError(err).Debug("Cannot hash file, searching by title")
	}

	title, year := GuessTitle(path)
	if title == "" {
		match.Err = "no title in file name"
		return match
	}
	result, err := p.api.SearchMovies(ctx, title)
	if err != nil {
		match.Err = err.Error()
		return match
	}
	if movie := PickResult(result.Results, year); movie != nil {
		match.Movie, match.Source = movie, "title"
		return match
	}
	match.Err = "no matching movie"
	return match
}

// IdentifyFiles identifies every video file below rootPath.
func (p *Processor) IdentifyFiles(ctx context.Context, rootPath string, recursive bool) ([]FileMatch, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	files := []string{rootPath}
	if info.IsDir() {
		scan, err := p.ScanDirectory(ctx, rootPath, recursive)
		if err != nil {
			return nil, err
		}
		files = scan.VideoFiles
	}

	matches := make([]FileMatch, 0, len(files))
	for _, f := range files {
		if ctx.Err() != nil {
			return matches, ctx.Err()
		}
		matches = append(matches, p.IdentifyFile(ctx, f))
	}
	return matches, nil
}

// PickResult returns the first result released in year, or the first result when year
// is zero or nothing matches.
func PickResult(results []tmdb.MovieSummary, year int) *tmdb.MovieSummary {
	if len(results) == 0 {
		return nil
	}
	if year > 0 {
		want := strconv.Itoa(year)
		for i := range results {
			if results[i].Year() == want {
				return &results[i]
			}
		}
	}
	return &results[0]
}
