package processor_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	tmdb "github.com/angelospk/tmdb-go"
	"github.com/angelospk/tmdb-go/pkg/processor"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMovieAPI is a mock implementation of processor.MovieAPI.
type MockMovieAPI struct {
	mock.Mock
}

// Ensure MockMovieAPI implements processor.MovieAPI
var _ processor.MovieAPI = (*MockMovieAPI)(nil)

func (m *MockMovieAPI) ImageConfig(ctx context.Context) tmdb.ImageConfig {
	return m.Called(ctx).Get(0).(tmdb.ImageConfig)
}

func (m *MockMovieAPI) GetMediaInfo(ctx context.Context, hash string, byteSize int64) (*tmdb.MovieSummary, error) {
	args := m.Called(ctx, hash, byteSize)
	var res *tmdb.MovieSummary
	if r := args.Get(0); r != nil {
		res = r.(*tmdb.MovieSummary)
	}
	return res, args.Error(1)
}

func (m *MockMovieAPI) SearchMovies(ctx context.Context, title string) (*tmdb.MovieSearchResult, error) {
	args := m.Called(ctx, title)
	var res *tmdb.MovieSearchResult
	if r := args.Get(0); r != nil {
		res = r.(*tmdb.MovieSearchResult)
	}
	return res, args.Error(1)
}

func testProcessor(api processor.MovieAPI) *processor.Processor {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return processor.NewProcessor(api, logger)
}

func TestImageURLs(t *testing.T) {
	api := new(MockMovieAPI)
	api.On("ImageConfig", mock.Anything).Return(tmdb.ImageConfig{BaseURL: "http://img.example/t/p/"})
	p := testProcessor(api)

	record := &tmdb.MovieRecord{ID: 550, Images: tmdb.Images{
		Posters:   []tmdb.Image{{FilePath: "/p1.jpg"}, {FilePath: "/p2.jpg"}, {FilePath: ""}},
		Backdrops: []tmdb.Image{{FilePath: "/b1.jpg"}, {FilePath: "/p1.jpg"}},
	}}
	assert.Equal(t, []string{
		"http://img.example/t/p/original/b1.jpg",
		"http://img.example/t/p/original/p1.jpg",
		"http://img.example/t/p/original/p2.jpg",
	}, p.ImageURLs(context.Background(), record), "backdrops first, then posters, without duplicates")

	assert.Nil(t, p.ImageURLs(context.Background(), nil))
}

func TestGuessTitle(t *testing.T) {
	title, year := processor.GuessTitle("/movies/Fight.Club.1999.1080p.BluRay.x264-GROUP.mkv")
	assert.Equal(t, "Fight Club", title)
	assert.Equal(t, 1999, year)

	title, _ = processor.GuessTitle("Orgazmo")
	assert.Equal(t, "Orgazmo", title)
}

func TestPickResult(t *testing.T) {
	results := []tmdb.MovieSummary{
		{ID: 1, Title: "Alien", ReleaseDate: "2003-01-01"},
		{ID: 2, Title: "Alien", ReleaseDate: "1979-05-25"},
	}
	assert.Equal(t, 2, processor.PickResult(results, 1979).ID)
	assert.Equal(t, 1, processor.PickResult(results, 0).ID)
	assert.Equal(t, 1, processor.PickResult(results, 1950).ID)
	assert.Nil(t, processor.PickResult(nil, 1979))
}

func TestIdentifyFiles(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "Fight.Club.1999.mkv")
	require.NoError(t, os.WriteFile(big, make([]byte, 128*1024), 0644))
	small := filepath.Join(dir, "Alien.1979.avi")
	require.NoError(t, os.WriteFile(small, []byte("tiny"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "Other.2001.mp4"), []byte("x"), 0644))

	api := new(MockMovieAPI)
	api.On("GetMediaInfo", mock.Anything, "0000000000020000", int64(128*1024)).
		Return(&tmdb.MovieSummary{ID: 550, Title: "Fight Club"}, nil)
	api.On("SearchMovies", mock.Anything, "Alien").Return(&tmdb.MovieSearchResult{
		Results: []tmdb.MovieSummary{{ID: 348, Title: "Alien", ReleaseDate: "1979-05-25"}},
	}, nil)
	p := testProcessor(api)

	matches, err := p.IdentifyFiles(context.Background(), dir, false)
	require.NoError(t, err)
	require.Len(t, matches, 2, "non-recursive scan skips sub directories and non-video files")

	byPath := map[string]processor.FileMatch{}
	for _, m := range matches {
		byPath[filepath.Base(m.Path)] = m
	}
	fc := byPath["Fight.Club.1999.mkv"]
	require.NotNil(t, fc.Movie)
	assert.Equal(t, 550, fc.Movie.ID)
	assert.Equal(t, "hash", fc.Source)

	alien := byPath["Alien.1979.avi"]
	require.NotNil(t, alien.Movie)
	assert.Equal(t, 348, alien.Movie.ID)
	assert.Equal(t, "title", alien.Source)
	assert.Empty(t, alien.Hash)

	_, err = p.IdentifyFiles(context.Background(), filepath.Join(dir, "missing"), false)
	assert.Error(t, err)
}
