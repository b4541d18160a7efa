package cmd_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	tmdb "github.com/angelospk/tmdb-go"
	"github.com/angelospk/tmdb-go/pkg/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLookupFileCommand(t *testing.T) {
	client := new(MockClient)
	testEnv(t, client)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Alien.1979.avi"), []byte("tiny"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Unknown.Thing.mkv"), []byte("tiny"), 0644))
	client.On("SearchMovies", mock.Anything, "Alien").Return(&tmdb.MovieSearchResult{
		Results: []tmdb.MovieSummary{
			{ID: 1, Title: "Alien", ReleaseDate: "2003-01-01"},
			{ID: 348, Title: "Alien", ReleaseDate: "1979-05-25"},
		},
	}, nil)
	client.On("SearchMovies", mock.Anything, "Unknown Thing").Return(&tmdb.MovieSearchResult{}, nil)

	t.Run("Text", func(t *testing.T) {
		output, err := executeCommand(t, "", "lookup-file", dir)

		require.NoError(t, err)
		assert.Contains(t, output, filepath.Join(dir, "Alien.1979.avi")+": Alien (1979) [id 348, by title]")
		assert.Contains(t, output, filepath.Join(dir, "Unknown.Thing.mkv")+": no matching movie")
	})

	t.Run("JSON", func(t *testing.T) {
		output, err := executeCommand(t, "", "lookup-file", filepath.Join(dir, "Alien.1979.avi"), "--json")

		require.NoError(t, err)
		var matches []processor.FileMatch
		require.NoError(t, json.Unmarshal([]byte(output), &matches))
		require.Len(t, matches, 1)
		require.NotNil(t, matches[0].Movie)
		assert.Equal(t, 348, matches[0].Movie.ID)
		assert.Equal(t, "title", matches[0].Source)
	})

	t.Run("MissingPath", func(t *testing.T) {
		_, err := executeCommand(t, "", "lookup-file", filepath.Join(dir, "missing"))
		assert.Error(t, err)
	})
}
