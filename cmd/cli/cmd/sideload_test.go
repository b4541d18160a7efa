package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	tmdb "github.com/angelospk/tmdb-go"
	clicmd "github.com/angelospk/tmdb-go/cmd/cli/cmd"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
	"github.com/angelospk/tmdb-go/pkg/core/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSideloadCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 200))))
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".png") {
			w.Write(buf.Bytes())
			return
		}
		http.NotFound(w, r)
	}))
	defer images.Close()

	client := new(MockClient)
	dsn := testEnv(t, client)
	uploads := t.TempDir()
	setConfig(t, clicmd.CfgKeyUploadsDir, uploads)
	client.On("ImageConfig", mock.Anything).Return(tmdb.ImageConfig{BaseURL: images.URL + "/t/p/"})

	db, err := store.Open(store.Config{Driver: store.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	s := store.New(db, host.NewDispatcher())
	ctx := context.Background()

	item := &host.Item{Title: "Fight Club"}
	require.NoError(t, s.CreateItem(ctx, item))
	itemArg := strconv.FormatUint(uint64(item.ID), 10)

	t.Run("NoSelectedMovie", func(t *testing.T) {
		_, err := executeCommand(t, "", "sideload", itemArg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no selected movie")
	})

	t.Run("MissingItem", func(t *testing.T) {
		_, err := executeCommand(t, "", "sideload", "999")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "item 999 does not exist")
	})

	t.Run("Success", func(t *testing.T) {
		data, err := json.Marshal(fightClubRecord())
		require.NoError(t, err)
		require.NoError(t, s.UpdateMeta(ctx, item.ID, metadata.MetaMovieData, string(data)))

		output, err := executeCommand(t, "", "sideload", itemArg)

		require.NoError(t, err)
		assert.Contains(t, output, "Sideloading 3 images of Fight Club")
		assert.Contains(t, output, "[1/3] "+images.URL+"/t/p/original/b1.png -> attachment 1")
		assert.Contains(t, output, "[2/3] "+images.URL+"/t/p/original/p1.png -> attachment 2")
		assert.Contains(t, output, "[3/3] "+images.URL+"/t/p/original/gone.jpg skipped")
		assert.Contains(t, output, "Attached 2 of 3 images.")

		stored, _, err := s.GetMeta(ctx, item.ID, metadata.MetaImages)
		require.NoError(t, err)
		assert.Equal(t, []uint{1, 2}, metadata.DecodeImageIDs(stored))

		attachments, err := s.ListAttachments(ctx, item.ID)
		require.NoError(t, err)
		require.Len(t, attachments, 2)
		assert.True(t, strings.HasPrefix(attachments[0].FilePath, uploads))

		home, _ := os.UserHomeDir()
		_, err = os.Stat(filepath.Join(home, ".tmdbcli", "sideload_history.json"))
		assert.NoError(t, err, "finished sessions are kept in the history file")
	})
}
