package settings_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tmdb "github.com/angelospk/tmdb-go"
	"github.com/angelospk/tmdb-go/pkg/core/settings"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOptions map[string]string

func (m memOptions) GetOption(ctx context.Context, name string) (string, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

func (m memOptions) AddOption(ctx context.Context, name, value string) (bool, error) {
	if _, ok := m[name]; ok {
		return false, nil
	}
	m[name] = value
	return true, nil
}

func (m memOptions) UpdateOption(ctx context.Context, name, value string) error {
	m[name] = value
	return nil
}

func (m memOptions) DeleteOption(ctx context.Context, name string) error {
	delete(m, name)
	return nil
}

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "abc123_-X", settings.SanitizeKey("  abc<123>_-X \n"))
	assert.Equal(t, "", settings.SanitizeKey(" <> "))
}

func TestSaveAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		opts := memOptions{}
		var changed []string
		probe := func(ctx context.Context, key string) (bool, string) {
			assert.Equal(t, "goodkey", key)
			return true, ""
		}
		s := settings.New(opts, probe, func(key string) { changed = append(changed, key) }, quietLogger())

		res, err := s.SaveAPIKey(ctx, " goodkey ")
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Message)
		assert.Equal(t, "goodkey", opts[settings.OptionAPIKey])
		assert.Equal(t, "1", opts[settings.OptionValidKey])
		assert.Equal(t, []string{"goodkey"}, changed)

		key, err := s.APIKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, "goodkey", key)
		valid, err := s.IsValid(ctx)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("Invalid", func(t *testing.T) {
		opts := memOptions{settings.OptionValidKey: "1"}
		called := false
		probe := func(ctx context.Context, key string) (bool, string) {
			return false, "Invalid API key - You must be granted a valid key."
		}
		s := settings.New(opts, probe, func(string) { called = true }, quietLogger())

		res, err := s.SaveAPIKey(ctx, "badkey")
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, "Invalid API key - You must be granted a valid key.", res.Message)
		assert.Equal(t, "badkey", opts[settings.OptionAPIKey], "rejected keys are still stored")
		assert.Equal(t, "0", opts[settings.OptionValidKey])
		assert.False(t, called)
	})

	t.Run("Empty", func(t *testing.T) {
		opts := memOptions{}
		probe := func(ctx context.Context, key string) (bool, string) {
			t.Fatal("empty keys must not be probed")
			return false, ""
		}
		s := settings.New(opts, probe, nil, quietLogger())

		res, err := s.SaveAPIKey(ctx, "   ")
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, "Please enter an API key.", res.Message)
		assert.Equal(t, "", opts[settings.OptionAPIKey])
		assert.Equal(t, "0", opts[settings.OptionValidKey])
	})
}

func TestClientProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/goodkey/") {
			_, _ = io.WriteString(w, `[{"id":1,"title":"Orgazmo"}]`)
			return
		}
		_, _ = io.WriteString(w, `{"status_code":7}`)
	}))
	t.Cleanup(server.Close)

	probe := settings.ClientProbe(tmdb.Config{BaseURL: server.URL}, quietLogger())
	ctx := context.Background()

	ok, msg := probe(ctx, "goodkey")
	assert.True(t, ok)
	assert.Empty(t, msg)

	ok, msg = probe(ctx, "badkey")
	assert.False(t, ok)
	assert.Equal(t, "Invalid API key - You must be granted a valid key.", msg)
}
