package cmd_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	tmdb "github.com/angelospk/tmdb-go"
	clicmd "github.com/angelospk/tmdb-go/cmd/cli/cmd"
	"github.com/angelospk/tmdb-go/pkg/core/cache"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of clicmd.MovieClient using testify/mock
type MockClient struct {
	mock.Mock
	configs []tmdb.Config
}

var _ clicmd.MovieClient = (*MockClient)(nil)

func (m *MockClient) SearchMovies(ctx context.Context, title string) (*tmdb.MovieSearchResult, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.MovieSearchResult), args.Error(1)
}

func (m *MockClient) GetMovie(ctx context.Context, id int) (*tmdb.MovieRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.MovieRecord), args.Error(1)
}

func (m *MockClient) GetMediaInfo(ctx context.Context, hash string, byteSize int64) (*tmdb.MovieSummary, error) {
	args := m.Called(ctx, hash, byteSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.MovieSummary), args.Error(1)
}

func (m *MockClient) ImageConfig(ctx context.Context) tmdb.ImageConfig {
	args := m.Called(ctx)
	return args.Get(0).(tmdb.ImageConfig)
}

func (m *MockClient) ValidateAPIKey(ctx context.Context) (bool, string) {
	args := m.Called(ctx)
	return args.Bool(0), args.String(1)
}

func (m *MockClient) SetAPIKey(key string) {
	m.Called(key)
}

// setConfig overrides a viper key for the duration of the test.
func setConfig(t *testing.T, key string, value interface{}) {
	t.Helper()
	prev := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, prev) })
}

// testEnv isolates the home directory and the database and installs the mock client.
func testEnv(t *testing.T, client *MockClient) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dsn := filepath.Join(t.TempDir(), "cli.db")
	setConfig(t, clicmd.CfgKeyAPIKey, "test-api-key")
	setConfig(t, clicmd.CfgKeyDatabaseDriver, "sqlite")
	setConfig(t, clicmd.CfgKeyDatabaseDSN, dsn)
	setConfig(t, clicmd.CfgKeyLogLevel, "error")

	original := clicmd.NewTMDBClientFunc
	t.Cleanup(func() { clicmd.NewTMDBClientFunc = original })
	clicmd.NewTMDBClientFunc = func(cfg tmdb.Config, responses cache.Store, logger *logrus.Logger) (clicmd.MovieClient, error) {
		client.configs = append(client.configs, cfg)
		return client, nil
	}
	return dsn
}

// resetFlags puts every flag of the command tree back to its default.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with args and returns stdout and the error.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(clicmd.RootCmd)

	out := bytes.NewBufferString("")
	clicmd.RootCmd.SetOut(out)
	clicmd.RootCmd.SetErr(bytes.NewBufferString(""))
	clicmd.RootCmd.SetIn(strings.NewReader(stdin))
	clicmd.RootCmd.SetArgs(args)
	defer clicmd.RootCmd.SetArgs([]string{})

	err := clicmd.RootCmd.Execute()
	return out.String(), err
}
