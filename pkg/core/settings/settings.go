// Package settings stores the API key and its validity flag in the site options.
package settings

import (
	"context"
	"os"
	"regexp"
	"strings"

	tmdb "github.com/angelospk/tmdb-go"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	log "github.com/sirupsen/logrus"
)

// Option names.
const (
	OptionAPIKey   = "tmdb_api_key"
	OptionValidKey = "tmdb_valid_key"
)

// ProbeFunc checks a candidate key against the API. It reports whether the key works
// and, when it does not, a message for the editor.
type ProbeFunc func(ctx context.Context, key string) (bool, string)

// ClientProbe returns a ProbeFunc that validates keys with a fresh client built from base.
// The probe client has its own cache so a previous key's results are never reused.
func ClientProbe(base tmdb.Config, logger *log.Logger) ProbeFunc {
	return func(ctx context.Context, key string) (bool, string) {
		cfg := base
		cfg.ApiKey = key
		client, err := tmdb.NewClient(cfg, nil, logger)
		if err != nil {
			return false, err.Error()
		}
		return client.ValidateAPIKey(ctx)
	}
}

// Result is the outcome of saving a key.
type Result struct {
	Key     string
	Valid   bool
	Message string
}

// Settings reads and writes the API key options.
type Settings struct {
	options  host.OptionStore
	probe    ProbeFunc
	onChange func(key string)
	logger   *log.Logger
}

// New creates Settings. onChange, when set, is called with every newly validated key.
func New(options host.OptionStore, probe ProbeFunc, onChange func(key string), logger *log.Logger) *Settings {
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	return &Settings{options: options, probe: probe, onChange: onChange, logger: logger}
}

var keyChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SanitizeKey strips everything but the characters API keys are made of.
func SanitizeKey(raw string) string {
	return keyChars.ReplaceAllString(strings.TrimSpace(raw), "")
}

// SaveAPIKey stores the sanitized key and records whether the API accepted it.
func (s *Settings) SaveAPIKey(ctx context.Context, raw string) (*Result, error) {
	key := SanitizeKey(raw)
	res := &Result{Key: key}

	if key == "" {
		res.Message = "Please enter an API key."
	} else {
		res.Valid, res.Message = s.probe(ctx, key)
	}

	if err := s.options.UpdateOption(ctx, OptionAPIKey, key); err != nil {
		return nil, err
	}
	valid := "0"
	if res.Valid {
		valid = "1"
	}
	if err := s.options.UpdateOption(ctx, OptionValidKey, valid); err != nil {
		return nil, err
	}

	s.logger.WithFields(log.Fields{"valid": res.Valid}).Info("API key saved")
	if res.Valid && s.onChange != nil {
		s.onChange(key)
	}
	return res, nil
}

// APIKey returns the stored key, or "" when none is set.
func (s *Settings) APIKey(ctx context.Context) (string, error) {
	key, _, err := s.options.GetOption(ctx, OptionAPIKey)
	return key, err
}

// IsValid reports whether the stored key passed validation.
func (s *Settings) IsValid(ctx context.Context) (bool, error) {
	v, _, err := s.options.GetOption(ctx, OptionValidKey)
	return v == "1", err
}
