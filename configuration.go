package tmdb

import (
	"context"
	"errors"
	"strings"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
)

// GetConfiguration fetches the image base URL and sizes. The result is cached for 30 days.
func (c *Client) GetConfiguration(ctx context.Context) (*Configuration, error) {
	resp, err := c.Call(ctx, MethodConfigurationGet, nil)
	if err != nil {
		return nil, err
	}
	var cfg Configuration
	if err := resp.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ImageConfig returns the image configuration, falling back to the built-in base URL when
// the configuration call is unavailable.
func (c *Client) ImageConfig(ctx context.Context) ImageConfig {
	cfg, err := c.GetConfiguration(ctx)
	if err != nil || cfg.Images.BaseURL == "" {
		if err != nil && !errors.Is(err, coreErrors.ErrUnknownMethod) {
			c.logger.WithError(err).Debug("Image configuration unavailable, using default base URL")
		}
		return ImageConfig{}
	}
	return cfg.Images
}

// ValidateAPIKey probes the API with a fixed title search. It reports whether the key was
// accepted and, when it was not, the message to show.
func (c *Client) ValidateAPIKey(ctx context.Context) (bool, string) {
	_, err := c.SearchMovies(ctx, validationProbeTitle)
	if err == nil {
		return true, ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false, statusErr.Message
	}
	return false, strings.TrimPrefix(err.Error(), "tmdb: ")
}

const validationProbeTitle = "Orgazmo"
