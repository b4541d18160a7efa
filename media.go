package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
)

// Methods related to media files identified by their OpenSubtitles-style hash

// GetMediaInfo looks up the movie a video file belongs to by its hash and byte size.
func (c *Client) GetMediaInfo(ctx context.Context, hash string, byteSize int64) (*MovieSummary, error) {
	resp, err := c.Call(ctx, MethodMediaGetInfo, url.Values{
		"hash":     {hash},
		"bytesize": {strconv.FormatInt(byteSize, 10)},
	})
	if err != nil {
		return nil, err
	}
	raw, err := resp.First()
	if err != nil {
		return nil, err
	}
	var summary MovieSummary
	if err := decodeInto(raw, &summary, resp.Method); err != nil {
		return nil, err
	}
	return &summary, nil
}

// AddMediaID links a file hash to a movie. Requires a session key.
func (c *Client) AddMediaID(ctx context.Context, movieID int, hash string, byteSize int64) error {
	_, err := c.Call(ctx, MethodMediaAddID, url.Values{
		"id":       {strconv.Itoa(movieID)},
		"hash":     {hash},
		"bytesize": {strconv.FormatInt(byteSize, 10)},
	})
	return err
}

func decodeInto(raw json.RawMessage, target interface{}, method string) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", coreErrors.ErrMalformedPayload, method, err)
	}
	return nil
}
