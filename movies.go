package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
)

// Methods related to movies

// movieAppend lists the sub-resources fetched together with a movie record.
const movieAppend = "casts,images,keywords,releases,trailers"

// SearchMovies searches movies by title. Raw carries the normalized body so it can be
// persisted verbatim.
func (c *Client) SearchMovies(ctx context.Context, title string) (*MovieSearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty search title", coreErrors.ErrInvalidParameters)
	}
	resp, err := c.Call(ctx, MethodMovieSearch, PathArg(title))
	if err != nil {
		return nil, err
	}
	var result MovieSearchResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	if result.Results == nil {
		result.Results = []MovieSummary{}
	}
	result.Raw = resp.Body
	return &result, nil
}

// GetMovie fetches the full record of a movie including cast, crew, images, keywords,
// releases and trailers.
func (c *Client) GetMovie(ctx context.Context, id int) (*MovieRecord, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: movie id must be positive", coreErrors.ErrInvalidParameters)
	}
	args := url.Values{
		"id":                 {strconv.Itoa(id)},
		"append_to_response": {movieAppend},
	}
	resp, err := c.Call(ctx, MethodMovieGetInfo, args)
	if err != nil {
		return nil, err
	}
	return decodeMovieRecord(resp)
}

func decodeMovieRecord(resp *Response) (*MovieRecord, error) {
	raw, err := resp.First()
	if err != nil {
		return nil, err
	}
	record, err := DecodeMovieRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", coreErrors.ErrMalformedPayload, resp.Method, err)
	}
	if record.ID == 0 {
		return nil, fmt.Errorf("%w: %s returned a record without id", coreErrors.ErrMalformedPayload, resp.Method)
	}
	return record, nil
}

// GetMovieImages fetches only the posters and backdrops of a movie.
func (c *Client) GetMovieImages(ctx context.Context, id int) (*Images, error) {
	resp, err := c.Call(ctx, MethodMovieGetImages, PathArg(strconv.Itoa(id)))
	if err != nil {
		return nil, err
	}
	raw, err := resp.First()
	if err != nil {
		return nil, err
	}
	var images Images
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil, fmt.Errorf("%w: decoding images: %v", coreErrors.ErrMalformedPayload, err)
	}
	return &images, nil
}

// GetLatestMovie returns the most recently added movie.
func (c *Client) GetLatestMovie(ctx context.Context) (*MovieRecord, error) {
	resp, err := c.Call(ctx, MethodMovieGetLatest, nil)
	if err != nil {
		return nil, err
	}
	return decodeMovieRecord(resp)
}

// GetMovieTranslations lists the languages a movie has been translated into.
func (c *Client) GetMovieTranslations(ctx context.Context, id int) (*MovieTranslations, error) {
	resp, err := c.Call(ctx, MethodMovieGetTranslations, PathArg(strconv.Itoa(id)))
	if err != nil {
		return nil, err
	}
	raw, err := resp.First()
	if err != nil {
		return nil, err
	}
	var translations MovieTranslations
	if err := json.Unmarshal(raw, &translations); err != nil {
		return nil, fmt.Errorf("%w: decoding translations: %v", coreErrors.ErrMalformedPayload, err)
	}
	return &translations, nil
}

// GetMovieVersion reports the revision of a movie record.
func (c *Client) GetMovieVersion(ctx context.Context, id int) (*VersionInfo, error) {
	return c.version(ctx, MethodMovieGetVersion, id)
}

func (c *Client) version(ctx context.Context, method string, id int) (*VersionInfo, error) {
	resp, err := c.Call(ctx, method, PathArg(strconv.Itoa(id)))
	if err != nil {
		return nil, err
	}
	raw, err := resp.First()
	if err != nil {
		return nil, err
	}
	var info VersionInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("%w: decoding version: %v", coreErrors.ErrMalformedPayload, err)
	}
	return &info, nil
}

// LookupIMDb resolves an IMDb id (tt1234567) to a movie record.
func (c *Client) LookupIMDb(ctx context.Context, imdbID string) (*MovieRecord, error) {
	imdbID = strings.TrimSpace(imdbID)
	if !strings.HasPrefix(imdbID, "tt") {
		imdbID = "tt" + imdbID
	}
	resp, err := c.Call(ctx, MethodMovieIMDbLookup, PathArg(imdbID))
	if err != nil {
		return nil, err
	}
	return decodeMovieRecord(resp)
}

// BrowseMovies lists movies matching the filter.
func (c *Client) BrowseMovies(ctx context.Context, params BrowseParams) ([]MovieSummary, error) {
	if params.OrderBy == "" {
		params.OrderBy = "rating"
	}
	if params.Order == "" {
		params.Order = "desc"
	}
	resp, err := c.Call(ctx, MethodMovieBrowse, params)
	if err != nil {
		return nil, err
	}
	var result MovieSearchResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// AddMovieRating submits a rating (0-10) for a movie. Requires a session key.
func (c *Client) AddMovieRating(ctx context.Context, id int, rating float64) error {
	if rating < 0 || rating > 10 {
		return fmt.Errorf("%w: rating must be between 0 and 10", coreErrors.ErrInvalidParameters)
	}
	_, err := c.Call(ctx, MethodMovieAddRating, url.Values{
		"id":    {strconv.Itoa(id)},
		"value": {strconv.FormatFloat(rating, 'f', 1, 64)},
	})
	return err
}
