// Package view renders the editor meta box, the settings section and the public item page.
package view

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	tmdb "github.com/angelospk/tmdb-go"
	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
)

// State is everything the meta box shows for one item.
type State struct {
	Item *host.Item

	Query    string
	Results  []tmdb.MovieSummary
	MovieID  int
	Record   *tmdb.MovieRecord
	Trailer  string
	Trailers []tmdb.TrailerRef

	Country     string
	Certificate string
	ReleaseDate string

	Images []host.Attachment

	// ImageURLs are the remote images the "Grab images" chain downloads.
	ImageURLs []string
	// Nonce authorizes the sideload requests for this item.
	Nonce string
	// MediaURL maps a stored file path to its public URL.
	MediaURL func(filePath string) string
}

// LoadState reads the item's persisted movie facts. Unreadable JSON values are treated as
// absent.
func LoadState(ctx context.Context, meta host.MetaStore, media host.MediaStore, item *host.Item) (*State, error) {
	st := &State{Item: item}
	get := func(key string) (string, error) {
		v, _, err := meta.GetMeta(ctx, item.ID, key)
		return v, err
	}

	var err error
	if st.Query, err = get(metadata.MetaSearch); err != nil {
		return nil, err
	}
	results, err := get(metadata.MetaResults)
	if err != nil {
		return nil, err
	}
	if results != "" {
		var decoded tmdb.MovieSearchResult
		if json.Unmarshal([]byte(results), &decoded) == nil {
			st.Results = decoded.Results
		}
	}

	movieID, err := get(metadata.MetaMovieID)
	if err != nil {
		return nil, err
	}
	st.MovieID, _ = strconv.Atoi(movieID)

	data, err := get(metadata.MetaMovieData)
	if err != nil {
		return nil, err
	}
	if data != "" {
		if record, err := tmdb.DecodeMovieRecord([]byte(data)); err == nil {
			st.Record = record
		}
	}

	if st.Trailer, err = get(metadata.MetaTrailer); err != nil {
		return nil, err
	}
	trailers, err := get(metadata.MetaTrailers)
	if err != nil {
		return nil, err
	}
	if trailers != "" {
		_ = json.Unmarshal([]byte(trailers), &st.Trailers)
	} else if st.Record != nil {
		st.Trailers = st.Record.Trailers.Youtube
	}

	if st.Country, err = get(metadata.MetaCountry); err != nil {
		return nil, err
	}
	if st.Certificate, err = get(metadata.MetaCertificate); err != nil {
		return nil, err
	}
	if st.ReleaseDate, err = get(metadata.MetaReleaseDate); err != nil {
		return nil, err
	}

	images, err := get(metadata.MetaImages)
	if err != nil {
		return nil, err
	}
	for _, id := range metadata.DecodeImageIDs(images) {
		att, err := media.GetAttachment(ctx, id)
		if errors.Is(err, coreErrors.ErrItemNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		st.Images = append(st.Images, *att)
	}
	return st, nil
}

// imageCounts returns the number of original-size posters and backdrops on the record.
func (s *State) imageCounts() (posters, backdrops int) {
	if s.Record == nil {
		return 0, 0
	}
	return len(s.Record.Images.Posters), len(s.Record.Images.Backdrops)
}

func (s *State) mediaURL(filePath string) string {
	if s.MediaURL != nil {
		return s.MediaURL(filePath)
	}
	return filePath
}
