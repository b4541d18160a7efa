// Package metadata maps movie records onto the host's taxonomies and meta keys.
package metadata

import (
	"encoding/json"
	"fmt"
	"strings"

	tmdb "github.com/angelospk/tmdb-go"
)

// Taxonomies the movie terms are filed under.
const (
	TaxonomyGenre       = "movie_genre"
	TaxonomyActor       = "movie_actor"
	TaxonomyDirector    = "movie_director"
	TaxonomyWriter      = "movie_writer"
	TaxonomyCertificate = "movie_certificate"
)

// Taxonomies lists every taxonomy in display order.
func Taxonomies() []string {
	return []string{TaxonomyGenre, TaxonomyActor, TaxonomyDirector, TaxonomyWriter, TaxonomyCertificate}
}

// Per-item meta keys.
const (
	MetaSearch      = "tmdb_movie_search"
	MetaResults     = "tmdb_movies"
	MetaMovieID     = "tmdb_movie_id"
	MetaMovieData   = "tmdb_movie_data"
	MetaTrailer     = "tmdb_movie_trailer"
	MetaTrailers    = "tmdb_movie_trailers"
	MetaCertificate = "tmdb_movie_certificate"
	MetaReleaseDate = "tmdb_movie_release_date"
	MetaCountry     = "tmdb_movie_country"
	MetaImages      = "tmdb_movie_images"
)

// SelectionKeys are the facts derived from the selected movie. They are cleared together
// whenever a new search or selection replaces the current record.
var SelectionKeys = []string{
	MetaMovieID,
	MetaMovieData,
	MetaTrailer,
	MetaTrailers,
	MetaCertificate,
	MetaReleaseDate,
	MetaCountry,
	MetaImages,
}

// PersonOptionPrefix prefixes the option mapping a term id to an external person id.
const PersonOptionPrefix = "tmdb_person_"

// PersonOption returns the option name for termID.
func PersonOption(termID uint) string {
	return fmt.Sprintf("%s%d", PersonOptionPrefix, termID)
}

// Terms holds the term names derived from a movie record, per taxonomy.
type Terms struct {
	Actors    []string `json:"actors"`
	Genres    []string `json:"genres"`
	Directors []string `json:"directors"`
	Writers   []string `json:"writers"`
}

// SelectedCertificate is the release picked for a country.
type SelectedCertificate struct {
	CountryCode string `json:"country_code"`
	Certificate string `json:"certificate"`
	ReleaseDate string `json:"release_date"`
}

// FindRelease returns the release entry for the country code, matched case-insensitively.
func FindRelease(record *tmdb.MovieRecord, countryCode string) (SelectedCertificate, bool) {
	code := strings.TrimSpace(countryCode)
	if record == nil || code == "" {
		return SelectedCertificate{}, false
	}
	for _, r := range record.Releases.Countries {
		if strings.EqualFold(r.ISO3166_1, code) {
			return SelectedCertificate{
				CountryCode: strings.ToUpper(r.ISO3166_1),
				Certificate: r.Certification,
				ReleaseDate: r.ReleaseDate,
			}, true
		}
	}
	return SelectedCertificate{}, false
}

// TrailerURLs returns the playable URL of every trailer, in record order.
func TrailerURLs(record *tmdb.MovieRecord) []string {
	if record == nil {
		return nil
	}
	urls := make([]string, 0, len(record.Trailers.Youtube))
	for _, t := range record.Trailers.Youtube {
		if t.Source == "" {
			continue
		}
		urls = append(urls, t.URL())
	}
	return urls
}

// DecodeImageIDs parses the stored attachment id list. Unreadable values yield nil.
func DecodeImageIDs(value string) []uint {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(value), &ids); err != nil {
		return nil
	}
	return ids
}

// EncodeImageIDs serializes an attachment id list for storage.
func EncodeImageIDs(ids []uint) string {
	if ids == nil {
		ids = []uint{}
	}
	data, _ := json.Marshal(ids)
	return string(data)
}
