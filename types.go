package tmdb

import (
	"encoding/json"

	"github.com/angelospk/tmdb-go/internal/constants"
)

// --- Movies --- //

// MovieSummary is one entry of a movie search or browse listing.
type MovieSummary struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	ReleaseDate   string  `json:"release_date"`
	PosterPath    string  `json:"poster_path,omitempty"`
	Popularity    float64 `json:"popularity,omitempty"`
}

// Year returns the four-digit release year, or "" when the date is unknown.
func (m MovieSummary) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// MovieSearchResult is the normalized result of a movie search.
type MovieSearchResult struct {
	Page         int            `json:"page,omitempty"`
	TotalResults int            `json:"total_results,omitempty"`
	TotalPages   int            `json:"total_pages,omitempty"`
	Results      []MovieSummary `json:"results"`

	// Raw is the normalized body as received, persisted verbatim by callers.
	Raw json.RawMessage `json:"-"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	Order       int    `json:"order,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
}

type CrewMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Department  string `json:"department"`
	Job         string `json:"job,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type Image struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	AspectRatio float64 `json:"aspect_ratio,omitempty"`
	ISO639_1    string  `json:"iso_639_1,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
}

type Images struct {
	Backdrops []Image `json:"backdrops"`
	Posters   []Image `json:"posters"`
}

// ReleaseEntry is the release of a movie in one country.
type ReleaseEntry struct {
	ISO3166_1     string `json:"iso_3166_1"`
	Certification string `json:"certification"`
	ReleaseDate   string `json:"release_date"`
}

type Releases struct {
	Countries []ReleaseEntry `json:"countries"`
}

// TrailerRef points at a hosted trailer video.
type TrailerRef struct {
	Name   string `json:"name"`
	Size   string `json:"size,omitempty"`
	Source string `json:"source"`
	Type   string `json:"type,omitempty"`
}

// URL returns the watch page for the trailer.
func (t TrailerRef) URL() string {
	return constants.YouTubeWatchURL + t.Source
}

type Trailers struct {
	Youtube []TrailerRef `json:"youtube"`
}

type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Keywords struct {
	Keywords []Keyword `json:"keywords"`
}

// MovieRecord is the full detail record of one movie, sub-resources included.
type MovieRecord struct {
	ID            int      `json:"id"`
	IMDbID        string   `json:"imdb_id,omitempty"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	Tagline       string   `json:"tagline,omitempty"`
	Overview      string   `json:"overview"`
	ReleaseDate   string   `json:"release_date,omitempty"`
	Runtime       int      `json:"runtime,omitempty"`
	Homepage      string   `json:"homepage,omitempty"`
	Genres        []Genre  `json:"genres"`
	Casts         Credits  `json:"casts"`
	Images        Images   `json:"images"`
	Releases      Releases `json:"releases"`
	Trailers      Trailers `json:"trailers"`
	Keywords      Keywords `json:"keywords"`

	// Raw is the record as received, persisted verbatim by callers.
	Raw json.RawMessage `json:"-"`
}

// DecodeMovieRecord parses a persisted record. The returned record keeps data as Raw.
func DecodeMovieRecord(data []byte) (*MovieRecord, error) {
	var record MovieRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	record.Raw = append(json.RawMessage(nil), data...)
	return &record, nil
}

// BrowseParams filters Movie.browse.
type BrowseParams struct {
	OrderBy        string  `url:"order_by"`
	Order          string  `url:"order"`
	PerPage        int     `url:"per_page,omitempty"`
	Page           int     `url:"page,omitempty"`
	Query          string  `url:"query,omitempty"`
	MinVotes       int     `url:"min_votes,omitempty"`
	RatingMin      float64 `url:"rating_min,omitempty"`
	RatingMax      float64 `url:"rating_max,omitempty"`
	Genres         string  `url:"genres,omitempty"`
	ReleaseMin     string  `url:"release_min,omitempty"`
	ReleaseMax     string  `url:"release_max,omitempty"`
	Year           int     `url:"year,omitempty"`
	Certifications string  `url:"certifications,omitempty"`
	Countries      string  `url:"countries,omitempty"`
}

type Translation struct {
	ISO639_1    string `json:"iso_639_1"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
}

type MovieTranslations struct {
	ID           int           `json:"id"`
	Translations []Translation `json:"translations"`
}

// VersionInfo reports the revision of a movie or person record.
type VersionInfo struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Version        int    `json:"version"`
	LastModifiedAt string `json:"last_modified_at"`
}

// --- People --- //

type PersonSummary struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	ProfilePath string  `json:"profile_path,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
}

type PersonSearchResult struct {
	Results []PersonSummary `json:"results"`
}

type Person struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Biography    string `json:"biography,omitempty"`
	Birthday     string `json:"birthday,omitempty"`
	PlaceOfBirth string `json:"place_of_birth,omitempty"`
	ProfilePath  string `json:"profile_path,omitempty"`
}

// --- Genres, auth, configuration --- //

type GenreList struct {
	Genres []Genre `json:"genres"`
}

type AuthToken struct {
	Token string `json:"token"`
}

type Session struct {
	SessionKey string `json:"session_key"`
	Username   string `json:"username,omitempty"`
}

// ImageConfig describes how image paths are turned into URLs.
type ImageConfig struct {
	BaseURL       string   `json:"base_url"`
	SecureBaseURL string   `json:"secure_base_url,omitempty"`
	BackdropSizes []string `json:"backdrop_sizes,omitempty"`
	PosterSizes   []string `json:"poster_sizes,omitempty"`
	ProfileSizes  []string `json:"profile_sizes,omitempty"`
}

type Configuration struct {
	Images ImageConfig `json:"images"`
}

// ImageURL joins the base URL, a size segment and an image file path.
func (c ImageConfig) ImageURL(filePath, size string) string {
	base := c.BaseURL
	if base == "" {
		base = constants.DefaultImageBaseURL
	}
	if size == "" {
		size = constants.OriginalImageSize
	}
	if len(base) > 0 && base[len(base)-1] != '/' {
		base += "/"
	}
	if len(filePath) > 0 && filePath[0] == '/' {
		filePath = filePath[1:]
	}
	return base + size + "/" + filePath
}
