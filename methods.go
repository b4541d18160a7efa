package tmdb

import (
	"sort"
	"time"

	"github.com/angelospk/tmdb-go/internal/constants"
)

// Supported remote methods.
const (
	MethodAuthGetSession       = "Auth.getSession"
	MethodAuthGetToken         = "Auth.getToken"
	MethodMediaAddID           = "Media.addID"
	MethodMediaGetInfo         = "Media.getInfo"
	MethodMovieAddRating       = "Movie.addRating"
	MethodMovieBrowse          = "Movie.browse"
	MethodMovieGetImages       = "Movie.getImages"
	MethodMovieGetInfo         = "Movie.getInfo"
	MethodMovieGetLatest       = "Movie.getLatest"
	MethodMovieGetTranslations = "Movie.getTranslations"
	MethodMovieGetVersion      = "Movie.getVersion"
	MethodMovieIMDbLookup      = "Movie.imdbLookup"
	MethodMovieSearch          = "Movie.search"
	MethodPersonGetInfo        = "Person.getInfo"
	MethodPersonGetLatest      = "Person.getLatest"
	MethodPersonGetVersion     = "Person.getVersion"
	MethodPersonSearch         = "Person.search"
	MethodGenresGetList        = "Genres.getList"
	MethodConfigurationGet     = "Configuration.get"
)

type methodInfo struct {
	write bool
	// ttl overrides the client default when non-zero.
	ttl time.Duration
}

var methodTable = map[string]methodInfo{
	MethodAuthGetSession:       {},
	MethodAuthGetToken:         {},
	MethodMediaAddID:           {write: true},
	MethodMediaGetInfo:         {},
	MethodMovieAddRating:       {write: true},
	MethodMovieBrowse:          {},
	MethodMovieGetImages:       {},
	MethodMovieGetInfo:         {},
	MethodMovieGetLatest:       {},
	MethodMovieGetTranslations: {},
	MethodMovieGetVersion:      {},
	MethodMovieIMDbLookup:      {},
	MethodMovieSearch:          {},
	MethodPersonGetInfo:        {},
	MethodPersonGetLatest:      {},
	MethodPersonGetVersion:     {},
	MethodPersonSearch:         {},
	MethodGenresGetList:        {},
	MethodConfigurationGet:     {ttl: constants.ConfigurationCacheTTL},
}

// IsSupportedMethod reports whether name is in the fixed method table.
func IsSupportedMethod(name string) bool {
	_, ok := methodTable[name]
	return ok
}

// IsWriteMethod reports whether name is sent as a form POST.
func IsWriteMethod(name string) bool {
	return methodTable[name].write
}

// Methods lists the supported method names in sorted order.
func Methods() []string {
	names := make([]string, 0, len(methodTable))
	for name := range methodTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
