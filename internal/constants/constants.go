package constants

import "time"

// DefaultBaseURL is the standard base URL for the movie database API.
const DefaultBaseURL = "http://api.themoviedb.org"

// APIVersion is the path segment placed between the base URL and the method name.
const APIVersion = "2.1"

// DefaultLanguage and DefaultFormat fill the language and format path segments of read calls.
const (
	DefaultLanguage = "en"
	DefaultFormat   = "json"
)

// DefaultUserAgent is sent with every outbound request unless overridden.
const DefaultUserAgent = "tmdb-go/1.0"

// Cache lifetimes.
const (
	DefaultCacheTTL       = time.Hour
	ConfigurationCacheTTL = 30 * 24 * time.Hour
)

// CacheKeyPrefix prefixes every response cache key.
const CacheKeyPrefix = "tmdb_"

// YouTubeWatchURL is the prefix of a trailer URL; the trailer source id is appended.
const YouTubeWatchURL = "http://www.youtube.com/watch?v="

// DefaultImageBaseURL is used when the configuration call is unavailable.
const DefaultImageBaseURL = "http://cf2.imgobject.com/t/p/"

// OriginalImageSize is the size segment requested for sideloaded images.
const OriginalImageSize = "original"

// Thumbnail geometry for the "tmdb-thumb" image size.
const (
	ThumbSizeName = "tmdb-thumb"
	ThumbWidth    = 150
	ThumbHeight   = 150
)

// DefaultRequestsPerSecond bounds outbound API traffic.
const DefaultRequestsPerSecond = 10
