package tmdb

import (
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/angelospk/tmdb-go/internal/constants"
	"github.com/angelospk/tmdb-go/internal/httpclient"
	"github.com/angelospk/tmdb-go/pkg/core/cache"
	log "github.com/sirupsen/logrus"
)

// Config holds the configuration for the movie database client.
type Config struct {
	ApiKey     string
	Language   string // Optional: defaults to "en"
	BaseURL    string // Optional: Override default base URL
	Version    string // Optional: defaults to "2.1"
	UserAgent  string
	SessionKey string // Optional: needed only by write calls

	CacheTTL          time.Duration // Optional: defaults to one hour
	RequestsPerSecond float64       // Optional: <= 0 means the default rate
	Timeout           time.Duration
}

// Client is the movie database API client. It is an explicit service object:
// construct one per configuration and pass it to whoever needs it.
type Client struct {
	config Config
	http   *httpclient.Client
	cache  cache.Store
	logger *log.Logger

	mu         sync.RWMutex // Protects sessionKey
	sessionKey string
}

// NewClient creates a new API client. A nil store gets an in-memory cache and a nil
// logger gets a default text logger. An empty API key is accepted here and reported
// by the first call.
func NewClient(config Config, store cache.Store, logger *log.Logger) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = constants.DefaultBaseURL
	} else if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid BaseURL provided: %w", err)
	}
	if config.Language == "" {
		config.Language = constants.DefaultLanguage
	}
	if config.Version == "" {
		config.Version = constants.APIVersion
	}
	if config.UserAgent == "" {
		config.UserAgent = constants.DefaultUserAgent
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = constants.DefaultCacheTTL
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = constants.DefaultRequestsPerSecond
	}
	if store == nil {
		store = cache.NewMemoryStore()
	}
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}

	return &Client{
		config: config,
		http: httpclient.New(httpclient.Options{
			BaseURL:           config.BaseURL,
			Version:           config.Version,
			Language:          config.Language,
			Format:            constants.DefaultFormat,
			APIKey:            config.ApiKey,
			UserAgent:         config.UserAgent,
			RequestsPerSecond: config.RequestsPerSecond,
			Timeout:           config.Timeout,
		}),
		cache:      store,
		logger:     logger,
		sessionKey: config.SessionKey,
	}, nil
}

// SetAPIKey replaces the API key used by subsequent calls.
func (c *Client) SetAPIKey(key string) {
	c.http.SetAPIKey(key)
}

// SetSessionKey stores the session key used by write calls. An empty key clears it.
func (c *Client) SetSessionKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionKey = key
}

// GetCurrentSessionKey returns the stored session key, or "" when none is set.
func (c *Client) GetCurrentSessionKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionKey
}

// Language returns the language segment sent with read calls.
func (c *Client) Language() string {
	return c.http.Language()
}

// Config returns the configuration the client was built with, defaults applied.
func (c *Client) Config() Config {
	cfg := c.config
	cfg.ApiKey = c.http.APIKey()
	return cfg
}
