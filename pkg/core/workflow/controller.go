// Package workflow drives the editorial movie flow from submitted form fields.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	tmdb "github.com/angelospk/tmdb-go"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Form fields that select a workflow step.
const (
	FieldSearch        = "tmdb"
	FieldSearchQuery   = "tmdb_movie_search"
	FieldSelect        = "tmdb_select"
	FieldMovie         = "tmdb_movie"
	FieldSelectRelease = "tmdb_select_release"
	FieldCountry       = "tmdb_movie_country"
	FieldTrailerPicker = "tmdb_trailer"
	FieldTrailer       = "tmdb_movie_trailer"
)

// MovieAPI is the part of the API client the controller calls.
type MovieAPI interface {
	SearchMovies(ctx context.Context, title string) (*tmdb.MovieSearchResult, error)
	GetMovie(ctx context.Context, id int) (*tmdb.MovieRecord, error)
}

var _ MovieAPI = (*tmdb.Client)(nil)

// Hooks are called after the matching step ran. Any of them may be nil. OnSelect only
// runs for a selection that was kept; a rolled back one is reported through OnSave.
type Hooks struct {
	OnSearch func(ctx context.Context, itemID uint, query string, result *tmdb.MovieSearchResult, err error)
	OnSelect func(ctx context.Context, itemID uint, record *tmdb.MovieRecord)
	OnSave   func(ctx context.Context, itemID uint, outcome *Outcome)
}

// Outcome reports what one save did.
type Outcome struct {
	Skipped          bool
	Searched         bool
	SearchFailed     bool
	Selected         bool
	SelectRolledBack bool
	ReleaseSelected  bool
	ReleaseMatched   bool
	TrailerUpdated   bool
}

// Controller reacts to item saves.
type Controller struct {
	api    MovieAPI
	mapper *metadata.Mapper
	meta   host.MetaStore
	items  host.ItemStore
	hooks  Hooks
	guard  *Guard
	logger *log.Logger
}

// NewController creates a Controller. A nil logger falls back to a stdout text logger.
func NewController(api MovieAPI, mapper *metadata.Mapper, meta host.MetaStore, items host.ItemStore, hooks Hooks, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	return &Controller{
		api:    api,
		mapper: mapper,
		meta:   meta,
		items:  items,
		hooks:  hooks,
		guard:  NewGuard(defaultGuardTTL),
		logger: logger,
	}
}

// Register adds the controller as a save hook.
func (c *Controller) Register(d *host.Dispatcher) {
	d.AddSaveHook(func(ctx context.Context, ev host.SaveEvent) error {
		_, err := c.Save(ctx, ev)
		return err
	})
}

// Save runs the workflow for one save event. It runs at most once per request token;
// without a token it mints one so saves it triggers itself are ignored.
func (c *Controller) Save(ctx context.Context, ev host.SaveEvent) (*Outcome, error) {
	token := host.RequestToken(ctx)
	if token == "" {
		token = uuid.NewString()
		ctx = host.WithRequestToken(ctx, token)
	}
	if !c.guard.Enter(token) {
		c.logger.WithField("item_id", ev.ItemID).Debug("Workflow already ran for this request, skipping")
		return &Outcome{Skipped: true}, nil
	}

	sub := ev.Submission
	if !sub.CanEdit || sub.Autosave {
		return &Outcome{Skipped: true}, nil
	}

	logger := c.logger.WithFields(log.Fields{"item_id": ev.ItemID, "request": token})
	out := &Outcome{}
	form := sub.Form

	if _, ok := form[FieldSearch]; ok {
		if err := c.search(ctx, ev.ItemID, form.Get(FieldSearchQuery), out); err != nil {
			return out, err
		}
	}

	if _, ok := form[FieldSelect]; ok {
		if err := c.selectMovie(ctx, ev.ItemID, form.Get(FieldMovie), out); err != nil {
			return out, err
		}
	}

	if _, ok := form[FieldSelectRelease]; ok {
		if err := c.selectRelease(ctx, ev.ItemID, form.Get(FieldCountry), out); err != nil {
			return out, err
		}
	}

	if err := c.updateTrailer(ctx, ev.ItemID, form, out); err != nil {
		return out, err
	}

	if c.hooks.OnSave != nil {
		c.hooks.OnSave(ctx, ev.ItemID, out)
	}
	logger.WithFields(log.Fields{
		"searched": out.Searched,
		"selected": out.Selected,
		"release":  out.ReleaseSelected,
		"trailer":  out.TrailerUpdated,
	}).Debug("Workflow save complete")
	return out, nil
}

func (c *Controller) search(ctx context.Context, itemID uint, query string, out *Outcome) error {
	query = strings.TrimSpace(query)
	out.Searched = true

	result, err := c.api.SearchMovies(ctx, query)
	if c.hooks.OnSearch != nil {
		defer c.hooks.OnSearch(ctx, itemID, query, result, err)
	}
	if err != nil {
		out.SearchFailed = true
		c.logger.WithFields(log.Fields{"item_id": itemID, "query": query}).WithError(err).Warn("Movie search failed")
		return nil
	}

	if err := c.meta.DeleteMeta(ctx, itemID, metadata.SelectionKeys...); err != nil {
		return err
	}
	if err := c.meta.UpdateMeta(ctx, itemID, metadata.MetaSearch, query); err != nil {
		return err
	}
	raw := result.Raw
	if len(raw) == 0 {
		if raw, err = json.Marshal(result); err != nil {
			return fmt.Errorf("failed to encode search results: %w", err)
		}
	}
	return c.meta.UpdateMeta(ctx, itemID, metadata.MetaResults, string(raw))
}

func (c *Controller) selectMovie(ctx context.Context, itemID uint, movie string, out *Outcome) error {
	out.Selected = true
	logger := c.logger.WithFields(log.Fields{"item_id": itemID, "movie": movie})

	// Derived facts belong to the previous record.
	if err := c.meta.DeleteMeta(ctx, itemID, metadata.SelectionKeys...); err != nil {
		return err
	}

	record, err := c.enrich(ctx, itemID, movie)
	if err != nil {
		logger.WithError(err).Warn("Movie selection failed, rolling back")
		out.SelectRolledBack = true
		if derr := c.meta.DeleteMeta(ctx, itemID, metadata.MetaMovieID, metadata.MetaMovieData); derr != nil {
			return derr
		}
		return nil
	}

	if c.hooks.OnSelect != nil {
		c.hooks.OnSelect(ctx, itemID, record)
	}
	return nil
}

// enrich fetches and persists the record, maps its terms and replaces the item body.
func (c *Controller) enrich(ctx context.Context, itemID uint, movie string) (*tmdb.MovieRecord, error) {
	id, err := strconv.Atoi(strings.TrimSpace(movie))
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid movie id %q", movie)
	}
	record, err := c.api.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.meta.UpdateMeta(ctx, itemID, metadata.MetaMovieID, strconv.Itoa(record.ID)); err != nil {
		return nil, err
	}
	raw := record.Raw
	if len(raw) == 0 {
		if raw, err = json.Marshal(record); err != nil {
			return nil, fmt.Errorf("failed to encode movie record: %w", err)
		}
	}
	if err := c.meta.UpdateMeta(ctx, itemID, metadata.MetaMovieData, string(raw)); err != nil {
		return nil, err
	}
	trailers, err := json.Marshal(record.Trailers.Youtube)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trailers: %w", err)
	}
	if err := c.meta.UpdateMeta(ctx, itemID, metadata.MetaTrailers, string(trailers)); err != nil {
		return nil, err
	}

	terms, err := c.mapper.MapToTaxonomies(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := c.mapper.ApplyTerms(ctx, itemID, terms); err != nil {
		return nil, err
	}
	if err := c.mapper.ApplyCertificate(ctx, itemID, ""); err != nil {
		return nil, err
	}

	item, err := c.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	item.Content = metadata.FormatOverview(record.Overview)
	if item.Title == "" {
		item.Title = record.Title
	}
	if err := c.items.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Controller) selectRelease(ctx context.Context, itemID uint, country string, out *Outcome) error {
	out.ReleaseSelected = true

	var record *tmdb.MovieRecord
	data, ok, err := c.meta.GetMeta(ctx, itemID, metadata.MetaMovieData)
	if err != nil {
		return err
	}
	if ok && data != "" {
		if record, err = tmdb.DecodeMovieRecord([]byte(data)); err != nil {
			c.logger.WithField("item_id", itemID).WithError(err).Warn("Stored movie record is unreadable")
			record = nil
		}
	}

	sel, found := metadata.FindRelease(record, country)
	out.ReleaseMatched = found
	if !found {
		c.logger.WithFields(log.Fields{"item_id": itemID, "country": country}).Debug("No release for country")
	}

	if err := c.mapper.ApplyCertificate(ctx, itemID, sel.Certificate); err != nil {
		return err
	}
	for key, value := range map[string]string{
		metadata.MetaCertificate: sel.Certificate,
		metadata.MetaReleaseDate: sel.ReleaseDate,
		metadata.MetaCountry:     sel.CountryCode,
	} {
		if err := c.meta.UpdateMeta(ctx, itemID, key, value); err != nil {
			return err
		}
	}
	return nil
}

// updateTrailer stores the submitted trailer. The picker wins over the free-text field.
// Trailer fields posted together with a new search or selection belong to the replaced
// record and are ignored.
func (c *Controller) updateTrailer(ctx context.Context, itemID uint, form url.Values, out *Outcome) error {
	if (out.Searched && !out.SearchFailed) || out.Selected {
		return nil
	}
	field := ""
	if _, ok := form[FieldTrailerPicker]; ok {
		field = FieldTrailerPicker
	} else if _, ok := form[FieldTrailer]; ok {
		field = FieldTrailer
	}
	if field == "" {
		return nil
	}
	out.TrailerUpdated = true
	return c.meta.UpdateMeta(ctx, itemID, metadata.MetaTrailer, SanitizeURL(form.Get(field)))
}

// SanitizeURL returns raw when it is an absolute http(s) URL, otherwise "".
func SanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	}
	return ""
}

const defaultGuardTTL = 10 * time.Minute

// Guard lets a request token through once. Tokens are forgotten after ttl.
type Guard struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

// NewGuard creates a Guard.
func NewGuard(ttl time.Duration) *Guard {
	return &Guard{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

// Enter reports whether token is seen for the first time.
func (g *Guard) Enter(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for t, at := range g.seen {
		if now.Sub(at) > g.ttl {
			delete(g.seen, t)
		}
	}
	if _, ok := g.seen[token]; ok {
		return false
	}
	g.seen[token] = now
	return true
}
