package view_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	tmdb "github.com/angelospk/tmdb-go"
	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
	"github.com/angelospk/tmdb-go/pkg/core/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"
)

func render(t *testing.T, n g.Node) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, n.Render(&buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func fightClub() *tmdb.MovieRecord {
	return &tmdb.MovieRecord{
		ID:    550,
		Title: "Fight Club",
		Images: tmdb.Images{
			Backdrops: []tmdb.Image{{FilePath: "/b1.jpg"}},
			Posters:   []tmdb.Image{{FilePath: "/p1.jpg"}, {FilePath: "/p2.jpg"}},
		},
		Releases: tmdb.Releases{Countries: []tmdb.ReleaseEntry{
			{ISO3166_1: "US", Certification: "R", ReleaseDate: "1999-10-15"},
			{ISO3166_1: "GB", Certification: "18", ReleaseDate: "1999-11-12"},
		}},
		Trailers: tmdb.Trailers{Youtube: []tmdb.TrailerRef{
			{Name: "Trailer 1", Source: "abc123"},
			{Name: "Trailer 2", Source: "def456"},
		}},
	}
}

func TestMetaBoxSearchResults(t *testing.T) {
	st := &view.State{
		Item:  &host.Item{ID: 7, Title: "Fight Club"},
		Query: "fight club",
		Results: []tmdb.MovieSummary{
			{ID: 550, Title: "Fight Club", ReleaseDate: "1999-10-15"},
			{ID: 14476, Title: "Clubbed", ReleaseDate: ""},
		},
	}
	doc := render(t, view.MetaBox(st))

	query, _ := doc.Find(`input[name="tmdb_movie_search"]`).Attr("value")
	assert.Equal(t, "fight club", query)
	assert.Equal(t, 1, doc.Find(`input[type="submit"][name="tmdb"]`).Length())
	assert.Equal(t, 0, doc.Find(".tmdb-title-hint").Length())

	radios := doc.Find(`input[type="radio"][name="tmdb_movie"]`)
	require.Equal(t, 2, radios.Length())
	_, checked := radios.Eq(0).Attr("checked")
	assert.True(t, checked, "first result is preselected")
	_, checked = radios.Eq(1).Attr("checked")
	assert.False(t, checked)
	assert.Equal(t, "Fight Club, 1999", strings.TrimSpace(doc.Find(".tmdb-results li").Eq(0).Text()))
	assert.Equal(t, "Clubbed", strings.TrimSpace(doc.Find(".tmdb-results li").Eq(1).Text()))
	assert.Equal(t, 1, doc.Find(`input[name="tmdb_select"]`).Length())
	assert.Equal(t, 0, doc.Find(".tmdb-selected").Length())

	t.Run("HiddenOnceSelected", func(t *testing.T) {
		st.MovieID = 550
		doc := render(t, view.MetaBox(st))
		assert.Equal(t, 0, doc.Find(".tmdb-results").Length())
	})

	t.Run("TitleHint", func(t *testing.T) {
		doc := render(t, view.MetaBox(&view.State{Item: &host.Item{ID: 1}}))
		assert.Equal(t, 1, doc.Find(".tmdb-title-hint").Length())
	})
}

func TestMetaBoxSelectedMovie(t *testing.T) {
	record := fightClub()
	st := &view.State{
		Item:      &host.Item{ID: 7, Title: "Fight Club"},
		MovieID:   550,
		Record:    record,
		Trailers:  record.Trailers.Youtube,
		Trailer:   "http://www.youtube.com/watch?v=def456",
		Country:   "GB",
		Images:    []host.Attachment{{ID: 5, Title: "b1.jpg", FilePath: "/up/b1.jpg", ThumbPath: "/up/b1-150x150.jpg"}},
		ImageURLs: []string{"http://img/original/b1.jpg", "http://img/original/p1.jpg", "http://img/original/p2.jpg"},
		Nonce:     "n0nce",
		MediaURL:  func(p string) string { return "/media" + p },
	}
	doc := render(t, view.MetaBox(st))

	assert.Equal(t, "Movie selected: Fight Club", doc.Find("h4.tmdb-selected").Text())
	assert.Contains(t, doc.Find("#tmdb-get-images-wrap").Text(), "There are 2 poster images and 1 backdrops for this movie")

	button := doc.Find("#tmdb-get-images")
	post, _ := button.Attr("hx-post")
	assert.Equal(t, "/ajax/items/7/sideload/start", post)
	target, _ := button.Attr("hx-target")
	assert.Equal(t, "#tmdb-images", target)
	nonce, _ := doc.Find("#tmdb-sideload-nonce").Attr("value")
	assert.Equal(t, "n0nce", nonce)

	img := doc.Find("#tmdb-images span.img-wrap > img")
	require.Equal(t, 1, img.Length())
	id, _ := img.Attr("data-attachment-id")
	assert.Equal(t, "5", id)
	src, _ := img.Attr("src")
	assert.Equal(t, "/media/up/b1-150x150.jpg", src)

	options := doc.Find(`select[name="tmdb_movie_country"] option`)
	require.Equal(t, 2, options.Length())
	assert.Equal(t, "United States (R)", options.Eq(0).Text())
	_, selected := options.Eq(1).Attr("selected")
	assert.True(t, selected)
	assert.Contains(t, doc.Find(".tmdb-current-release").Text(), "United Kingdom")

	trailers := doc.Find(`input[type="radio"][name="tmdb_trailer"]`)
	require.Equal(t, 2, trailers.Length())
	v, _ := trailers.Eq(0).Attr("value")
	assert.Equal(t, "http://www.youtube.com/watch?v=abc123", v)
	_, checked := trailers.Eq(1).Attr("checked")
	assert.True(t, checked)

	free, _ := doc.Find("#tmdb-movie-trailer").Attr("value")
	assert.Equal(t, st.Trailer, free)
	embed, _ := doc.Find(".tmdb-trailer iframe").Attr("src")
	assert.Equal(t, "https://www.youtube.com/embed/def456", embed)

	t.Run("NoImagesToGrab", func(t *testing.T) {
		st.ImageURLs = nil
		doc := render(t, view.MetaBox(st))
		assert.Equal(t, 0, doc.Find("#tmdb-get-images").Length())
		assert.Equal(t, 1, doc.Find("#tmdb-images").Length())
	})
}

func TestSideloadStep(t *testing.T) {
	att := &host.Attachment{ID: 9, Title: "p1.jpg"}

	doc := render(t, view.Page("t", view.SideloadStep(7, "n0nce", att, "/media/p1.jpg", false)))
	assert.Equal(t, 1, doc.Find(`span.img-wrap img[data-attachment-id="9"]`).Length())
	next := doc.Find(".tmdb-sideload-next")
	require.Equal(t, 1, next.Length())
	post, _ := next.Attr("hx-post")
	assert.Equal(t, "/ajax/items/7/sideload/next", post)
	trigger, _ := next.Attr("hx-trigger")
	assert.Equal(t, "load", trigger)
	vals, _ := next.Attr("hx-vals")
	assert.JSONEq(t, `{"_nonce":"n0nce"}`, vals)

	doc = render(t, view.Page("t", view.SideloadStep(7, "n0nce", nil, "", true)))
	assert.Equal(t, 0, doc.Find(".img-wrap").Length(), "a failed download renders nothing")
	assert.Equal(t, 0, doc.Find(".tmdb-sideload-next").Length())
	oob, _ := doc.Find("#tmdb-get-images-wrap").Attr("hx-swap-oob")
	assert.Equal(t, "delete", oob)
}

func TestItemClasses(t *testing.T) {
	terms := map[string][]host.Term{
		metadata.TaxonomyCertificate: {{ID: 3, Slug: "pg-13"}},
		metadata.TaxonomyGenre:       {{ID: 4, Slug: "drama"}, {ID: 5, Slug: ""}, {ID: 6, Slug: "%e2%80%a6"}},
		metadata.TaxonomyActor:       {{ID: 7, Slug: "brad-pitt"}},
	}
	assert.Equal(t, []string{"certificate-pg-13", "genre-drama", "genre-6"}, view.ItemClasses(terms))
	assert.Empty(t, view.ItemClasses(nil))
}

func TestTrailerEmbed(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		iframe string
		link   string
	}{
		{name: "Watch", url: "http://www.youtube.com/watch?v=abc123", iframe: "https://www.youtube.com/embed/abc123"},
		{name: "Short", url: "https://youtu.be/xyz", iframe: "https://www.youtube.com/embed/xyz"},
		{name: "Other", url: "https://vimeo.com/1", link: "https://vimeo.com/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := render(t, view.Page("t", view.TrailerEmbed(tt.url)))
			if tt.iframe != "" {
				src, _ := doc.Find("iframe").Attr("src")
				assert.Equal(t, tt.iframe, src)
				return
			}
			href, _ := doc.Find("a").Attr("href")
			assert.Equal(t, tt.link, href)
		})
	}
	assert.Nil(t, view.TrailerEmbed(""))
}

func TestPublicPage(t *testing.T) {
	doc := render(t, view.PublicPage(view.PublicView{
		Item: &host.Item{ID: 3, Title: "Fight Club", Content: "<p>An insomniac.</p>\n"},
		Terms: map[string][]host.Term{
			metadata.TaxonomyGenre:    {{ID: 1, Name: "Drama", Slug: "drama"}},
			metadata.TaxonomyDirector: {{ID: 2, Name: "David Fincher", Slug: "david-fincher"}},
		},
		Trailer: "http://www.youtube.com/watch?v=abc123",
	}))

	article := doc.Find("article#item-3")
	require.Equal(t, 1, article.Length())
	assert.True(t, article.HasClass("genre-drama"))
	assert.Equal(t, "An insomniac.", article.Find(".entry-content p").Text())
	assert.Equal(t, "David Fincher", doc.Find("dt:contains('Directors') + dd").Text())
	assert.Equal(t, 1, doc.Find(".tmdb-trailer iframe").Length())
}

func TestSettingsSection(t *testing.T) {
	doc := render(t, view.SettingsPage(view.SettingsState{Key: "abc", Message: "Invalid API key - You must be granted a valid key."}))
	v, _ := doc.Find(`input[name="tmdb_api_key"]`).Attr("value")
	assert.Equal(t, "abc", v)
	assert.Equal(t, "Invalid API key - You must be granted a valid key.", doc.Find(".settings-error p").Text())
	assert.Equal(t, 0, doc.Find(".tmdb-valid-key").Length())
	href, _ := doc.Find("#tmdb-intro a").Attr("href")
	assert.Equal(t, "http://www.themoviedb.org/account/signup", href)

	doc = render(t, view.SettingsPage(view.SettingsState{Key: "abc", Valid: true, Saved: true}))
	assert.Equal(t, 1, doc.Find(".tmdb-valid-key").Length())
	assert.Equal(t, 0, doc.Find(".settings-error").Length())
}

type memMeta map[string]string

func (m memMeta) GetMeta(ctx context.Context, itemID uint, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memMeta) UpdateMeta(ctx context.Context, itemID uint, key, value string) error {
	m[key] = value
	return nil
}

func (m memMeta) DeleteMeta(ctx context.Context, itemID uint, keys ...string) error {
	for _, k := range keys {
		delete(m, k)
	}
	return nil
}

type memMedia map[uint]host.Attachment

func (m memMedia) CreateAttachment(ctx context.Context, a *host.Attachment) error {
	a.ID = uint(len(m) + 1)
	m[a.ID] = *a
	return nil
}

func (m memMedia) GetAttachment(ctx context.Context, id uint) (*host.Attachment, error) {
	a, ok := m[id]
	if !ok {
		return nil, coreErrors.ErrItemNotFound
	}
	return &a, nil
}

func (m memMedia) ListAttachments(ctx context.Context, itemID uint) ([]host.Attachment, error) {
	var out []host.Attachment
	for _, a := range m {
		out = append(out, a)
	}
	return out, nil
}

func TestLoadState(t *testing.T) {
	meta := memMeta{
		metadata.MetaSearch:      "fight club",
		metadata.MetaResults:     `{"results":[{"id":550,"title":"Fight Club","release_date":"1999-10-15"}]}`,
		metadata.MetaMovieID:     "550",
		metadata.MetaMovieData:   `{"id":550,"title":"Fight Club","releases":{"countries":[{"iso_3166_1":"US","certification":"R","release_date":"1999-10-15"}]}}`,
		metadata.MetaTrailer:     "http://www.youtube.com/watch?v=abc123",
		metadata.MetaTrailers:    `[{"name":"Trailer","source":"abc123"}]`,
		metadata.MetaCountry:     "US",
		metadata.MetaCertificate: "R",
		metadata.MetaReleaseDate: "1999-10-15",
		metadata.MetaImages:      "[1,42,2]",
	}
	media := memMedia{1: {ID: 1, Title: "b1.jpg"}, 2: {ID: 2, Title: "p1.jpg"}}

	st, err := view.LoadState(context.Background(), meta, media, &host.Item{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, "fight club", st.Query)
	require.Len(t, st.Results, 1)
	assert.Equal(t, 550, st.Results[0].ID)
	assert.Equal(t, 550, st.MovieID)
	require.NotNil(t, st.Record)
	assert.Equal(t, "Fight Club", st.Record.Title)
	assert.Equal(t, "R", st.Certificate)
	assert.Equal(t, "US", st.Country)
	require.Len(t, st.Trailers, 1)
	assert.Equal(t, "abc123", st.Trailers[0].Source)
	require.Len(t, st.Images, 2, "missing attachments are skipped")
	assert.Equal(t, uint(1), st.Images[0].ID)
	assert.Equal(t, uint(2), st.Images[1].ID)

	t.Run("Empty", func(t *testing.T) {
		st, err := view.LoadState(context.Background(), memMeta{metadata.MetaMovieData: "{broken"}, memMedia{}, &host.Item{ID: 8})
		require.NoError(t, err)
		assert.Nil(t, st.Record)
		assert.Empty(t, st.Results)
		assert.Zero(t, st.MovieID)
	})
}
