package view

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

var (
	percentOctets = regexp.MustCompile(`%[a-fA-F0-9][a-fA-F0-9]`)
	classUnsafe   = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// SanitizeClass strips a term slug down to a usable CSS class name. Empty results fall
// back to fallback.
func SanitizeClass(slug, fallback string) string {
	s := percentOctets.ReplaceAllString(slug, "")
	s = classUnsafe.ReplaceAllString(s, "")
	if s == "" {
		return fallback
	}
	return s
}

// ItemClasses returns the CSS classes a movie item gets from its certificate and genre
// terms, e.g. certificate-pg-13 and genre-drama.
func ItemClasses(terms map[string][]host.Term) []string {
	var classes []string
	for _, tax := range []struct{ taxonomy, prefix string }{
		{metadata.TaxonomyCertificate, "certificate-"},
		{metadata.TaxonomyGenre, "genre-"},
	} {
		for _, t := range terms[tax.taxonomy] {
			if t.Slug == "" {
				continue
			}
			classes = append(classes, tax.prefix+SanitizeClass(t.Slug, strconv.FormatUint(uint64(t.ID), 10)))
		}
	}
	return classes
}

// youTubeID extracts the video id from a YouTube watch or short link.
func youTubeID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	switch strings.TrimPrefix(strings.ToLower(u.Host), "www.") {
	case "youtube.com", "m.youtube.com":
		return u.Query().Get("v")
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	}
	return ""
}

// TrailerEmbed renders a player for YouTube trailers and a plain link for anything else.
func TrailerEmbed(trailerURL string) g.Node {
	if trailerURL == "" {
		return nil
	}
	if id := youTubeID(trailerURL); id != "" {
		return html.IFrame(
			html.Class("tmdb-trailer-embed"),
			html.Width("560"),
			html.Height("315"),
			html.Src("https://www.youtube.com/embed/"+url.PathEscape(id)),
			g.Attr("frameborder", "0"),
			g.Attr("allowfullscreen"),
		)
	}
	return html.A(html.Href(trailerURL), html.Rel("nofollow"), g.Text(trailerURL))
}
