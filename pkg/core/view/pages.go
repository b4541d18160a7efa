package view

import (
	"fmt"
	"strings"

	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
	g "maragu.dev/gomponents"
	c "maragu.dev/gomponents/components"
	"maragu.dev/gomponents/html"
)

const htmxSrc = "https://unpkg.com/htmx.org@1.9.12"

// Page wraps body in the site's HTML document.
func Page(title string, body ...g.Node) g.Node {
	return c.HTML5(c.HTML5Props{
		Title:    title,
		Language: "en",
		Head: []g.Node{
			html.Link(html.Rel("stylesheet"), html.Href("/static/admin.css")),
			html.Script(html.Src(htmxSrc)),
		},
		Body: body,
	})
}

// EditPage is the item editor: title and body fields followed by the movie meta box.
func EditPage(st *State) g.Node {
	item := st.Item
	if item == nil {
		item = &host.Item{}
	}
	title := item.Title
	if title == "" {
		title = "New item"
	}
	return Page("Edit "+title,
		html.Form(
			html.ID("post"),
			html.Method("post"),
			html.Action(fmt.Sprintf("/items/%d", item.ID)),
			html.P(html.Input(html.Type("text"), html.Name("title"), html.ID("title"), html.Value(item.Title))),
			html.P(html.Textarea(html.Name("content"), html.ID("content"), g.Attr("rows", "12"), g.Text(item.Content))),
			MetaBox(st),
			html.P(html.Input(html.Type("submit"), html.Class("button button-primary"), html.Name("save"), html.Value("Update"))),
		),
	)
}

// PublicView is what the public item page shows.
type PublicView struct {
	Item     *host.Item
	Terms    map[string][]host.Term
	Trailer  string
	Images   []host.Attachment
	MediaURL func(filePath string) string
}

var termLabels = []struct{ taxonomy, label string }{
	{metadata.TaxonomyGenre, "Genres"},
	{metadata.TaxonomyDirector, "Directors"},
	{metadata.TaxonomyWriter, "Writers"},
	{metadata.TaxonomyActor, "Actors"},
	{metadata.TaxonomyCertificate, "Certificate"},
}

// PublicPage renders an item with its movie terms as classes and a term list.
func PublicPage(v PublicView) g.Node {
	classes := append([]string{"item", fmt.Sprintf("item-%d", v.Item.ID)}, ItemClasses(v.Terms)...)

	var rows []g.Node
	for _, tl := range termLabels {
		terms := v.Terms[tl.taxonomy]
		if len(terms) == 0 {
			continue
		}
		names := make([]string, len(terms))
		for i, t := range terms {
			names[i] = t.Name
		}
		rows = append(rows, html.Dt(g.Text(tl.label)), html.Dd(g.Text(strings.Join(names, ", "))))
	}

	mediaURL := v.MediaURL
	if mediaURL == nil {
		mediaURL = func(p string) string { return p }
	}
	return Page(v.Item.Title,
		html.Article(
			html.ID(fmt.Sprintf("item-%d", v.Item.ID)),
			html.Class(strings.Join(classes, " ")),
			html.H1(g.Text(v.Item.Title)),
			// Content is editor HTML, stored formatted.
			html.Div(html.Class("entry-content"), g.Raw(v.Item.Content)),
			g.If(len(rows) > 0, html.Dl(html.Class("tmdb-terms"), g.Group(rows))),
			g.If(v.Trailer != "", html.Div(html.Class("tmdb-trailer"), TrailerEmbed(v.Trailer))),
			g.If(len(v.Images) > 0, html.Div(
				html.Class("tmdb-gallery"),
				g.Map(v.Images, func(a host.Attachment) g.Node {
					return AttachmentImage(a, mediaURL(ThumbSource(a)))
				}),
			)),
		),
	)
}
