package view

import (
	"fmt"

	"github.com/angelospk/tmdb-go/internal/constants"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/regions"
	"github.com/angelospk/tmdb-go/pkg/core/workflow"
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/html"
)

// Element ids the sideload chain targets.
const (
	ImagesID       = "tmdb-images"
	GetImagesID    = "tmdb-get-images-wrap"
	SideloadNonce  = "tmdb-sideload-nonce"
	NonceFieldName = "_nonce"
)

// SideloadStartPath and SideloadNextPath are the ajax endpoints of the image chain.
func SideloadStartPath(itemID uint) string {
	return fmt.Sprintf("/ajax/items/%d/sideload/start", itemID)
}

func SideloadNextPath(itemID uint) string {
	return fmt.Sprintf("/ajax/items/%d/sideload/next", itemID)
}

// MetaBox renders the "Get movie data" box of the item editor.
func MetaBox(st *State) g.Node {
	return html.Div(
		html.ID("tmdb"),
		html.Class("postbox tmdb-box"),
		html.H3(g.Text("Get movie data")),
		searchSection(st),
		g.Iff(len(st.Results) > 0 && st.MovieID == 0, func() g.Node { return resultsSection(st) }),
		g.Iff(st.Record != nil, func() g.Node { return selectedSection(st) }),
		trailerSection(st),
	)
}

func searchSection(st *State) g.Node {
	return g.Group{
		html.P(g.Text("Enter the movie title and click go to grab images and info.")),
		html.P(
			html.Input(html.Type("text"), html.Name(workflow.FieldSearchQuery), html.Value(st.Query), g.Attr("size", "60")),
			g.Text(" "),
			html.Input(html.Type("submit"), html.Class("button"), html.Name(workflow.FieldSearch), html.Value("Search movie database")),
		),
		g.If(st.Item == nil || st.Item.Title == "",
			html.P(html.Class("tmdb-title-hint"), g.Text("You need to enter a title for the post before you can search the movie database.")),
		),
	}
}

func resultsSection(st *State) g.Node {
	items := make([]g.Node, 0, len(st.Results))
	for i, m := range st.Results {
		label := m.Title
		if year := m.Year(); year != "" {
			label += ", " + year
		}
		items = append(items, html.Li(html.Label(
			html.Input(html.Type("radio"), html.Name(workflow.FieldMovie), html.Value(fmt.Sprint(m.ID)), g.If(i == 0, html.Checked())),
			g.Text(" "+label),
		)))
	}
	return html.Div(
		html.Class("tmdb-results"),
		html.P(g.Text("Select the movie you want to attach to this post.")),
		html.Ul(items...),
		html.Input(html.Class("button"), html.Type("submit"), html.Name(workflow.FieldSelect), html.Value("Select movie »")),
	)
}

func selectedSection(st *State) g.Node {
	posters, backdrops := st.imageCounts()
	return g.Group{
		html.H4(html.Class("tmdb-selected"), g.Text("Movie selected: "+st.Record.Title)),
		html.P(g.Text("You can search again to find new movie data.")),
		html.Div(
			html.Class("tmdb-images-wrap"),
			html.H4(g.Text("Images:")),
			g.Iff(len(st.ImageURLs) > 0 && st.Item != nil, func() g.Node {
				return html.P(
					html.ID(GetImagesID),
					g.Textf("There are %d poster images and %d backdrops for this movie ", posters, backdrops),
					html.Input(html.Type("hidden"), html.ID(SideloadNonce), html.Name(NonceFieldName), html.Value(st.Nonce)),
					html.Button(
						html.ID("tmdb-get-images"),
						html.Class("button"),
						html.Type("button"),
						hx.Post(SideloadStartPath(st.Item.ID)),
						hx.Include("#"+SideloadNonce),
						hx.Target("#"+ImagesID),
						hx.Swap("beforeend"),
						g.Text("Grab images"),
					),
				)
			}),
			html.P(g.Text("Once the images have been downloaded you can set one as your featured image or insert them into the post as you want.")),
			html.Div(
				html.ID(ImagesID),
				g.Map(st.Images, func(a host.Attachment) g.Node {
					return AttachmentImage(a, st.mediaURL(ThumbSource(a)))
				}),
			),
		),
		releaseSection(st),
	}
}

func releaseSection(st *State) g.Node {
	countries := st.Record.Releases.Countries
	if len(countries) == 0 {
		return nil
	}
	options := make([]g.Node, 0, len(countries))
	for _, r := range countries {
		label := regions.Name(r.ISO3166_1)
		if r.Certification != "" {
			label += " (" + r.Certification + ")"
		}
		options = append(options, html.Option(
			html.Value(r.ISO3166_1),
			g.If(st.Country != "" && st.Country == r.ISO3166_1, html.Selected()),
			g.Text(label),
		))
	}
	return html.Div(
		html.ID("tmdb-release-wrap"),
		html.H4(g.Text("Release")),
		g.If(st.Country != "", html.P(
			html.Class("tmdb-current-release"),
			g.Textf("Certificate %s in %s, released %s", orDash(st.Certificate), regions.Name(st.Country), orDash(st.ReleaseDate)),
		)),
		html.P(
			html.Label(html.For("tmdb-movie-country"), g.Text("Country ")),
			html.Select(html.ID("tmdb-movie-country"), html.Name(workflow.FieldCountry), g.Group(options)),
			g.Text(" "),
			html.Input(html.Class("button"), html.Type("submit"), html.Name(workflow.FieldSelectRelease), html.Value("Set certificate")),
		),
	)
}

func trailerSection(st *State) g.Node {
	var picker g.Node
	if len(st.Trailers) > 0 {
		items := make([]g.Node, 0, len(st.Trailers))
		for _, t := range st.Trailers {
			if t.Source == "" {
				continue
			}
			u := t.URL()
			items = append(items, html.Li(html.Label(
				html.Input(html.Type("radio"), html.Name(workflow.FieldTrailerPicker), html.Value(u), g.If(u == st.Trailer, html.Checked())),
				g.Text(" "+t.Name),
			)))
		}
		picker = html.Ul(html.Class("tmdb-trailers"), g.Group(items))
	}
	return html.Div(
		html.ID("tmdb-trailer-wrap"),
		picker,
		html.P(
			html.Label(html.For("tmdb-movie-trailer"), g.Text("Movie trailer link")),
			html.Input(html.Class("widefat"), html.Type("text"), html.Name(workflow.FieldTrailer), html.ID("tmdb-movie-trailer"), html.Value(st.Trailer)),
		),
		html.Div(html.Class("tmdb-trailer"), g.If(st.Trailer != "", TrailerEmbed(st.Trailer))),
	)
}

// SideloadStep is the response to one step of the image chain: the attachment fetched in
// this step, if any, followed by the trigger for the next step or, when done, the removal
// of the "Grab images" prompt.
func SideloadStep(itemID uint, nonce string, att *host.Attachment, src string, done bool) g.Node {
	var nodes g.Group
	if att != nil {
		nodes = append(nodes, AttachmentImage(*att, src))
	}
	if done {
		return append(nodes, html.P(html.ID(GetImagesID), hx.SwapOOB("delete")))
	}
	return append(nodes, html.Span(
		html.Class("tmdb-sideload-next"),
		hx.Post(SideloadNextPath(itemID)),
		hx.Trigger("load"),
		hx.Vals(fmt.Sprintf(`{%q:%q}`, NonceFieldName, nonce)),
		hx.Target("this"),
		hx.Swap("outerHTML"),
		html.Img(html.Class("loader"), html.Src("/static/spinner.gif"), html.Alt("")),
	))
}

// AttachmentImage renders a downloaded image with its attachment id for editor scripts.
func AttachmentImage(a host.Attachment, src string) g.Node {
	return html.Span(
		html.Class("img-wrap"),
		html.Img(
			html.Src(src),
			html.Alt(a.Title),
			html.Class("attachment-"+constants.ThumbSizeName),
			html.Width(fmt.Sprint(constants.ThumbWidth)),
			html.Height(fmt.Sprint(constants.ThumbHeight)),
			html.Data("attachment-id", fmt.Sprint(a.ID)),
		),
	)
}

// ThumbSource returns the path of the image shown for a, preferring the thumbnail.
func ThumbSource(a host.Attachment) string {
	if a.ThumbPath != "" {
		return a.ThumbPath
	}
	return a.FilePath
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
