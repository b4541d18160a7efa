package view

import (
	"github.com/angelospk/tmdb-go/pkg/core/settings"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

const signupURL = "http://www.themoviedb.org/account/signup"

// SettingsState is the API key section's current values.
type SettingsState struct {
	Key   string
	Valid bool
	// Message is the validation error from the last save, if any.
	Message string
	Saved   bool
}

// SettingsSection renders the API key form.
func SettingsSection(st SettingsState) g.Node {
	return html.Div(
		html.ID("tmdb-settings"),
		html.H3(g.Raw("The Movie Database&trade;")),
		html.P(
			html.ID("tmdb-intro"),
			g.Text(`You'll need to request an API key from The Movie Database. Sign up for an account `),
			html.A(html.Href(signupURL), g.Text("here")),
			g.Text(` and then click the "Want to generate an API key?" link under Account Settings.`),
		),
		g.If(st.Message != "", html.Div(html.Class("error settings-error"), html.P(g.Text(st.Message)))),
		g.If(st.Saved && st.Valid, html.Div(html.Class("updated"), html.P(g.Text("Settings saved.")))),
		html.Form(
			html.Method("post"),
			html.Action("/settings"),
			html.Label(html.For("tmdb-api-key"), g.Text("API Key")),
			g.Text(" "),
			html.Input(html.Class("regular-text code"), html.Type("text"), html.ID("tmdb-api-key"), html.Name(settings.OptionAPIKey), html.Value(st.Key)),
			g.If(st.Key != "" && st.Valid, html.Span(html.Class("tmdb-valid-key"), g.Text(" Valid"))),
			html.P(html.Input(html.Type("submit"), html.Class("button button-primary"), html.Value("Save Changes"))),
		),
	)
}

// SettingsPage wraps SettingsSection in a page.
func SettingsPage(st SettingsState) g.Node {
	return Page("Media Settings", SettingsSection(st))
}
