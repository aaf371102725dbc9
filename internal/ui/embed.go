// Package ui renders the operator dashboard from embedded templates.
package ui

import (
	"embed"
	"html/template"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templates embed.FS

var supported = []language.Tag{language.English, language.German, language.French, language.Dutch}

var matcher = language.NewMatcher(supported)

// NameRow is one greeted name on the dashboard.
type NameRow struct {
	Name  string
	Count uint64
}

// Dashboard is the data shown on the dashboard page.
type Dashboard struct {
	Greeting          string
	StartMode         string
	TotalEvents       uint64
	DistinctNames     uint64
	StableMemoryBytes uint64
	Names             []NameRow
}

// Renderer formats a Dashboard as HTML.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded dashboard template.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("dashboard.html").Funcs(template.FuncMap{
		// replaced per render so numbers follow the request language
		"num": func(v uint64) string { return "" },
	}).ParseFS(templates, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: t}, nil
}

// Render writes d to w, formatting numbers for the best match of
// acceptLanguage (an Accept-Language header value).
func (r *Renderer) Render(w io.Writer, d Dashboard, acceptLanguage string) error {
	p := PrinterFor(acceptLanguage)
	t, err := r.tmpl.Clone()
	if err != nil {
		return err
	}
	t.Funcs(template.FuncMap{"num": func(v uint64) string { return p.Sprintf("%d", v) }})
	return t.Execute(w, d)
}

// PrinterFor returns a message printer for the best supported match of an
// Accept-Language header value. Unparseable input falls back to English.
func PrinterFor(acceptLanguage string) *message.Printer {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return message.NewPrinter(language.English)
	}
	_, idx, _ := matcher.Match(tags...)
	return message.NewPrinter(supported[idx])
}
