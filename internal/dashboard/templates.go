package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Templates renders the dashboard page and its fragments.
type Templates struct {
	t *template.Template
}

// ParseTemplates parses the embedded templates.
func ParseTemplates() (*Templates, error) {
	t, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}
	return &Templates{t: t}, nil
}

// RenderIndex writes the full document.
func (t *Templates) RenderIndex(w io.Writer, v View) error {
	return t.t.ExecuteTemplate(w, "index", v)
}

// RenderApp writes the #app fragment swapped in by htmx requests.
func (t *Templates) RenderApp(w io.Writer, v View) error {
	return t.t.ExecuteTemplate(w, "app", v)
}

// RenderNotifications writes the notification stack fragment.
func (t *Templates) RenderNotifications(w io.Writer, items []Notification) error {
	return t.t.ExecuteTemplate(w, "notifications", items)
}

// StaticHandler serves the embedded stylesheet and script.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
