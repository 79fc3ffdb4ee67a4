// Package web embeds the console templates and static assets.
//
// Every page template defines a "content" block that is rendered inside
// templates/layout.html.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/Goutam990/medibook-console/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Page is the data every template receives.
type Page struct {
	Title         string
	User          *domain.User
	Flash         *Flash
	Authenticated bool
	Data          any
}

// layoutName is the root template of every page set. ParseFS names templates
// after the file's base name.
const layoutName = "layout.html"

// Templates holds one parsed template set per page.
type Templates struct {
	pages map[string]*template.Template
}

// ParseTemplates parses the embedded templates.
func ParseTemplates() (*Templates, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	t := &Templates{pages: make(map[string]*template.Template)}
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".html")
		if path.Base(f) == layoutName {
			continue
		}
		tmpl, err := template.New(layoutName).Funcs(funcs).ParseFS(templateFS, "templates/"+layoutName, f)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Has reports whether a page template exists.
func (t *Templates) Has(name string) bool {
	_, ok := t.pages[name]
	return ok
}

// Render executes the named page. Output is buffered so a failing template
// writes nothing.
func (t *Templates) Render(w io.Writer, name string, page Page) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutName, page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves the embedded assets. Mount it under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

var funcs = template.FuncMap{
	"lower": strings.ToLower,
	"statusClass": func(s domain.AppointmentStatus) string {
		return "status-" + strings.ToLower(string(s))
	},
	"money": func(minor int64, currency string) string {
		return strconv.FormatFloat(float64(minor)/100, 'f', 2, 64) + " " + strings.ToUpper(currency)
	},
}
