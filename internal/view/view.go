// Package view renders the server-side pages from embedded html/template
// files. Every page is parsed together with base.html, which defines the
// surrounding layout.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"first": func(s string) string {
		if f := strings.Fields(s); len(f) > 0 {
			return f[0]
		}
		return s
	},
	"date": func(t interface{ Format(string) string }) string { return t.Format("January 2006") },
}

// Renderer implements echo.Renderer over the embedded pages.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page template. It fails if any template is malformed.
func New() (*Renderer, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, n := range names {
		name := strings.TrimSuffix(path.Base(n), ".html")
		if name == "base" {
			continue
		}
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/base.html", n)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", n, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes the base layout with the named page's blocks.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view %q not found", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}
