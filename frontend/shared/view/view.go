// Package view renders html/template pages as templ components inside the
// shared layout.
package view

import (
	"context"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	sharedhtml "garmentflow/frontend/shared/html"
	"garmentflow/frontend/shared/nav"
)

// Frame is the chrome every page carries. Page data embeds it.
type Frame struct {
	Title  string
	Nav    nav.TopNavData
	Status string
	Error  string
}

var funcs = template.FuncMap{
	"csrfScript": func() template.HTML { return template.HTML(sharedhtml.CSRFFormScript()) },
	"join":       strings.Join,
}

// New parses body as the page's "content" block inside the layout.
func New(name, body string) *template.Template {
	t := template.Must(template.New(name).Funcs(funcs).Parse(sharedhtml.Layout))
	return template.Must(t.New("content").Parse(body))
}

// Page renders t through the layout.
func Page(t *template.Template, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, "layout", data)
	})
}
