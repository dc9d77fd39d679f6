package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

// viewData is the template payload of a page
type viewData map[string]interface{}

// Renderer renders embedded page templates inside the shared layout
type Renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

var templateFuncs = template.FuncMap{
	"containsID": func(ids []int64, id int64) bool {
		for _, v := range ids {
			if v == id {
				return true
			}
		}
		return false
	},
	"derefID": func(id *int64) int64 {
		if id == nil {
			return 0
		}
		return *id
	},
}

// NewRenderer parses every page template once
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		if file == layoutTemplate {
			continue
		}
		tmpl, err := template.New(path.Base(file)).Funcs(templateFuncs).ParseFS(templateFS, layoutTemplate, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		r.pages[path.Base(file)] = tmpl
	}
	return r, nil
}

// Render implements echo.Renderer
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// render fills the values every page needs and renders the named template
func render(c echo.Context, code int, name string, data viewData) error {
	if data == nil {
		data = viewData{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = FormErrors{}
	}
	data["CurrentUser"] = CurrentUser(c)
	data["CSRFToken"], _ = c.Get("csrf").(string)
	data["Flashes"] = consumeFlashes(c)
	return c.Render(code, name, data)
}
