// Package view renders the task manager's HTML pages from templates embedded
// in the binary.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"TaskManager/internal/task"
)

// Page names understood by Render.
const (
	PageDashboard = "dashboard"
	PageIndex     = "index"
	PageShow      = "show"
	PageNew       = "new"
	PageEdit      = "edit"
	PageError     = "error"
)

// Form carries the values echoed back into the new/edit forms.
type Form struct {
	Title       string
	Description string
}

// Data is the single view model shared by every page.
type Data struct {
	Title   string
	Task    *task.Task
	Tasks   []*task.Task
	Form    Form
	Error   string
	Message string
}

//go:embed templates/*.html
var templateFS embed.FS

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every embedded page together with the shared layout.
func New() (*Renderer, error) {
	names := []string{PageDashboard, PageIndex, PageShow, PageNew, PageEdit, PageError}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		tmpl, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render executes page into a buffer and writes it with the given status.
// Nothing is written to w when execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
