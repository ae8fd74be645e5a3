// Package web renders the dashboard's server-side pages from embedded templates.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*
var templatesFS embed.FS

// Page template names.
const (
	PageDashboard  = "dashboard.html"
	PageLogs       = "logs.html"
	PageCollection = "collection.html"
)

var pageTemplates = []string{PageDashboard, PageLogs, PageCollection}

// NavItem is one sidebar link.
type NavItem struct {
	Label string
	Path  string
}

// Navigation is the sidebar shown on every page.
var Navigation = []NavItem{
	{Label: "Dashboard", Path: "/dashboard"},
	{Label: "Alerts", Path: "/alerts"},
	{Label: "Logs", Path: "/logs"},
	{Label: "Reports", Path: "/reports"},
	{Label: "Threats", Path: "/threats"},
}

// Page describes one render.
type Page struct {
	Template string
	Title    string
	Path     string
	// Props is the server-side query result, embedded as JSON in the page.
	Props any
	// Data is what the page template reads.
	Data any
}

// PageData is the value every template executes against.
type PageData struct {
	Title       string
	CurrentPath string
	Nav         []NavItem
	PropsJSON   template.JS
	Data        any
}

// Renderer holds one parsed template set per page. Each set is the base layout cloned and
// extended with the page's "content" block.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	return newRenderer(templatesFS)
}

func newRenderer(fsys fs.FS) (*Renderer, error) {
	base, err := template.New("").Funcs(templateFuncs()).ParseFS(fsys, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		tmpl, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone template: %w", err)
		}
		if _, err := tmpl.ParseFS(fsys, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse page template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render executes the page into w. Nothing is written when execution fails.
func (r *Renderer) Render(w io.Writer, page Page) error {
	tmpl, ok := r.pages[page.Template]
	if !ok {
		return fmt.Errorf("unknown page template %s", page.Template)
	}

	props, err := MarshalProps(page.Props)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "base", PageData{
		Title:       page.Title,
		CurrentPath: page.Path,
		Nav:         Navigation,
		PropsJSON:   props,
		Data:        page.Data,
	})
	if err != nil {
		return fmt.Errorf("execute page template %s: %w", page.Template, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// MarshalProps encodes page props for a JSON script element. json.Marshal escapes <, > and &,
// so the output cannot close the surrounding element.
func MarshalProps(props any) (template.JS, error) {
	b, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("marshal page props: %w", err)
	}
	return template.JS(b), nil
}
