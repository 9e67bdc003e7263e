// Package view renders the storefront and admin HTML pages.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"textile-store/internal/model"
	"textile-store/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "layout.html"

// Page is the data handed to every template. Content holds the
// page-specific value.
type Page struct {
	Title   string
	Admin   bool
	Query   string
	Content any
}

// SearchResults is the content of the search page.
type SearchResults struct {
	Query    string
	Products []model.Product
}

// Dashboard is the content of the admin dashboard.
type Dashboard struct {
	Stats    *model.DashboardStats
	Products []model.Product
}

// OrderList is the content of the admin order list.
type OrderList struct {
	Orders   []model.OrderView
	Filter   model.OrderStatus
	Statuses []model.OrderStatus
	Error    string
}

// ProductForm is the content of the add and edit product pages. Product is
// nil when adding.
type ProductForm struct {
	Product *model.Product
}

// Login is the content of the login page.
type Login struct {
	Failed bool
	Next   string
}

// ErrorPage is the content of the error page.
type ErrorPage struct {
	Status  int
	Message string
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages  map[string]*template.Template
	logger zerolog.Logger
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer(logger zerolog.Logger) (*Renderer, error) {
	layout, err := template.New(layoutFile).Funcs(funcs()).ParseFS(templateFS, "templates/"+layoutFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimPrefix(file, "templates/")
		if name == layoutFile {
			continue
		}
		base, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout: %w", err)
		}
		page, err := base.ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		pages[strings.TrimSuffix(name, ".html")] = page
	}

	return &Renderer{
		pages:  pages,
		logger: logger.With().Str("component", "view").Logger(),
	}, nil
}

// Has reports whether a page template exists.
func (v *Renderer) Has(name string) bool {
	_, ok := v.pages[name]
	return ok
}

// Render writes the named page with the given status. The page is
// rendered into a buffer first so a template error never produces a
// half-written response.
func (v *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := v.pages[name]
	if !ok {
		v.logger.Error().Str("page", name).Msg("unknown page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutFile, page); err != nil {
		v.logger.Error().Err(err).Str("page", name).Msg("failed to render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"money":     pricing.Format,
		"lineTotal": pricing.LineTotal,
		"percent": func(d decimal.Decimal) string {
			return d.Round(0).String() + "%"
		},
		"hasOffer": func(d decimal.Decimal) bool {
			return d.IsPositive()
		},
		"imageSrc":     imageSrc,
		"nextStatuses": func(s model.OrderStatus) []model.OrderStatus { return s.NextStatuses() },
		"join":         strings.Join,
		"year":         func() int { return time.Now().Year() },
		"date": func(t time.Time) string {
			return t.Format("02 Jan 2006, 15:04")
		},
	}
}

// imageSrc marks image URLs produced by the image stores as safe for src
// attributes. html/template would otherwise rewrite inline data URIs.
func imageSrc(url string) template.URL {
	switch {
	case strings.HasPrefix(url, "data:image/"),
		strings.HasPrefix(url, "/"),
		strings.HasPrefix(url, "https://"),
		strings.HasPrefix(url, "http://"):
		return template.URL(url)
	default:
		return ""
	}
}
