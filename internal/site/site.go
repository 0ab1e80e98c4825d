// Package site serves the static personal site: a fixed set of pages chosen
// by variant, with every other path answered by the error page and a 404.
package site

import (
	"embed"
	"fmt"
	"net/http"
	"sort"
	"strconv"
)

const (
	// VariantPersonalSite routes the home page, the about page and the stylesheet.
	VariantPersonalSite = "personal_site"
	// VariantStaticChallenges routes only the home page.
	VariantStaticChallenges = "static_challenges"
)

//go:embed public/*
var publicFS embed.FS

var variants = map[string]map[string]string{
	VariantPersonalSite: {
		"/":         "public/index.html",
		"/about":    "public/about.html",
		"/main.css": "public/main.css",
	},
	VariantStaticChallenges: {
		"/": "public/index.html",
	},
}

// Site answers requests from an in-memory table of path to file content.
type Site struct {
	variant  string
	pages    map[string][]byte
	notFound []byte
}

// New loads the pages of the given variant.
func New(variant string) (*Site, error) {
	routes, ok := variants[variant]
	if !ok {
		return nil, fmt.Errorf("unknown site variant %q (known: %v)", variant, Variants())
	}
	pages := make(map[string][]byte, len(routes))
	for path, file := range routes {
		content, err := publicFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		pages[path] = content
	}
	notFound, err := publicFS.ReadFile("public/error.html")
	if err != nil {
		return nil, fmt.Errorf("read error page: %w", err)
	}
	return &Site{variant: variant, pages: pages, notFound: notFound}, nil
}

// Variants lists the supported variant names.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variant returns the variant this site was built with.
func (s *Site) Variant() string {
	return s.variant
}

// ServeHTTP dispatches on the request path only. The stylesheet is reported as
// text/html like every other response.
func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, ok := s.pages[r.URL.Path]
	status := http.StatusOK
	if !ok {
		body = s.notFound
		status = http.StatusNotFound
	}
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}
