package site

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func get(t *testing.T, s *Site, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestUserSeesTheHomepage(t *testing.T) {
	for _, variant := range Variants() {
		s, err := New(variant)
		if err != nil {
			t.Fatalf("new %s: %v", variant, err)
		}
		rec := get(t, s, "/")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", variant, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Welcome!") {
			t.Fatalf("%s: homepage missing welcome text: %s", variant, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html" {
			t.Fatalf("%s: unexpected content type %q", variant, ct)
		}
	}
}

func TestErrorPageRendersWith404(t *testing.T) {
	for _, variant := range Variants() {
		s, err := New(variant)
		if err != nil {
			t.Fatalf("new %s: %v", variant, err)
		}
		rec := get(t, s, "/apple")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: unexpected status %d", variant, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Page not found") {
			t.Fatalf("%s: error page missing text: %s", variant, rec.Body.String())
		}
	}
}

func TestPersonalSiteRoutes(t *testing.T) {
	s, err := New(VariantPersonalSite)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	about := get(t, s, "/about")
	if about.Code != http.StatusOK || !strings.Contains(about.Body.String(), "About Me") {
		t.Fatalf("unexpected about response: %d %s", about.Code, about.Body.String())
	}

	css := get(t, s, "/main.css")
	if css.Code != http.StatusOK || !strings.Contains(css.Body.String(), "font-family") {
		t.Fatalf("unexpected stylesheet response: %d %s", css.Code, css.Body.String())
	}
	if ct := css.Header().Get("Content-Type"); ct != "text/html" {
		t.Fatalf("stylesheet content type changed: %q", ct)
	}
}

func TestStaticChallengesOnlyRoutesHome(t *testing.T) {
	s, err := New(VariantStaticChallenges)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, path := range []string{"/about", "/main.css"} {
		if rec := get(t, s, path); rec.Code != http.StatusNotFound {
			t.Fatalf("%s should be a 404 in %s, got %d", path, s.Variant(), rec.Code)
		}
	}
}

func TestHeadOmitsBody(t *testing.T) {
	s, err := New(VariantPersonalSite)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("unexpected HEAD response: %d (%d bytes)", rec.Code, rec.Body.Len())
	}
}

func TestUnknownVariant(t *testing.T) {
	if _, err := New("blog"); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}
