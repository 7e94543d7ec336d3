package route

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tarkov-database/mbtileserver/config"
	"github.com/tarkov-database/mbtileserver/controller"
	"github.com/tarkov-database/mbtileserver/core/registry"
	"github.com/tarkov-database/mbtileserver/middleware/hostcheck"
)

func newTestRouter() http.Handler {
	c := &controller.Controller{
		Registry: registry.New(nil),
	}
	policy := hostcheck.Policy{
		AllowedHosts: []string{"allowed.example"},
		Headers:      []config.Header{{Name: "X-Test-Header", Value: "present"}},
	}
	return Load(c, policy)
}

func TestRouteRejectsDisallowedHost(t *testing.T) {
	r := newTestRouter()

	paths := []string{"/services", "/static/README.txt"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Host = "evil.example"
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("GET %s from disallowed host = %d, want %d", path, rec.Code, http.StatusForbidden)
		}
	}
}

func TestRouteAllowsAllowedHostAndInjectsHeaders(t *testing.T) {
	r := newTestRouter()

	paths := []string{"/services", "/static/README.txt"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Host = "allowed.example"
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s from allowed host = %d, want %d", path, rec.Code, http.StatusOK)
		}
		if got := rec.Header().Get("X-Test-Header"); got != "present" {
			t.Errorf("GET %s X-Test-Header = %q, want %q", path, got, "present")
		}
	}
}

func TestRouteServicesListEmpty(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	req.Host = "allowed.example"
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want %q", got, "[]\n")
	}
}

func TestRouteUnknownTilesetNotFound(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/services/does_not_exist", nil)
	req.Host = "allowed.example"
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
