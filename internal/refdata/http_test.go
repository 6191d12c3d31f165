package refdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oceancurate/pkg/domain"
)

func newReferenceServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tables/platforms/18HU", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("column") != "name" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":"CCGS Hudson","message":"ok"}`))
	})
	mux.HandleFunc("GET /tables/platforms/ZZZZ", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("GET /platforms/18HU/attributes/name", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("asof") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":"CCGS Hudson"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPResolverLookup(t *testing.T) {
	srv := newReferenceServer(t)
	r, err := NewHTTPResolver(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	ctx := context.Background()

	value, msg, status := r.Lookup(ctx, domain.TablePlatforms, "18HU", "name")
	if status != domain.LookupSuccess || value != "CCGS Hudson" || msg != "ok" {
		t.Fatalf("lookup = (%q, %q, %s)", value, msg, status)
	}

	if _, _, status := r.Lookup(ctx, domain.TablePlatforms, "ZZZZ", "name"); status != domain.LookupNoMatch {
		t.Fatalf("missing code status = %s, want no match", status)
	}

	if _, _, status := r.Lookup(ctx, "", "18HU", "name"); status != domain.LookupInvalidCall {
		t.Fatalf("empty table status = %s, want invalid call", status)
	}
}

func TestHTTPResolverPlatformAttribute(t *testing.T) {
	srv := newReferenceServer(t)
	r, err := NewHTTPResolver(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	value, _, status := r.LookupPlatformAttribute(context.Background(), "18HU", "name", asOf)
	if status != domain.LookupSuccess || value != "CCGS Hudson" {
		t.Fatalf("platform attribute = (%q, %s)", value, status)
	}
}

func TestHTTPResolverConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close() // resolver now points at a dead server

	r, err := NewHTTPResolver(base, &http.Client{Timeout: time.Second})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	_, msg, status := r.Lookup(context.Background(), domain.TablePlatforms, "18HU", "name")
	if status != domain.LookupConnectivityError {
		t.Fatalf("dead server status = %s (%s), want connectivity error", status, msg)
	}
}

func TestHTTPResolverRejectsRelativeBase(t *testing.T) {
	if _, err := NewHTTPResolver("refservice/api", nil); err == nil {
		t.Fatalf("relative base url should be rejected")
	}
}
