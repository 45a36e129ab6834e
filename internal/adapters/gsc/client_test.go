package gsc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"prometrix/internal/adapters/gsc"
	"prometrix/internal/domain"
)

func staticBearer(tok string) gsc.BearerSource {
	return func(ctx context.Context) (string, error) { return tok, nil }
}

func TestClient_Query_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("authorization header: %q", got)
			}
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"rows": []map[string]any{
					{"keys": []string{"seo tools"}, "clicks": 12, "impressions": 300, "ctr": 0.04, "position": 7.5},
				},
			})
		}
	}))
	defer ts.Close()

	cl, err := gsc.New(ts.URL, staticBearer("test-token"), 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := cl.Query(ctx, "sc-domain:example.com", domain.SearchQuery{
		StartDate: "2024-01-01", EndDate: "2024-01-31", Dimensions: []string{"query"}, RowLimit: 50,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rows) != 1 || rows[0].Keys[0] != "seo tools" || rows[0].Clicks != 12 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_ListSites(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sites" {
			t.Errorf("path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"siteEntry": []map[string]any{
				{"siteUrl": "sc-domain:example.com"},
				{"siteUrl": "https://other.com/"},
			},
		})
	}))
	defer ts.Close()

	cl, _ := gsc.New(ts.URL, staticBearer("t"), 100)
	sites, err := cl.ListSites(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(sites) != 2 || sites[0] != "sc-domain:example.com" {
		t.Fatalf("sites: %v", sites)
	}
}

func TestClient_SentinelStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{404, domain.ErrNotFound},
		{401, domain.ErrUnauthorized},
		{403, domain.ErrForbidden},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		cl, _ := gsc.New(ts.URL, staticBearer("t"), 100)
		_, err := cl.ListSites(context.Background())
		ts.Close()
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: got %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestClient_SubmitSitemap(t *testing.T) {
	var method, path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	cl, _ := gsc.New(ts.URL, staticBearer("t"), 100)
	if err := cl.SubmitSitemap(context.Background(), "https://example.com/", "https://example.com/sitemap.xml"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if method != http.MethodPut {
		t.Fatalf("method: %s", method)
	}
	if !strings.HasPrefix(path, "/sites/") || !strings.Contains(path, "sitemap.xml") {
		t.Fatalf("path: %s", path)
	}
}

func TestClient_BearerFailureShortCircuits(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	cl, _ := gsc.New(ts.URL, func(ctx context.Context) (string, error) {
		return "", domain.ErrUnauthorized
	}, 100)
	if _, err := cl.ListSites(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("no request should be sent without a token")
	}
}
