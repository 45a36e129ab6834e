// internal/adapters/gsc/client.go
package gsc

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"prometrix/internal/adapters/observability"
	"prometrix/internal/domain"
)

// BearerSource supplies a fresh access token per request. Implementations
// should return domain.ErrUnauthorized when no credentials are stored.
type BearerSource func(ctx context.Context) (string, error)

type Client struct {
	base   string
	hc     *http.Client
	bearer BearerSource
	rl     *rate.Limiter
}

func New(base string, bearer BearerSource, rps int) (*Client, error) {
	if bearer == nil {
		return nil, fmt.Errorf("bearer source is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:   strings.TrimSuffix(base, "/"),
		hc:     &http.Client{Timeout: 20 * time.Second},
		bearer: bearer,
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

func (c *Client) ListSites(ctx context.Context) ([]string, error) {
	var out struct {
		SiteEntry []struct {
			SiteURL string `json:"siteUrl"`
		} `json:"siteEntry"`
	}
	if err := c.do(ctx, http.MethodGet, c.base+"/sites", "sites", nil, &out); err != nil {
		return nil, err
	}
	sites := make([]string, 0, len(out.SiteEntry))
	for _, e := range out.SiteEntry {
		sites = append(sites, e.SiteURL)
	}
	return sites, nil
}

func (c *Client) Query(ctx context.Context, siteURL string, q domain.SearchQuery) ([]domain.SearchRow, error) {
	body := map[string]any{
		"startDate": q.StartDate,
		"endDate":   q.EndDate,
	}
	if len(q.Dimensions) > 0 {
		body["dimensions"] = q.Dimensions
	}
	if q.RowLimit > 0 {
		body["rowLimit"] = q.RowLimit
	}
	if len(q.Filters) > 0 {
		body["dimensionFilterGroups"] = []map[string]any{{"filters": q.Filters}}
	}
	var out struct {
		Rows []domain.SearchRow `json:"rows"`
	}
	u := fmt.Sprintf("%s/sites/%s/searchAnalytics/query", c.base, url.PathEscape(siteURL))
	if err := c.do(ctx, http.MethodPost, u, "searchanalytics", body, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

func (c *Client) ListSitemaps(ctx context.Context, siteURL string) ([]domain.Sitemap, error) {
	var out struct {
		Sitemap []domain.Sitemap `json:"sitemap"`
	}
	u := fmt.Sprintf("%s/sites/%s/sitemaps", c.base, url.PathEscape(siteURL))
	if err := c.do(ctx, http.MethodGet, u, "sitemaps", nil, &out); err != nil {
		return nil, err
	}
	return out.Sitemap, nil
}

func (c *Client) SubmitSitemap(ctx context.Context, siteURL, feedPath string) error {
	u := fmt.Sprintf("%s/sites/%s/sitemaps/%s", c.base, url.PathEscape(siteURL), url.PathEscape(feedPath))
	return c.do(ctx, http.MethodPut, u, "sitemaps", nil, nil)
}

// ---- Internals ----

// do performs a request with client-side rate limiting, retries, and JSON
// decode into out. Retries on 429 and transient 5xx, honoring Retry-After.
func (c *Client) do(ctx context.Context, method, u, endpoint string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	tok, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("gsc", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			if out == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil
			}
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return domain.ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return domain.ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("gsc remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("gsc bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// Base doubles each attempt (200ms, 400ms, 800ms...), up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}

var _ domain.SearchConsoleClient = (*Client)(nil)
