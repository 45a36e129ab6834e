// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"prometrix/internal/adapters/gsc"
	"prometrix/internal/app"
	"prometrix/internal/domain"
)

type Handlers struct {
	Q      *app.QueryService
	Imp    *app.ImportService
	Gap    *app.GapService
	Out    *app.OutreachService
	Search *app.SearchService
	OAuth  *gsc.OAuth                  // nil when GSC is not configured
	Ping   func(context.Context) error // DB liveness for /healthz
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.health)

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/", h.apiInfo)

		r.Route("/backlinks", func(r chi.Router) {
			r.Get("/", h.listBacklinks)
			r.Post("/import", h.importBacklinks)
			r.Get("/summary", h.summary)
			r.Post("/rescore", h.rescore)
			r.Get("/{id}", h.getBacklink)
		})

		r.Post("/analyze", h.analyzeDomain)
		r.Post("/competitors/analyze", h.analyzeCompetitors)
		r.Post("/disavow/generate", h.generateDisavow)

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.createCampaign)
			r.Get("/", h.listCampaigns)
			r.Get("/{id}", h.getCampaign)
			r.Patch("/{id}/status", h.updateCampaignStatus)
			r.Get("/{id}/metrics", h.campaignMetrics)
		})
		r.Post("/emails/generate", h.generateEmail)

		r.Route("/gsc", func(r chi.Router) {
			r.Get("/oauth/start", h.gscOAuthStart)
			r.Get("/oauth/callback", h.gscOAuthCallback)
			r.Get("/sites", h.gscSites)
			r.Post("/analyze", h.gscAnalyze)
			r.Get("/analysis/{id}", h.gscAnalysis)
			r.Get("/analysis", h.gscAnalysisHistory)
			r.Post("/performance", h.gscPerformance)
			r.Get("/opportunities", h.gscOpportunities)
			r.Get("/sitemaps", h.gscSitemaps)
			r.Post("/sitemaps/submit", h.gscSubmitSitemap)
		})

		r.Get("/export/backlinks.csv", h.exportBacklinks)
		r.Get("/export/gsc-analysis/{id}.csv", h.exportAnalysis)
	})
}

// ---- shared helpers ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeDomainErr maps domain sentinels onto problem responses.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "Search Console is not connected")
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func readJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func urlID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// ---- meta ----

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Unhealthy", "database ping failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) apiInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "Prometrix SEO API",
		"version":     "1.0",
		"description": "Backlink management and off-page SEO automation with Search Console integration",
		"endpoints": map[string]string{
			"backlinks":   "/api/backlinks",
			"import":      "/api/backlinks/import",
			"summary":     "/api/backlinks/summary",
			"export":      "/api/export/backlinks.csv",
			"campaigns":   "/api/campaigns",
			"competitors": "/api/competitors/analyze",
			"disavow":     "/api/disavow/generate",
			"emails":      "/api/emails/generate",
			"gsc_sites":   "/api/gsc/sites",
			"gsc_analyze": "/api/gsc/analyze",
		},
	})
}

// ---- backlinks ----

func (h *Handlers) listBacklinks(w http.ResponseWriter, r *http.Request) {
	q := domain.BacklinksQuery{Limit: 100}
	qs := r.URL.Query()
	if v := qs.Get("risk_level"); v != "" {
		switch v {
		case domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
			q.RiskLevel = &v
		default:
			writeProblem(w, http.StatusBadRequest, "Invalid risk_level", "must be low, medium, or high")
			return
		}
	}
	if v := qs.Get("min_da"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid min_da", "must be an integer")
			return
		}
		q.MinDA = &n
	}
	if v := qs.Get("max_da"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid max_da", "must be an integer")
			return
		}
		q.MaxDA = &n
	}
	if v := qs.Get("link_type"); v != "" {
		q.LinkType = &v
	}
	if v := qs.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 1000")
			return
		}
		q.Limit = n
	}
	if v := qs.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid offset", "offset must be a non-negative integer")
			return
		}
		q.Offset = n
	}

	links, err := h.Q.ListBacklinks(r.Context(), q)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"backlinks": backlinkViews(links),
		"total":     len(links),
		"limit":     q.Limit,
		"offset":    q.Offset,
	})
}

func (h *Handlers) getBacklink(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	b, err := h.Q.GetBacklink(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, backlinkView(b))
}

func (h *Handlers) importBacklinks(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "expected multipart form with a file field")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Missing file", "a CSV file is required")
		return
	}
	defer f.Close()
	if ext := hdr.Filename; len(ext) < 4 || ext[len(ext)-4:] != ".csv" {
		writeProblem(w, http.StatusBadRequest, "Unsupported file", "only CSV files are supported")
		return
	}

	res, err := h.Imp.ImportCSV(r.Context(), f)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Import failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"inserted":   res.Inserted,
		"errors":     res.Errors,
		"total_rows": res.TotalRows,
	})
}

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Q.Summary(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeWithETag(w, r, map[string]any{
		"cards": map[string]any{
			"total_backlinks":   sum.TotalBacklinks,
			"referring_domains": sum.ReferringDomains,
			"average_da":        sum.AverageDA,
			"toxic_links":       sum.ToxicLinks,
		},
		"health_scorecard": map[string]int{
			"healthy": sum.Healthy,
			"warning": sum.Warning,
			"toxic":   sum.Toxic,
		},
		"anchor_distribution": sum.AnchorBuckets,
	})
}

func (h *Handlers) rescore(w http.ResponseWriter, r *http.Request) {
	n, err := h.Q.Rescore(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rescored": n})
}

// ---- views ----

type backlinkJSON struct {
	ID              int64   `json:"id"`
	SourceURL       string  `json:"backlink_source"`
	SourceDomain    *string `json:"source_domain,omitempty"`
	AnchorText      *string `json:"anchor_text,omitempty"`
	TargetURL       *string `json:"target_url,omitempty"`
	DomainAuthority *int    `json:"domain_authority,omitempty"`
	Nofollow        *bool   `json:"nofollow,omitempty"`
	LinkType        *string `json:"link_type,omitempty"`
	RiskLevel       string  `json:"risk_level"`
	RiskScore       float64 `json:"risk_score"`
	DateFound       *string `json:"date_found,omitempty"`
}

func backlinkView(b domain.Backlink) backlinkJSON {
	v := backlinkJSON{
		ID:              b.ID,
		SourceURL:       b.SourceURL,
		SourceDomain:    b.SourceDomain,
		AnchorText:      b.AnchorText,
		TargetURL:       b.TargetURL,
		DomainAuthority: b.DomainAuthority,
		Nofollow:        b.Nofollow,
		LinkType:        b.LinkType,
		RiskLevel:       b.RiskLevel,
		RiskScore:       b.RiskScore,
	}
	if b.DateFound != nil {
		s := b.DateFound.UTC().Format(time.RFC3339)
		v.DateFound = &s
	}
	return v
}

func backlinkViews(bs []domain.Backlink) []backlinkJSON {
	out := make([]backlinkJSON, 0, len(bs))
	for _, b := range bs {
		out = append(out, backlinkView(b))
	}
	return out
}
