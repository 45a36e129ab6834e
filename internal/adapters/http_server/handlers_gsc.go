package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"prometrix/internal/domain"
)

// Single-tenant deployment: every browser session shares one credential row.
const defaultUserKey = "default"

// analyzeDomain is the combined dashboard call: backlink health plus whether
// Search Console is wired up for deeper data.
func (h *Handlers) analyzeDomain(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Domain string `json:"domain"`
	}
	if err := readJSON(r, &body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	sum, err := h.Q.Summary(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toxic, err := h.Q.HighRiskDomains(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domain": body.Domain,
		"backlink_profile": map[string]any{
			"total_backlinks":   sum.TotalBacklinks,
			"referring_domains": sum.ReferringDomains,
			"average_da":        sum.AverageDA,
			"toxic_links":       sum.ToxicLinks,
		},
		"toxic_domains": toxic,
		"gsc_connected": h.Search.Connected(),
	})
}

// ---- oauth ----

func (h *Handlers) gscOAuthStart(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil || !h.OAuth.Configured() {
		writeProblem(w, http.StatusServiceUnavailable, "GSC not configured", "set GSC_CLIENT_ID and GSC_CLIENT_SECRET")
		return
	}
	authURL, state := h.OAuth.Start(defaultUserKey)
	writeJSON(w, http.StatusOK, map[string]string{
		"authorization_url": authURL,
		"state":             state,
	})
}

func (h *Handlers) gscOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil || !h.OAuth.Configured() {
		writeProblem(w, http.StatusServiceUnavailable, "GSC not configured", "set GSC_CLIENT_ID and GSC_CLIENT_SECRET")
		return
	}
	qs := r.URL.Query()
	if errMsg := qs.Get("error"); errMsg != "" {
		writeProblem(w, http.StatusBadRequest, "Authorization denied", errMsg)
		return
	}
	code := qs.Get("code")
	if code == "" {
		writeProblem(w, http.StatusBadRequest, "Missing code", "query parameter 'code' is required")
		return
	}
	hasRefresh, err := h.OAuth.Callback(r.Context(), defaultUserKey, qs.Get("state"), code)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "connected",
		"refresh_token": hasRefresh,
	})
}

// ---- search console ----

func (h *Handlers) gscSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.Search.Sites(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sites": sites, "total": len(sites)})
}

func (h *Handlers) gscAnalyze(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SiteURL  string `json:"site_url"`
		DaysBack int    `json:"days_back"`
	}
	if err := readJSON(r, &body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	id, report, err := h.Search.Analyze(r.Context(), body.SiteURL, body.DaysBack)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analysis_id": id,
		"report":      report,
	})
}

func (h *Handlers) gscAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	a, err := h.Search.Analysis(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeWithETag(w, r, map[string]any{
		"id":          a.ID,
		"site_url":    a.SiteURL,
		"analyzed_at": a.AnalyzedAt.UTC().Format(time.RFC3339),
		"report":      json.RawMessage(a.Raw),
	})
}

func (h *Handlers) gscAnalysisHistory(w http.ResponseWriter, r *http.Request) {
	siteURL := r.URL.Query().Get("site_url")
	as, err := h.Search.History(r.Context(), siteURL)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	views := make([]map[string]any, 0, len(as))
	for _, a := range as {
		views = append(views, map[string]any{
			"id":                a.ID,
			"site_url":          a.SiteURL,
			"analyzed_at":       a.AnalyzedAt.UTC().Format(time.RFC3339),
			"total_clicks":      a.TotalClicks,
			"total_impressions": a.TotalImpressions,
			"avg_ctr":           a.AvgCTR,
			"avg_position":      a.AvgPosition,
			"total_queries":     a.TotalQueries,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": views, "total": len(views)})
}

func (h *Handlers) gscPerformance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SiteURL    string                   `json:"site_url"`
		StartDate  string                   `json:"start_date"`
		EndDate    string                   `json:"end_date"`
		Dimensions []string                 `json:"dimensions"`
		RowLimit   int                      `json:"row_limit"`
		Filters    []domain.DimensionFilter `json:"filters"`
	}
	if err := readJSON(r, &body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if body.SiteURL == "" || body.StartDate == "" || body.EndDate == "" {
		writeProblem(w, http.StatusUnprocessableEntity, "Missing fields", "site_url, start_date and end_date are required")
		return
	}
	if body.RowLimit <= 0 || body.RowLimit > 25000 {
		body.RowLimit = 1000
	}
	rows, err := h.Search.Performance(r.Context(), body.SiteURL, domain.SearchQuery{
		StartDate:  body.StartDate,
		EndDate:    body.EndDate,
		Dimensions: body.Dimensions,
		RowLimit:   body.RowLimit,
		Filters:    body.Filters,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows, "total": len(rows)})
}

func (h *Handlers) gscOpportunities(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	siteURL := qs.Get("site_url")
	if siteURL == "" {
		writeProblem(w, http.StatusUnprocessableEntity, "Missing site_url", "query parameter 'site_url' is required")
		return
	}
	minPos, maxPos := 5.0, 20.0
	if v := qs.Get("min_position"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid min_position", "must be a number")
			return
		}
		minPos = f
	}
	if v := qs.Get("max_position"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid max_position", "must be a number")
			return
		}
		maxPos = f
	}
	end := time.Now().AddDate(0, 0, -3)
	start := end.AddDate(0, 0, -30)
	startDate, endDate := qs.Get("start_date"), qs.Get("end_date")
	if startDate == "" {
		startDate = start.Format("2006-01-02")
	}
	if endDate == "" {
		endDate = end.Format("2006-01-02")
	}
	rows, err := h.Search.Opportunities(r.Context(), siteURL, startDate, endDate, minPos, maxPos)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"site_url":      siteURL,
		"position_band": []float64{minPos, maxPos},
		"opportunities": rows,
		"total":         len(rows),
	})
}

func (h *Handlers) gscSitemaps(w http.ResponseWriter, r *http.Request) {
	siteURL := r.URL.Query().Get("site_url")
	if siteURL == "" {
		writeProblem(w, http.StatusUnprocessableEntity, "Missing site_url", "query parameter 'site_url' is required")
		return
	}
	maps, err := h.Search.Sitemaps(r.Context(), siteURL)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sitemaps": maps, "total": len(maps)})
}

func (h *Handlers) gscSubmitSitemap(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SiteURL  string `json:"site_url"`
		FeedPath string `json:"feed_path"`
	}
	if err := readJSON(r, &body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if body.SiteURL == "" || body.FeedPath == "" {
		writeProblem(w, http.StatusUnprocessableEntity, "Missing fields", "site_url and feed_path are required")
		return
	}
	if err := h.Search.SubmitSitemap(r.Context(), body.SiteURL, body.FeedPath); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "submitted", "sitemap": body.FeedPath})
}
