package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"prometrix/internal/app"
	"prometrix/internal/domain"
)

// ---- competitor gap analysis ----

func (h *Handlers) analyzeCompetitors(w http.ResponseWriter, r *http.Request) {
	var body struct {
		YourDomain  string   `json:"your_domain"`
		Competitors []string `json:"competitors"`
		MinDA       int      `json:"min_da"`
	}
	if err := readJSON(r, &body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if body.YourDomain == "" {
		body.YourDomain = "yourdomain.com"
	}
	report, err := h.Gap.Analyze(r.Context(), app.GapRequest{
		YourDomain:  body.YourDomain,
		Competitors: body.Competitors,
		MinDA:       body.MinDA,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                "success",
		"your_domain":           report.YourDomain,
		"competitors_analyzed":  report.Competitors,
		"gaps":                  report.Gaps,
		"bubbles":               report.Bubbles,
		"content_opportunities": report.ContentIdeas,
		"summary":               report.Summary,
	})
}

// ---- disavow ----

func (h *Handlers) generateDisavow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Domains []string `json:"domains"`
	}
	if err := readJSON(r, &body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	domains := body.Domains
	if len(domains) == 0 {
		// no explicit list: disavow everything the store marks high risk
		var err error
		domains, err = h.Q.HighRiskDomains(r.Context())
		if err != nil {
			writeDomainErr(w, err)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename=disavow.txt`)
	if err := app.WriteDisavow(w, domains, time.Now()); err != nil {
		writeDomainErr(w, err)
	}
}

// ---- campaigns ----

func (h *Handlers) createCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name           string  `json:"name"`
		PromoteURL     *string `json:"url_to_promote"`
		TargetKeywords *string `json:"target_keywords"`
		ProspectType   *string `json:"prospect_type"`
		EmailTone      *string `json:"email_tone"`
	}
	if err := readJSON(r, &body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	id, err := h.Out.CreateCampaign(r.Context(), domain.Campaign{
		Name:           body.Name,
		PromoteURL:     body.PromoteURL,
		TargetKeywords: body.TargetKeywords,
		ProspectType:   body.ProspectType,
		EmailTone:      body.EmailTone,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "campaign_id": id})
}

func (h *Handlers) listCampaigns(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Out.ListCampaigns(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": campaignViews(cs), "total": len(cs)})
}

func (h *Handlers) getCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	c, err := h.Out.GetCampaign(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaignView(c))
}

func (h *Handlers) updateCampaignStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := readJSON(r, &body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.Out.UpdateStatus(r.Context(), id, body.Status); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) campaignMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	m, err := h.Out.Metrics(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"series": map[string]any{
			"labels":     m.Labels,
			"open_rate":  m.OpenRate,
			"reply_rate": m.ReplyRate,
		},
		"totals": map[string]int{
			"links_acquired":   m.Links,
			"active_prospects": m.Prospects,
		},
	})
}

func (h *Handlers) generateEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Step       *int              `json:"step"`
		CampaignID *int64            `json:"campaign_id"`
		Variables  map[string]string `json:"variables"`
	}
	if err := readJSON(r, &body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if body.Step == nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Missing step", "field 'step' is required and must be an integer")
		return
	}
	email, err := h.Out.GenerateEmail(r.Context(), app.EmailRequest{
		Step:       *body.Step,
		CampaignID: body.CampaignID,
		Variables:  body.Variables,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      email.ID,
		"subject": email.Subject,
		"body":    email.Body,
	})
}

// ---- exports ----

func (h *Handlers) exportBacklinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.Q.All(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=backlinks.csv`)
	if err := app.WriteBacklinksCSV(w, links); err != nil {
		writeDomainErr(w, err)
	}
}

func (h *Handlers) exportAnalysis(w http.ResponseWriter, r *http.Request) {
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
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=gsc-analysis-%d.csv", id))
	if err := app.WriteAnalysisCSV(w, a); err != nil {
		writeDomainErr(w, err)
	}
}

// ---- views ----

type campaignJSON struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	PromoteURL     *string `json:"url_to_promote,omitempty"`
	TargetKeywords *string `json:"target_keywords,omitempty"`
	ProspectType   *string `json:"prospect_type,omitempty"`
	EmailTone      *string `json:"email_tone,omitempty"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
}

func campaignView(c domain.Campaign) campaignJSON {
	return campaignJSON{
		ID:             c.ID,
		Name:           c.Name,
		PromoteURL:     c.PromoteURL,
		TargetKeywords: c.TargetKeywords,
		ProspectType:   c.ProspectType,
		EmailTone:      c.EmailTone,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func campaignViews(cs []domain.Campaign) []campaignJSON {
	out := make([]campaignJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, campaignView(c))
	}
	return out
}
