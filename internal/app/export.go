package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"prometrix/internal/domain"
)

// WriteBacklinksCSV writes the export in our own canonical header order,
// which the import alias registry also accepts.
func WriteBacklinksCSV(w io.Writer, links []domain.Backlink) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"backlink_source", "source_domain", "anchor_text", "target_url",
		"domain_authority", "nofollow", "date_found", "link_type", "risk_level",
	}); err != nil {
		return err
	}
	for _, b := range links {
		rec := []string{
			b.SourceURL,
			strOr(b.SourceDomain),
			strOr(b.AnchorText),
			strOr(b.TargetURL),
			"",
			"",
			"",
			strOr(b.LinkType),
			b.RiskLevel,
		}
		if b.DomainAuthority != nil {
			rec[4] = strconv.Itoa(*b.DomainAuthority)
		}
		if b.Nofollow != nil {
			rec[5] = strconv.FormatBool(*b.Nofollow)
		}
		if b.DateFound != nil {
			rec[6] = b.DateFound.UTC().Format("2006-01-02")
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAnalysisCSV exports the top queries of a stored analysis.
func WriteAnalysisCSV(w io.Writer, a domain.SearchAnalysis) error {
	var report domain.SearchReport
	if len(a.Raw) > 0 {
		if err := json.Unmarshal(a.Raw, &report); err != nil {
			return fmt.Errorf("invalid analysis payload: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Query", "Clicks", "Impressions", "CTR", "Position"}); err != nil {
		return err
	}
	for _, r := range report.TopQueries {
		q := ""
		if len(r.Keys) > 0 {
			q = r.Keys[0]
		}
		if err := cw.Write([]string{
			q,
			strconv.FormatInt(r.Clicks, 10),
			strconv.FormatInt(r.Impressions, 10),
			fmt.Sprintf("%.2f%%", r.CTR*100),
			fmt.Sprintf("%.1f", r.Position),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
