package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"prometrix/internal/domain"
)

// WriteDisavow emits a Google-compliant disavow file: comment header, one
// domain: directive per line. Blank and comment inputs are skipped.
func WriteDisavow(w io.Writer, domains []string, now time.Time) error {
	if _, err := fmt.Fprintf(w, "# Created by Prometrix\n# Generated: %s\n\n", now.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" || strings.HasPrefix(d, "#") {
			continue
		}
		if _, err := fmt.Fprintf(w, "domain:%s\n", d); err != nil {
			return err
		}
	}
	return nil
}

// HighRiskDomains returns the distinct referring domains of all high-risk
// backlinks, sorted, for a store-driven disavow file.
func HighRiskDomains(ctx context.Context, repo domain.BacklinkRepository) ([]string, error) {
	level := domain.RiskHigh
	links, err := repo.ListBacklinks(ctx, domain.BacklinksQuery{RiskLevel: &level, Limit: 10000})
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []string
	for _, b := range links {
		if b.SourceDomain == nil || *b.SourceDomain == "" {
			continue
		}
		if _, ok := seen[*b.SourceDomain]; ok {
			continue
		}
		seen[*b.SourceDomain] = struct{}{}
		out = append(out, *b.SourceDomain)
	}
	sort.Strings(out)
	return out, nil
}
