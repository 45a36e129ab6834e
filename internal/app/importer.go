package app

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"prometrix/internal/adapters/observability"
	"prometrix/internal/domain"
)

/********** column alias registry (single source of truth) **********/

// Covers the export header variants of the common backlink tools
// (Ahrefs, SEMrush, Moz) plus our own CSV export. Aliases are spelled in
// the normalized form produced by normalizeHeader, so "URL From" and
// "Domain Rating" resolve through "url_from" and "domain_rating".
var columnAliases = map[string][]string{
	"source_url":       {"backlink_source", "url_from", "source_url", "referring_page", "backlink", "url"},
	"anchor_text":      {"anchor_text", "anchor", "text"},
	"target_url":       {"target_url", "url_to", "target", "destination_url"},
	"domain_authority": {"domain_authority", "da", "authority_score", "domain_rating"},
	"nofollow":         {"nofollow", "is_nofollow", "nofollow?"},
	"date_found":       {"date_found", "first_seen", "found_on"},
	"link_type":        {"link_type", "type"},
	"source_domain":    {"source_domain", "domain_from", "referring_domain", "root_domain"},
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02 Jan 2006",
	"01/02/2006",
}

type ImportResult struct {
	Inserted  int64 `json:"inserted"`
	Errors    int   `json:"errors"`
	TotalRows int   `json:"total_rows"`
}

type ImportService struct {
	repo  domain.BacklinkRepository
	cache domain.Cache
}

func NewImportService(r domain.BacklinkRepository, cache domain.Cache) *ImportService {
	return &ImportService{repo: r, cache: cache}
}

// ImportCSV parses a backlink export and persists the rows. Malformed rows
// are counted, not fatal. Every inserted link gets a computed risk level.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	links, res, err := ParseCSV(r)
	if err != nil {
		return ImportResult{}, err
	}
	n, err := s.repo.InsertBacklinks(ctx, links)
	if err != nil {
		observability.ObserveImport("error", len(links))
		return ImportResult{}, err
	}
	res.Inserted = n
	observability.ObserveImport("ok", int(n))
	if res.Errors > 0 {
		observability.ObserveImport("error", res.Errors)
	}

	// imported rows change every aggregate
	if s.cache != nil {
		_ = s.cache.Del(ctx, summaryCacheKey)
	}
	return res, nil
}

// ParseCSV maps tool-specific headers through the alias registry and builds
// scored backlinks. Returns rows parsed plus the per-row error count.
func ParseCSV(r io.Reader) ([]domain.Backlink, ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, ImportResult{}, errors.New("empty or unreadable CSV")
	}
	cols := indexColumns(header)
	if _, ok := cols["source_url"]; !ok {
		return nil, ImportResult{}, errors.New("no backlink source column found")
	}

	var (
		links []domain.Backlink
		res   ImportResult
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.TotalRows++
			res.Errors++
			continue
		}
		res.TotalRows++
		b, err := mapRecord(cols, rec)
		if err != nil {
			res.Errors++
			log.Debug().Err(err).Int("row", res.TotalRows).Msg("skipping CSV row")
			continue
		}
		links = append(links, b)
	}
	if res.TotalRows == 0 {
		return nil, ImportResult{}, errors.New("CSV file is empty")
	}
	return links, res, nil
}

// normalizeHeader strips the UTF-8 BOM Excel prepends, lowercases, and folds
// spaces to underscores so "URL From" and "url_from" index the same alias.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

// indexColumns resolves each canonical field to a column index, first alias wins.
func indexColumns(header []string) map[string]int {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}
	out := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			for i, h := range norm {
				if h == a {
					out[field] = i
					break
				}
			}
			if _, ok := out[field]; ok {
				break
			}
		}
	}
	return out
}

func mapRecord(cols map[string]int, rec []string) (domain.Backlink, error) {
	get := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	src := get("source_url")
	if src == "" {
		return domain.Backlink{}, errors.New("missing backlink source")
	}

	b := domain.Backlink{
		SourceURL:    src,
		AnchorText:   optStr(get("anchor_text")),
		TargetURL:    optStr(get("target_url")),
		SourceDomain: optStr(get("source_domain")),
		LinkType:     optStr(strings.ToLower(get("link_type"))),
	}
	if v := get("domain_authority"); v != "" {
		da, err := strconv.Atoi(strings.TrimSuffix(v, ".0"))
		if err != nil {
			return domain.Backlink{}, err
		}
		b.DomainAuthority = &da
	}
	if v := get("nofollow"); v != "" {
		nf := ParseBool(v)
		b.Nofollow = &nf
	}
	if v := get("date_found"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return domain.Backlink{}, err
		}
		b.DateFound = &t
	}
	if b.SourceDomain == nil {
		if d := domainOf(src); d != "" {
			b.SourceDomain = &d
		}
	}
	b.RiskLevel, b.RiskScore, _ = AssessRisk(b.DomainAuthority, b.Nofollow, b.LinkType)
	return b, nil
}

// ParseBool accepts the truthy spellings seen in tool exports.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func parseDate(v string) (time.Time, error) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date: " + v)
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
