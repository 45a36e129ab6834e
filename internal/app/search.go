package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"prometrix/internal/domain"
)

// Search Console data lags by a couple of days; end the window early so the
// last buckets aren't zeros.
const searchDataLag = 3 * 24 * time.Hour

type SearchService struct {
	client domain.SearchConsoleClient
	repo   domain.AnalysisRepository
	now    func() time.Time
}

func NewSearchService(c domain.SearchConsoleClient, r domain.AnalysisRepository) *SearchService {
	return &SearchService{client: c, repo: r, now: time.Now}
}

func (s *SearchService) Connected() bool { return s.client != nil }

func (s *SearchService) Sites(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.client.ListSites(ctx)
}

func (s *SearchService) Sitemaps(ctx context.Context, siteURL string) ([]domain.Sitemap, error) {
	if s.client == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.client.ListSitemaps(ctx, siteURL)
}

func (s *SearchService) SubmitSitemap(ctx context.Context, siteURL, feedPath string) error {
	if s.client == nil {
		return domain.ErrUnauthorized
	}
	return s.client.SubmitSitemap(ctx, siteURL, feedPath)
}

// Performance runs a raw search-analytics query against a property.
func (s *SearchService) Performance(ctx context.Context, siteURL string, q domain.SearchQuery) ([]domain.SearchRow, error) {
	if s.client == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.client.Query(ctx, siteURL, q)
}

// Analyze runs the comprehensive per-site report over the trailing daysBack
// window and persists a summary row. Returns the stored analysis id.
func (s *SearchService) Analyze(ctx context.Context, siteURL string, daysBack int) (int64, domain.SearchReport, error) {
	if s.client == nil {
		return 0, domain.SearchReport{}, domain.ErrUnauthorized
	}
	if siteURL == "" {
		return 0, domain.SearchReport{}, domain.ErrInvalidInput
	}
	if daysBack <= 0 {
		daysBack = 30
	}
	end := s.now().Add(-searchDataLag)
	start := end.AddDate(0, 0, -daysBack)
	report := domain.SearchReport{
		SiteURL:     siteURL,
		PeriodStart: start.Format("2006-01-02"),
		PeriodEnd:   end.Format("2006-01-02"),
	}
	base := domain.SearchQuery{StartDate: report.PeriodStart, EndDate: report.PeriodEnd}

	q := base
	q.RowLimit = 1
	overview, err := s.client.Query(ctx, siteURL, q)
	if err != nil {
		return 0, domain.SearchReport{}, fmt.Errorf("overview query: %w", err)
	}
	if len(overview) > 0 {
		r := overview[0]
		report.Overview = domain.SearchOverview{
			TotalClicks:      r.Clicks,
			TotalImpressions: r.Impressions,
			AvgCTR:           round2(r.CTR * 100),
			AvgPosition:      round1(r.Position),
		}
	}

	sections := []struct {
		dims  []string
		limit int
		dst   *[]domain.SearchRow
	}{
		{[]string{"date"}, 100, &report.ByDate},
		{[]string{"query"}, 50, &report.TopQueries},
		{[]string{"page"}, 50, &report.TopPages},
		{[]string{"country"}, 25, &report.ByCountry},
		{[]string{"device"}, 10, &report.ByDevice},
		{[]string{"query", "page"}, 100, &report.QueryPageRows},
	}
	for _, sec := range sections {
		q := base
		q.Dimensions = sec.dims
		q.RowLimit = sec.limit
		rows, err := s.client.Query(ctx, siteURL, q)
		if err != nil {
			return 0, domain.SearchReport{}, fmt.Errorf("query %v: %w", sec.dims, err)
		}
		*sec.dst = rows
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return 0, domain.SearchReport{}, err
	}
	id, err := s.repo.InsertAnalysis(ctx, domain.SearchAnalysis{
		SiteURL:          siteURL,
		AnalyzedAt:       s.now().UTC(),
		TotalClicks:      report.Overview.TotalClicks,
		TotalImpressions: report.Overview.TotalImpressions,
		AvgCTR:           report.Overview.AvgCTR,
		AvgPosition:      report.Overview.AvgPosition,
		TotalQueries:     len(report.TopQueries),
		Raw:              raw,
	})
	if err != nil {
		return 0, domain.SearchReport{}, err
	}
	return id, report, nil
}

func (s *SearchService) Analysis(ctx context.Context, id int64) (domain.SearchAnalysis, error) {
	return s.repo.GetAnalysis(ctx, id)
}

func (s *SearchService) History(ctx context.Context, siteURL string) ([]domain.SearchAnalysis, error) {
	return s.repo.ListAnalyses(ctx, siteURL)
}

// Opportunities returns query+page rows whose average position sits inside
// [minPos, maxPos], the striking-distance band worth building links for.
func (s *SearchService) Opportunities(ctx context.Context, siteURL, startDate, endDate string, minPos, maxPos float64) ([]domain.SearchRow, error) {
	if s.client == nil {
		return nil, domain.ErrUnauthorized
	}
	rows, err := s.client.Query(ctx, siteURL, domain.SearchQuery{
		StartDate:  startDate,
		EndDate:    endDate,
		Dimensions: []string{"query", "page"},
		RowLimit:   25000,
	})
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, r := range rows {
		if r.Position >= minPos && r.Position <= maxPos {
			out = append(out, r)
		}
	}
	return out, nil
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
func round1(f float64) float64 { return math.Round(f*10) / 10 }
