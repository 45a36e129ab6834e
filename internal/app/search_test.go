package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"prometrix/internal/app"
	"prometrix/internal/domain"
)

type fakeConsole struct {
	queries []domain.SearchQuery
	rows    func(q domain.SearchQuery) []domain.SearchRow
}

func (f *fakeConsole) ListSites(ctx context.Context) ([]string, error) {
	return []string{"sc-domain:example.com"}, nil
}

func (f *fakeConsole) Query(ctx context.Context, siteURL string, q domain.SearchQuery) ([]domain.SearchRow, error) {
	f.queries = append(f.queries, q)
	if f.rows == nil {
		return nil, nil
	}
	return f.rows(q), nil
}

func (f *fakeConsole) ListSitemaps(ctx context.Context, siteURL string) ([]domain.Sitemap, error) {
	return nil, nil
}

func (f *fakeConsole) SubmitSitemap(ctx context.Context, siteURL, feedPath string) error {
	return nil
}

type fakeAnalysisRepo struct {
	saved []domain.SearchAnalysis
}

func (f *fakeAnalysisRepo) InsertAnalysis(ctx context.Context, a domain.SearchAnalysis) (int64, error) {
	a.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, a)
	return a.ID, nil
}

func (f *fakeAnalysisRepo) GetAnalysis(ctx context.Context, id int64) (domain.SearchAnalysis, error) {
	for _, a := range f.saved {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.SearchAnalysis{}, domain.ErrNotFound
}

func (f *fakeAnalysisRepo) ListAnalyses(ctx context.Context, siteURL string) ([]domain.SearchAnalysis, error) {
	return f.saved, nil
}

func TestAnalyze_FansOutAndPersists(t *testing.T) {
	console := &fakeConsole{rows: func(q domain.SearchQuery) []domain.SearchRow {
		if len(q.Dimensions) == 0 {
			return []domain.SearchRow{{Clicks: 100, Impressions: 1000, CTR: 0.0512, Position: 12.34}}
		}
		return []domain.SearchRow{
			{Keys: []string{"a"}, Clicks: 60},
			{Keys: []string{"b"}, Clicks: 40},
		}
	}}
	repo := &fakeAnalysisRepo{}
	svc := app.NewSearchService(console, repo)

	id, report, err := svc.Analyze(context.Background(), "sc-domain:example.com", 28)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if id != 1 {
		t.Fatalf("analysis id: %d", id)
	}
	if report.Overview.AvgCTR != 5.12 || report.Overview.AvgPosition != 12.3 {
		t.Fatalf("overview rounding: %+v", report.Overview)
	}

	// overview plus six dimension sections
	if len(console.queries) != 7 {
		t.Fatalf("queries: %d", len(console.queries))
	}
	wantLimits := []int{1, 100, 50, 50, 25, 10, 100}
	for i, q := range console.queries {
		if q.RowLimit != wantLimits[i] {
			t.Fatalf("query %d row limit %d, want %d", i, q.RowLimit, wantLimits[i])
		}
		if q.StartDate != report.PeriodStart || q.EndDate != report.PeriodEnd {
			t.Fatalf("query %d window %s..%s", i, q.StartDate, q.EndDate)
		}
	}
	if len(console.queries[6].Dimensions) != 2 {
		t.Fatalf("last section should be query+page: %v", console.queries[6].Dimensions)
	}

	start, err1 := time.Parse("2006-01-02", report.PeriodStart)
	end, err2 := time.Parse("2006-01-02", report.PeriodEnd)
	if err1 != nil || err2 != nil {
		t.Fatalf("window format: %s..%s", report.PeriodStart, report.PeriodEnd)
	}
	if days := int(end.Sub(start).Hours() / 24); days != 28 {
		t.Fatalf("window length: %d days", days)
	}

	saved := repo.saved[0]
	if saved.TotalClicks != 100 || saved.TotalQueries != 2 || len(saved.Raw) == 0 {
		t.Fatalf("persisted analysis: %+v", saved)
	}
}

func TestAnalyze_Unconfigured(t *testing.T) {
	svc := app.NewSearchService(nil, &fakeAnalysisRepo{})
	if svc.Connected() {
		t.Fatalf("nil client must report disconnected")
	}
	if _, _, err := svc.Analyze(context.Background(), "x", 30); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Sites(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAnalyze_MissingSite(t *testing.T) {
	svc := app.NewSearchService(&fakeConsole{}, &fakeAnalysisRepo{})
	if _, _, err := svc.Analyze(context.Background(), "", 30); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOpportunities_PositionBand(t *testing.T) {
	console := &fakeConsole{rows: func(q domain.SearchQuery) []domain.SearchRow {
		return []domain.SearchRow{
			{Keys: []string{"top", "/a"}, Position: 3},
			{Keys: []string{"striking", "/b"}, Position: 8},
			{Keys: []string{"deep", "/c"}, Position: 25},
		}
	}}
	svc := app.NewSearchService(console, &fakeAnalysisRepo{})

	rows, err := svc.Opportunities(context.Background(), "sc-domain:example.com", "2024-01-01", "2024-01-31", 5, 20)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(rows) != 1 || rows[0].Keys[0] != "striking" {
		t.Fatalf("rows: %+v", rows)
	}
	q := console.queries[0]
	if q.RowLimit != 25000 || len(q.Dimensions) != 2 {
		t.Fatalf("query shape: %+v", q)
	}
}
