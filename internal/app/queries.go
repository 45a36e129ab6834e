package app

import (
	"context"
	"time"

	"prometrix/internal/domain"
)

const summaryCacheKey = "backlinks:summary"

type QueryService struct {
	repo     domain.BacklinkRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.BacklinkRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetBacklink(ctx context.Context, id int64) (domain.Backlink, error) {
	return s.repo.GetBacklink(ctx, id)
}

func (s *QueryService) ListBacklinks(ctx context.Context, q domain.BacklinksQuery) ([]domain.Backlink, error) {
	return s.repo.ListBacklinks(ctx, q)
}

// All returns the full table, for exports.
func (s *QueryService) All(ctx context.Context) ([]domain.Backlink, error) {
	return s.repo.AllBacklinks(ctx)
}

// HighRiskDomains feeds the store-driven disavow file.
func (s *QueryService) HighRiskDomains(ctx context.Context) ([]string, error) {
	return HighRiskDomains(ctx, s.repo)
}

// Summary aggregates the whole table; cached because the dashboard polls it.
func (s *QueryService) Summary(ctx context.Context) (domain.BacklinkSummary, error) {
	var sum domain.BacklinkSummary
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, summaryCacheKey, &sum); ok {
			return sum, nil
		}
	}
	links, err := s.repo.AllBacklinks(ctx)
	if err != nil {
		return domain.BacklinkSummary{}, err
	}
	sum = Summarize(links)
	if s.cache != nil {
		_ = s.cache.Set(ctx, summaryCacheKey, sum, int(s.cacheTTL.Seconds()))
	}
	return sum, nil
}

// Summarize computes the dashboard aggregates from a backlink set.
func Summarize(links []domain.Backlink) domain.BacklinkSummary {
	sum := domain.BacklinkSummary{
		AnchorBuckets: map[string]int{
			domain.AnchorBranded:  0,
			domain.AnchorExact:    0,
			domain.AnchorPartial:  0,
			domain.AnchorGeneric:  0,
			domain.AnchorNakedURL: 0,
		},
	}
	sum.TotalBacklinks = len(links)

	domains := map[string]struct{}{}
	daSum := 0
	for _, b := range links {
		switch b.RiskLevel {
		case domain.RiskLow:
			sum.Healthy++
		case domain.RiskMedium:
			sum.Warning++
		case domain.RiskHigh:
			sum.Toxic++
		}
		sum.AnchorBuckets[AnchorBucket(b.AnchorText)]++
		if b.SourceDomain != nil && *b.SourceDomain != "" {
			domains[*b.SourceDomain] = struct{}{}
		}
		if b.DomainAuthority != nil {
			daSum += *b.DomainAuthority
		}
	}
	sum.ReferringDomains = len(domains)
	sum.ToxicLinks = sum.Toxic
	if sum.TotalBacklinks > 0 {
		sum.AverageDA = daSum / sum.TotalBacklinks
	}
	return sum
}

// Rescore recomputes risk for every stored link, persists the new bucket and
// appends an audit entry per link. Returns the number of links rescored.
func (s *QueryService) Rescore(ctx context.Context) (int, error) {
	links, err := s.repo.AllBacklinks(ctx)
	if err != nil {
		return 0, err
	}
	entries := make([]domain.RiskScoreEntry, 0, len(links))
	now := time.Now().UTC()
	for _, b := range links {
		level, score, reason := AssessRisk(b.DomainAuthority, b.Nofollow, b.LinkType)
		if err := s.repo.UpdateRisk(ctx, b.ID, level, score); err != nil {
			return 0, err
		}
		entries = append(entries, domain.RiskScoreEntry{
			BacklinkID: b.ID, Score: score, Reason: reason, ScoredAt: now,
		})
	}
	if err := s.repo.AppendRiskScores(ctx, entries); err != nil {
		return 0, err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, summaryCacheKey)
	}
	return len(links), nil
}
