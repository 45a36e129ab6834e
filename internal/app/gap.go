package app

import (
	"context"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"prometrix/internal/domain"
)

// Candidate pool of high-authority domains that commonly link out to
// business sites. Until a Moz/Ahrefs feed is wired in, presence flags are
// simulated deterministically from this pool.
var candidateDomains = []string{
	"techcrunch.com", "forbes.com", "entrepreneur.com", "inc.com", "fastcompany.com",
	"businessinsider.com", "mashable.com", "venturebeat.com", "wired.com", "arstechnica.com",
	"industryblog.net", "smallbusiness.com", "startupnews.com", "digitaltrends.com",
	"marketingland.com", "searchengineland.com", "moz.com", "semrush.com", "hubspot.com",
	"contentmarketinginstitute.com", "socialmediaexaminer.com", "copyblogger.com",
}

const maxGapCandidates = 15

var knownPublishers = []string{"techcrunch", "forbes", "cnn", "bbc"}

type GapRequest struct {
	YourDomain  string
	Competitors []string
	MinDA       int
}

type GapService struct {
	repo    domain.GapRepository
	suggest domain.ContentSuggester // optional
}

func NewGapService(r domain.GapRepository, s domain.ContentSuggester) *GapService {
	return &GapService{repo: r, suggest: s}
}

// Analyze builds the competitor gap report, persists the opportunities and
// returns the full payload for the dashboard.
func (s *GapService) Analyze(ctx context.Context, req GapRequest) (domain.GapReport, error) {
	if req.YourDomain == "" {
		return domain.GapReport{}, domain.ErrInvalidInput
	}
	competitors := req.Competitors
	if len(competitors) > 5 {
		competitors = competitors[:5]
	}

	gaps := GapOpportunities(req.YourDomain, competitors, req.MinDA)
	if s.repo != nil {
		if err := s.repo.UpsertGapLinks(ctx, gaps); err != nil {
			return domain.GapReport{}, err
		}
	}

	report := domain.GapReport{
		YourDomain:  req.YourDomain,
		Competitors: len(competitors),
		Gaps:        gaps,
		Bubbles:     bubbles(gaps),
		Summary:     summarizeGaps(gaps),
	}
	report.ContentIdeas = s.contentIdeas(ctx, req.YourDomain, competitors)
	return report, nil
}

func (s *GapService) contentIdeas(ctx context.Context, yourDomain string, competitors []string) []domain.ContentIdea {
	if s.suggest != nil {
		ideas, err := s.suggest.SuggestIdeas(ctx, yourDomain, competitors)
		if err == nil && len(ideas) > 0 {
			if len(ideas) > 3 {
				ideas = ideas[:3]
			}
			return ideas
		}
		if err != nil {
			log.Warn().Err(err).Msg("content suggestion failed, using fallback ideas")
		}
	}
	return fallbackIdeas(yourDomain)
}

// GapOpportunities scores the candidate pool and keeps domains where a
// competitor has a link and the site does not. Deterministic: presence flags
// derive from FNV hashes, so the same inputs reproduce the same report.
func GapOpportunities(yourDomain string, competitors []string, minDA int) []domain.GapLink {
	var out []domain.GapLink
	for _, d := range candidateDomains[:maxGapCandidates] {
		da := EstimateAuthority(d)
		if da < minDA {
			continue
		}
		compA := len(competitors) > 0 && hash32(d+competitors[0])%3 == 0
		compB := len(competitors) > 1 && hash32(d+competitors[1])%3 == 0
		yours := hash32(d+yourDomain)%5 == 0
		if !(compA || compB) || yours {
			continue
		}
		val := da
		if val > 100 {
			val = 100
		}
		out = append(out, domain.GapLink{
			LinkingDomain:   d,
			DomainAuthority: da,
			YourSite:        yours,
			CompetitorA:     compA,
			CompetitorB:     compB,
			Effort:          effortLevel(da),
			PotentialValue:  val,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DomainAuthority > out[j].DomainAuthority })
	return out
}

// EstimateAuthority is a stand-in for a Moz/Ahrefs DA lookup: a heuristic on
// domain shape, deterministic per domain.
func EstimateAuthority(d string) int {
	h := int(hash32(d))
	switch {
	case strings.Contains(d, ".edu") || strings.Contains(d, ".gov"):
		return 85 + h%15
	case containsAny(d, knownPublishers...):
		return 80 + h%20
	case len(strings.SplitN(d, ".", 2)[0]) > 15:
		return 20 + h%30
	default:
		return 30 + h%50
	}
}

func effortLevel(da int) string {
	switch {
	case da >= 80:
		return domain.EffortHard
	case da >= 50:
		return domain.EffortMedium
	default:
		return domain.EffortEasy
	}
}

var effortScores = map[string]int{
	domain.EffortEasy:   20,
	domain.EffortMedium: 50,
	domain.EffortHard:   80,
}

func bubbles(gaps []domain.GapLink) []domain.GapBubble {
	out := make([]domain.GapBubble, 0, len(gaps))
	for _, g := range gaps {
		score, ok := effortScores[g.Effort]
		if !ok {
			score = 50
		}
		r := g.DomainAuthority / 5
		if r < 8 {
			r = 8
		}
		if r > 20 {
			r = 20
		}
		out = append(out, domain.GapBubble{
			Effort: score,
			Value:  g.PotentialValue,
			Radius: r,
			Domain: g.LinkingDomain,
		})
	}
	return out
}

func summarizeGaps(gaps []domain.GapLink) domain.GapSummary {
	sum := domain.GapSummary{TotalOpportunities: len(gaps)}
	daTotal := 0
	for _, g := range gaps {
		switch g.Effort {
		case domain.EffortEasy:
			sum.EasyTargets++
		case domain.EffortMedium:
			sum.MediumTargets++
		case domain.EffortHard:
			sum.HardTargets++
		}
		daTotal += g.DomainAuthority
	}
	if len(gaps) > 0 {
		sum.AvgDA = daTotal / len(gaps)
	}
	return sum
}

func fallbackIdeas(yourDomain string) []domain.ContentIdea {
	brand := strings.SplitN(yourDomain, ".", 2)[0]
	if brand == "" {
		brand = yourDomain
	}
	brand = strings.ToUpper(brand[:1]) + brand[1:]
	return []domain.ContentIdea{
		{
			Type:        "Comparison Guide",
			Topic:       "Best " + brand + " Alternatives",
			Description: "Comprehensive comparison including competitor analysis to attract resource page links.",
			TargetCount: 15,
			AvgDA:       58,
		},
		{
			Type:        "Industry Report",
			Topic:       "State of the Industry",
			Description: "Data-driven report with original research that journalists and bloggers will reference.",
			TargetCount: 23,
			AvgDA:       67,
		},
		{
			Type:        "Resource Collection",
			Topic:       "Ultimate Toolkit for Professionals",
			Description: "Curated list of tools and resources that other sites will link to as a reference.",
			TargetCount: 31,
			AvgDA:       41,
		},
	}
}

func hash32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
