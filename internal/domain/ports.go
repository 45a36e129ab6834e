package domain

import "context"

type BacklinkRepository interface {
	// Write paths
	InsertBacklinks(ctx context.Context, bs []Backlink) (int64, error)
	UpdateRisk(ctx context.Context, id int64, level string, score float64) error
	AppendRiskScores(ctx context.Context, entries []RiskScoreEntry) error

	// Read paths
	GetBacklink(ctx context.Context, id int64) (Backlink, error)
	ListBacklinks(ctx context.Context, q BacklinksQuery) ([]Backlink, error)
	AllBacklinks(ctx context.Context) ([]Backlink, error)
}

type GapRepository interface {
	UpsertGapLinks(ctx context.Context, gs []GapLink) error
	ListGapLinks(ctx context.Context) ([]GapLink, error)
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, c Campaign) (int64, error)
	GetCampaign(ctx context.Context, id int64) (Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	UpdateCampaignStatus(ctx context.Context, id int64, status string) error

	InsertEmail(ctx context.Context, e OutreachEmail) (int64, error)
	// ListEmails returns the stored sequence for a campaign with step < beforeStep,
	// ordered by step ascending. beforeStep <= 0 means all steps.
	ListEmails(ctx context.Context, campaignID int64, beforeStep int) ([]OutreachEmail, error)
}

type AnalysisRepository interface {
	InsertAnalysis(ctx context.Context, a SearchAnalysis) (int64, error)
	GetAnalysis(ctx context.Context, id int64) (SearchAnalysis, error)
	ListAnalyses(ctx context.Context, siteURL string) ([]SearchAnalysis, error)
}

type TokenRepository interface {
	SaveToken(ctx context.Context, t OAuthToken) error
	LoadToken(ctx context.Context, userKey string) (OAuthToken, error)
}

type SearchConsoleClient interface {
	ListSites(ctx context.Context) ([]string, error)
	Query(ctx context.Context, siteURL string, q SearchQuery) ([]SearchRow, error)
	ListSitemaps(ctx context.Context, siteURL string) ([]Sitemap, error)
	SubmitSitemap(ctx context.Context, siteURL, feedPath string) error
}

// EmailPrompt carries everything the writer needs to draft one sequence step.
type EmailPrompt struct {
	Step           int
	Guidance       string
	FirstName      string
	Topic          string
	YourTopic      string
	YourName       string
	PromoteURL     string
	TargetKeywords string
	Tone           string
	Previous       []OutreachEmail
}

// EmailWriter drafts an outreach email body. Implementations may call an
// external model; callers fall back to templates on error.
type EmailWriter interface {
	WriteEmail(ctx context.Context, p EmailPrompt) (string, error)
}

// ContentSuggester proposes link-worthy content assets for a domain against
// its competitors. Implementations may call an external model; callers fall
// back to canned ideas on error.
type ContentSuggester interface {
	SuggestIdeas(ctx context.Context, yourDomain string, competitors []string) ([]ContentIdea, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
