package domain

// Outreach effort buckets for a gap opportunity.
const (
	EffortEasy   = "Easy"
	EffortMedium = "Medium"
	EffortHard   = "Hard"
)

// GapLink is a domain that links to a competitor but not to the tracked site.
type GapLink struct {
	ID              int64
	LinkingDomain   string
	DomainAuthority int
	YourSite        bool
	CompetitorA     bool
	CompetitorB     bool
	Effort          string
	PotentialValue  int
}

// GapBubble is one point of the effort-vs-reward chart.
type GapBubble struct {
	Effort int    `json:"effort"`
	Value  int    `json:"value"`
	Radius int    `json:"radius"`
	Domain string `json:"domain"`
}

// ContentIdea is a suggested asset likely to attract links.
type ContentIdea struct {
	Type        string `json:"type"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
	TargetCount int    `json:"target_count"`
	AvgDA       int    `json:"avg_da"`
}

type GapSummary struct {
	TotalOpportunities int `json:"total_opportunities"`
	EasyTargets        int `json:"easy_targets"`
	MediumTargets      int `json:"medium_targets"`
	HardTargets        int `json:"hard_targets"`
	AvgDA              int `json:"avg_da"`
}

// GapReport is the full competitor-analysis result.
type GapReport struct {
	YourDomain   string        `json:"your_domain"`
	Competitors  int           `json:"competitors_analyzed"`
	Gaps         []GapLink     `json:"gaps"`
	Bubbles      []GapBubble   `json:"bubbles"`
	ContentIdeas []ContentIdea `json:"content_opportunities"`
	Summary      GapSummary    `json:"summary"`
}
