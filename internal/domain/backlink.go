package domain

import "time"

// Risk buckets for a backlink.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Link placements that carry extra risk weight.
const (
	LinkTypeFooter    = "footer"
	LinkTypeSidebar   = "sidebar"
	LinkTypeEditorial = "editorial"
)

type Backlink struct {
	ID              int64
	SourceURL       string // full URL of the referring page
	SourceDomain    *string
	AnchorText      *string
	TargetURL       *string
	DomainAuthority *int
	Nofollow        *bool
	LinkType        *string
	RiskLevel       string
	RiskScore       float64
	DateFound       *time.Time
}

// RiskScoreEntry is one row of the rescoring audit trail.
type RiskScoreEntry struct {
	ID         int64
	BacklinkID int64
	Score      float64
	Reason     string
	ScoredAt   time.Time
}

// Anchor-text buckets used by the summary report.
const (
	AnchorBranded  = "Branded"
	AnchorExact    = "Exact Match"
	AnchorPartial  = "Partial Match"
	AnchorGeneric  = "Generic"
	AnchorNakedURL = "Naked URL"
)

type BacklinksQuery struct {
	RiskLevel *string
	MinDA     *int
	MaxDA     *int
	LinkType  *string
	Limit     int
	Offset    int
}

// BacklinkSummary feeds the dashboard cards and charts.
type BacklinkSummary struct {
	TotalBacklinks   int            `json:"total_backlinks"`
	ReferringDomains int            `json:"referring_domains"`
	AverageDA        int            `json:"average_da"`
	ToxicLinks       int            `json:"toxic_links"`
	Healthy          int            `json:"healthy"`
	Warning          int            `json:"warning"`
	Toxic            int            `json:"toxic"`
	AnchorBuckets    map[string]int `json:"anchor_distribution"`
}
