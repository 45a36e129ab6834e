package domain

import "time"

// SearchQuery is a Search Console search-analytics request.
type SearchQuery struct {
	StartDate  string
	EndDate    string
	Dimensions []string
	RowLimit   int
	Filters    []DimensionFilter
}

// DimensionFilter restricts a search-analytics query to matching rows.
type DimensionFilter struct {
	Dimension  string `json:"dimension"`
	Operator   string `json:"operator"`
	Expression string `json:"expression"`
}

// SearchRow is one aggregated row returned by Search Console.
type SearchRow struct {
	Keys        []string `json:"keys,omitempty"`
	Clicks      int64    `json:"clicks"`
	Impressions int64    `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

type Sitemap struct {
	Path        string     `json:"path"`
	LastSubmit  *time.Time `json:"lastSubmitted,omitempty"`
	IsPending   bool       `json:"isPending"`
	WarningsNum int64      `json:"warnings"`
	ErrorsNum   int64      `json:"errors"`
}

// SearchOverview is the zero-dimension totals for a period.
type SearchOverview struct {
	TotalClicks      int64   `json:"total_clicks"`
	TotalImpressions int64   `json:"total_impressions"`
	AvgCTR           float64 `json:"avg_ctr"`      // percent, 2 decimals
	AvgPosition      float64 `json:"avg_position"` // 1 decimal
}

// SearchReport is the comprehensive per-site analysis payload.
type SearchReport struct {
	SiteURL       string         `json:"site_url"`
	PeriodStart   string         `json:"period_start"`
	PeriodEnd     string         `json:"period_end"`
	Overview      SearchOverview `json:"overview"`
	ByDate        []SearchRow    `json:"performance_by_date"`
	TopQueries    []SearchRow    `json:"top_queries"`
	TopPages      []SearchRow    `json:"top_pages"`
	ByCountry     []SearchRow    `json:"performance_by_country"`
	ByDevice      []SearchRow    `json:"performance_by_device"`
	QueryPageRows []SearchRow    `json:"query_page_performance"`
}

// SearchAnalysis is a persisted analysis run.
type SearchAnalysis struct {
	ID               int64
	SiteURL          string
	AnalyzedAt       time.Time
	TotalClicks      int64
	TotalImpressions int64
	AvgCTR           float64
	AvgPosition      float64
	TotalQueries     int
	Raw              []byte // full SearchReport JSON
}

// OAuthToken holds the persisted Search Console credentials for a user key.
type OAuthToken struct {
	UserKey      string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
