package app

import (
	"strings"

	"prometrix/internal/domain"
)

// Score thresholds for the risk buckets.
const (
	riskHighFloor   = 0.7
	riskMediumFloor = 0.4
)

func riskBucket(score float64) string {
	if score >= riskHighFloor {
		return domain.RiskHigh
	}
	if score >= riskMediumFloor {
		return domain.RiskMedium
	}
	return domain.RiskLow
}

// AssessRisk scores a backlink from its characteristics. Missing DA counts
// as 0. The bucket is always derived from the score, so the two stay
// consistent when persisted separately.
func AssessRisk(da *int, nofollow *bool, linkType *string) (level string, score float64, reason string) {
	d := 0
	if da != nil {
		d = *da
	}
	nf := nofollow != nil && *nofollow
	lt := ""
	if linkType != nil {
		lt = strings.ToLower(strings.TrimSpace(*linkType))
	}
	boilerplate := lt == domain.LinkTypeFooter || lt == domain.LinkTypeSidebar

	switch {
	case d < 10:
		score, reason = 0.9, "domain authority below 10"
	case nf && d < 20:
		score, reason = 0.8, "nofollow link from weak domain"
	case boilerplate && d < 30:
		score, reason = 0.75, "boilerplate placement on weak domain"
	case d < 30:
		score, reason = 0.55, "domain authority below 30"
	case boilerplate:
		score, reason = 0.45, "boilerplate placement"
	default:
		score, reason = 0.15, "no risk factors"
	}
	return riskBucket(score), score, reason
}

// AnchorBucket classifies anchor text for the distribution chart.
func AnchorBucket(anchor *string) string {
	a := ""
	if anchor != nil {
		a = strings.ToLower(strings.TrimSpace(*anchor))
	}
	switch {
	case a == "" || strings.HasPrefix(a, "http"):
		return domain.AnchorNakedURL
	case len(strings.Fields(a)) == 1:
		return domain.AnchorExact
	case containsAny(a, "click here", "read more", "visit site"):
		return domain.AnchorGeneric
	case containsAny(a, "brand", "inc", "llc"):
		return domain.AnchorBranded
	default:
		return domain.AnchorPartial
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
