package domain

import "time"

// Campaign statuses.
const (
	CampaignActive   = "Active"
	CampaignPaused   = "Paused"
	CampaignArchived = "Archived"
)

type Campaign struct {
	ID             int64
	Name           string
	PromoteURL     *string
	TargetKeywords *string
	ProspectType   *string
	EmailTone      *string
	Status         string
	CreatedAt      time.Time
}

// OutreachEmail is a generated message in a campaign's 3-step sequence.
type OutreachEmail struct {
	ID         int64
	CampaignID *int64
	Step       int
	Subject    string
	Body       string
	CreatedAt  time.Time
}
