package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"prometrix/internal/app"
	"prometrix/internal/domain"
)

type fakeCampaignRepo struct {
	campaigns map[int64]domain.Campaign
	emails    []domain.OutreachEmail
	nextID    int64
	status    map[int64]string
}

func (f *fakeCampaignRepo) CreateCampaign(ctx context.Context, c domain.Campaign) (int64, error) {
	if f.campaigns == nil {
		f.campaigns = map[int64]domain.Campaign{}
	}
	f.nextID++
	c.ID = f.nextID
	f.campaigns[c.ID] = c
	return c.ID, nil
}

func (f *fakeCampaignRepo) GetCampaign(ctx context.Context, id int64) (domain.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeCampaignRepo) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	var out []domain.Campaign
	for _, c := range f.campaigns {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCampaignRepo) UpdateCampaignStatus(ctx context.Context, id int64, status string) error {
	if f.status == nil {
		f.status = map[int64]string{}
	}
	f.status[id] = status
	return nil
}

func (f *fakeCampaignRepo) InsertEmail(ctx context.Context, e domain.OutreachEmail) (int64, error) {
	e.ID = int64(len(f.emails) + 1)
	f.emails = append(f.emails, e)
	return e.ID, nil
}

func (f *fakeCampaignRepo) ListEmails(ctx context.Context, campaignID int64, beforeStep int) ([]domain.OutreachEmail, error) {
	var out []domain.OutreachEmail
	for _, e := range f.emails {
		if e.CampaignID == nil || *e.CampaignID != campaignID {
			continue
		}
		if beforeStep > 0 && e.Step >= beforeStep {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type fakeWriter struct {
	body   string
	err    error
	prompt domain.EmailPrompt
}

func (f *fakeWriter) WriteEmail(ctx context.Context, p domain.EmailPrompt) (string, error) {
	f.prompt = p
	return f.body, f.err
}

func TestCreateCampaign_Defaults(t *testing.T) {
	repo := &fakeCampaignRepo{}
	svc := app.NewOutreachService(repo, nil)

	id, err := svc.CreateCampaign(context.Background(), domain.Campaign{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	c := repo.campaigns[id]
	if c.Name != "Untitled" || c.Status != domain.CampaignActive {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestUpdateStatus_Validation(t *testing.T) {
	repo := &fakeCampaignRepo{}
	svc := app.NewOutreachService(repo, nil)

	if err := svc.UpdateStatus(context.Background(), 1, "Running"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.UpdateStatus(context.Background(), 1, domain.CampaignPaused); err != nil {
		t.Fatalf("err: %v", err)
	}
	if repo.status[1] != domain.CampaignPaused {
		t.Fatalf("status not persisted: %+v", repo.status)
	}
}

func TestGenerateEmail_TemplateFallback(t *testing.T) {
	repo := &fakeCampaignRepo{}
	svc := app.NewOutreachService(repo, nil)

	email, err := svc.GenerateEmail(context.Background(), app.EmailRequest{Step: 1})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if email.ID == 0 {
		t.Fatalf("email not persisted")
	}
	if email.Subject != "Quick idea for your readers about your industry" {
		t.Fatalf("subject: %q", email.Subject)
	}
	if !strings.HasPrefix(email.Body, "Hi there,") {
		t.Fatalf("body: %q", email.Body)
	}
}

func TestGenerateEmail_WriterFailureKeepsTemplate(t *testing.T) {
	repo := &fakeCampaignRepo{}
	svc := app.NewOutreachService(repo, &fakeWriter{err: errors.New("model down")})

	email, err := svc.GenerateEmail(context.Background(), app.EmailRequest{
		Step:      1,
		Variables: map[string]string{"first_name": "Sam", "topic": "link building"},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.HasPrefix(email.Body, "Hi Sam,") || !strings.Contains(email.Body, "link building") {
		t.Fatalf("body: %q", email.Body)
	}
}

func TestGenerateEmail_CampaignContext(t *testing.T) {
	repo := &fakeCampaignRepo{}
	svc := app.NewOutreachService(repo, nil)
	cid, _ := repo.CreateCampaign(context.Background(), domain.Campaign{
		Name:       "Launch",
		PromoteURL: ptr("https://me.com/guide"),
		EmailTone:  ptr("casual"),
	})

	// seed step 1 so the follow-up sees it
	if _, err := svc.GenerateEmail(context.Background(), app.EmailRequest{Step: 1, CampaignID: &cid}); err != nil {
		t.Fatalf("step1: %v", err)
	}

	w := &fakeWriter{body: "drafted follow-up"}
	svc = app.NewOutreachService(repo, w)
	email, err := svc.GenerateEmail(context.Background(), app.EmailRequest{Step: 2, CampaignID: &cid})
	if err != nil {
		t.Fatalf("step2: %v", err)
	}
	if email.Body != "drafted follow-up" {
		t.Fatalf("body: %q", email.Body)
	}
	if w.prompt.PromoteURL != "https://me.com/guide" || w.prompt.Tone != "casual" {
		t.Fatalf("campaign context missing: %+v", w.prompt)
	}
	if len(w.prompt.Previous) != 1 || w.prompt.Previous[0].Step != 1 {
		t.Fatalf("previous steps: %+v", w.prompt.Previous)
	}
}

func TestGenerateEmail_InvalidStep(t *testing.T) {
	svc := app.NewOutreachService(&fakeCampaignRepo{}, nil)
	if _, err := svc.GenerateEmail(context.Background(), app.EmailRequest{Step: 0}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMetrics_FoldsSequenceSize(t *testing.T) {
	repo := &fakeCampaignRepo{}
	svc := app.NewOutreachService(repo, nil)
	cid, _ := repo.CreateCampaign(context.Background(), domain.Campaign{Name: "M"})
	for step := 1; step <= 2; step++ {
		if _, err := svc.GenerateEmail(context.Background(), app.EmailRequest{Step: step, CampaignID: &cid}); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}

	m, err := svc.Metrics(context.Background(), cid)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(m.Labels) != 4 || len(m.OpenRate) != 4 || len(m.ReplyRate) != 4 {
		t.Fatalf("series shape: %+v", m)
	}
	if m.Prospects != 152 {
		t.Fatalf("prospects: %d", m.Prospects)
	}
}
