// internal/adapters/openai/client.go
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"prometrix/internal/adapters/observability"
	"prometrix/internal/domain"
)

// Client is a minimal chat-completions client used for outreach copy and
// content-idea generation. Callers treat any error as "use the fallback".
type Client struct {
	base  string
	hc    *http.Client
	key   string
	model string
	rl    *rate.Limiter
}

func New(base, key, model string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		base:  strings.TrimSuffix(base, "/"),
		hc:    &http.Client{Timeout: 30 * time.Second},
		key:   key,
		model: model,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// WriteEmail drafts the body of one outreach sequence step.
func (c *Client) WriteEmail(ctx context.Context, p domain.EmailPrompt) (string, error) {
	lines := []string{
		fmt.Sprintf("First name: %s", p.FirstName),
		fmt.Sprintf("Topic: %s", p.Topic),
		fmt.Sprintf("Your topic: %s", p.YourTopic),
	}
	if p.PromoteURL != "" {
		lines = append(lines, fmt.Sprintf("URL to mention (if natural): %s", p.PromoteURL))
	}
	if p.TargetKeywords != "" {
		lines = append(lines, fmt.Sprintf("Target keywords (optional context): %s", p.TargetKeywords))
	}
	lines = append(lines, fmt.Sprintf("Tone: %s", p.Tone))
	if len(p.Previous) > 0 {
		var blocks []string
		for _, e := range p.Previous {
			blocks = append(blocks, fmt.Sprintf("Step %d Subject: %s\nStep %d Body:\n%s\n", e.Step, e.Subject, e.Step, e.Body))
		}
		lines = append(lines, "Previous emails in sequence (for context, do not duplicate):\n"+strings.Join(blocks, "\n\n"))
	}

	prompt := fmt.Sprintf(
		"Write the body of an outreach email for step %d in a 3-step sequence.\n%s\n\n%s\n\nConstraints:\n- Keep it in plain text.\n- No signatures beyond the sender's name.\n- No markdown.\n- Keep line length reasonable.",
		p.Step, p.Guidance, strings.Join(lines, "\n"),
	)

	out, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: "You are a helpful outreach copywriter."},
		{Role: "user", Content: prompt},
	}, 0.7, 300)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// SuggestIdeas asks for three link-worthy content opportunities as JSON.
func (c *Client) SuggestIdeas(ctx context.Context, yourDomain string, competitors []string) ([]domain.ContentIdea, error) {
	comps := competitors
	if len(comps) > 3 {
		comps = comps[:3]
	}
	prompt := fmt.Sprintf(`Analyze the competitive landscape for %s against competitors %s.

Generate 3 specific content opportunities that could attract backlinks from high-authority sites. For each opportunity, provide:
1. Content type/format
2. Specific topic/angle
3. Why it would attract links
4. Estimated number of potential linking sites
5. Average DA of target sites

Format as JSON array with keys: type, topic, description, target_count, avg_da`,
		yourDomain, strings.Join(comps, ", "))

	out, err := c.complete(ctx, []chatMessage{{Role: "user", Content: prompt}}, 0.7, 800)
	if err != nil {
		return nil, err
	}
	raw := jsonArrayRe.FindString(out)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array in completion")
	}
	var ideas []domain.ContentIdea
	if err := json.Unmarshal([]byte(raw), &ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

func (c *Client) complete(ctx context.Context, msgs []chatMessage, temperature float64, maxTokens int) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("openai", "chat_completions", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("openai bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return cr.Choices[0].Message.Content, nil
}

var (
	_ domain.EmailWriter      = (*Client)(nil)
	_ domain.ContentSuggester = (*Client)(nil)
)
