package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"prometrix/internal/adapters/openai"
	"prometrix/internal/domain"
)

func chatServer(t *testing.T, content string, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header: %q", got)
		}
		if gotBody != nil {
			_ = json.NewDecoder(r.Body).Decode(gotBody)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := openai.New("http://x", "", "m", 1); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestWriteEmail(t *testing.T) {
	var body map[string]any
	ts := chatServer(t, "  Hi Sam, quick note.  ", &body)
	defer ts.Close()

	cl, err := openai.New(ts.URL, "test-key", "gpt-3.5-turbo", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	out, err := cl.WriteEmail(context.Background(), domain.EmailPrompt{
		Step: 1, Guidance: "keep it short", FirstName: "Sam",
		Topic: "link building", YourTopic: "seo", YourName: "Jo", Tone: "casual",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != "Hi Sam, quick note." {
		t.Fatalf("body: %q", out)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages: %v", body["messages"])
	}
	user, _ := msgs[1].(map[string]any)
	content, _ := user["content"].(string)
	if !strings.Contains(content, "step 1") || !strings.Contains(content, "Sam") {
		t.Fatalf("prompt missing context: %q", content)
	}
}

func TestSuggestIdeas_ParsesEmbeddedArray(t *testing.T) {
	reply := "Here are three ideas:\n" +
		`[{"type":"Guide","topic":"SEO Basics","description":"d","target_count":12,"avg_da":55}]` +
		"\nGood luck!"
	ts := chatServer(t, reply, nil)
	defer ts.Close()

	cl, _ := openai.New(ts.URL, "test-key", "", 100)
	ideas, err := cl.SuggestIdeas(context.Background(), "example.com", []string{"a.com", "b.com"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(ideas) != 1 || ideas[0].Type != "Guide" || ideas[0].AvgDA != 55 {
		t.Fatalf("ideas: %+v", ideas)
	}
}

func TestSuggestIdeas_NoArrayInReply(t *testing.T) {
	ts := chatServer(t, "sorry, no ideas today", nil)
	defer ts.Close()

	cl, _ := openai.New(ts.URL, "test-key", "", 100)
	if _, err := cl.SuggestIdeas(context.Background(), "example.com", nil); err == nil {
		t.Fatalf("expected error when reply has no JSON array")
	}
}

func TestWriteEmail_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	cl, _ := openai.New(ts.URL, "test-key", "", 100)
	if _, err := cl.WriteEmail(context.Background(), domain.EmailPrompt{Step: 1}); err == nil {
		t.Fatalf("expected error for 429")
	}
}
