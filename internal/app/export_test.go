package app_test

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"prometrix/internal/app"
	"prometrix/internal/domain"
)

func TestWriteBacklinksCSV(t *testing.T) {
	found := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	links := []domain.Backlink{
		{
			SourceURL: "https://spam.com/x", SourceDomain: ptr("spam.com"),
			AnchorText: ptr("cheap pills"), TargetURL: ptr("https://me.com"),
			DomainAuthority: pint(5), Nofollow: ptr(true), LinkType: ptr(domain.LinkTypeFooter),
			RiskLevel: domain.RiskHigh, DateFound: &found,
		},
		{SourceURL: "https://bare.com/y", RiskLevel: domain.RiskLow},
	}

	var sb strings.Builder
	if err := app.WriteBacklinksCSV(&sb, links); err != nil {
		t.Fatalf("err: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: %d", len(rows))
	}
	if rows[0][0] != "backlink_source" || rows[0][8] != "risk_level" {
		t.Fatalf("header: %v", rows[0])
	}
	if rows[1][4] != "5" || rows[1][5] != "true" || rows[1][6] != "2024-03-01" {
		t.Fatalf("full row: %v", rows[1])
	}
	if rows[2][1] != "" || rows[2][8] != domain.RiskLow {
		t.Fatalf("minimal row: %v", rows[2])
	}
}

func TestWriteAnalysisCSV(t *testing.T) {
	raw, _ := json.Marshal(domain.SearchReport{
		TopQueries: []domain.SearchRow{
			{Keys: []string{"best seo tools"}, Clicks: 10, Impressions: 100, CTR: 0.1234, Position: 3.4},
		},
	})

	var sb strings.Builder
	if err := app.WriteAnalysisCSV(&sb, domain.SearchAnalysis{Raw: raw}); err != nil {
		t.Fatalf("err: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: %d", len(rows))
	}
	want := []string{"best seo tools", "10", "100", "12.34%", "3.4"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Fatalf("col %d: %q, want %q", i, rows[1][i], v)
		}
	}
}

func TestWriteAnalysisCSV_BadPayload(t *testing.T) {
	var sb strings.Builder
	if err := app.WriteAnalysisCSV(&sb, domain.SearchAnalysis{Raw: []byte("{broken")}); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}
