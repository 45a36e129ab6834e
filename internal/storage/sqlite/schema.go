package sqlite

import (
	"context"
	"database/sql"
	"time"

	"prometrix/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS backlinks (
  id               INTEGER PRIMARY KEY AUTOINCREMENT,
  source_url       TEXT NOT NULL,
  source_domain    TEXT,
  anchor_text      TEXT,
  target_url       TEXT,
  domain_authority INTEGER,
  nofollow         INTEGER,
  link_type        TEXT,
  risk_level       TEXT NOT NULL DEFAULT 'low',
  risk_score       REAL NOT NULL DEFAULT 0,
  date_found       TIMESTAMP,
  created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_backlinks_risk   ON backlinks(risk_level);
CREATE INDEX IF NOT EXISTS idx_backlinks_domain ON backlinks(source_domain);

CREATE TABLE IF NOT EXISTS risk_scores (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  backlink_id INTEGER NOT NULL REFERENCES backlinks(id),
  score       REAL NOT NULL,
  reason      TEXT NOT NULL DEFAULT '',
  scored_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_risk_scores_backlink ON risk_scores(backlink_id);

CREATE TABLE IF NOT EXISTS gap_links (
  id               INTEGER PRIMARY KEY AUTOINCREMENT,
  linking_domain   TEXT NOT NULL UNIQUE,
  domain_authority INTEGER NOT NULL DEFAULT 0,
  your_site        INTEGER NOT NULL DEFAULT 0,
  competitor_a     INTEGER NOT NULL DEFAULT 0,
  competitor_b     INTEGER NOT NULL DEFAULT 0,
  effort           TEXT NOT NULL DEFAULT 'Medium',
  potential_value  INTEGER NOT NULL DEFAULT 50,
  created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS campaigns (
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  name            TEXT NOT NULL,
  promote_url     TEXT,
  target_keywords TEXT,
  prospect_type   TEXT,
  email_tone      TEXT,
  status          TEXT NOT NULL DEFAULT 'Active',
  created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS outreach_emails (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  campaign_id INTEGER REFERENCES campaigns(id),
  step        INTEGER NOT NULL,
  subject     TEXT NOT NULL,
  body        TEXT NOT NULL,
  created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_outreach_campaign ON outreach_emails(campaign_id, step);

CREATE TABLE IF NOT EXISTS search_analyses (
  id                INTEGER PRIMARY KEY AUTOINCREMENT,
  site_url          TEXT NOT NULL,
  analyzed_at       TIMESTAMP NOT NULL,
  total_clicks      INTEGER NOT NULL DEFAULT 0,
  total_impressions INTEGER NOT NULL DEFAULT 0,
  avg_ctr           REAL NOT NULL DEFAULT 0,
  avg_position      REAL NOT NULL DEFAULT 0,
  total_queries     INTEGER NOT NULL DEFAULT 0,
  raw               TEXT
);
CREATE INDEX IF NOT EXISTS idx_analyses_site ON search_analyses(site_url, analyzed_at);

CREATE TABLE IF NOT EXISTS oauth_tokens (
  user_key      TEXT PRIMARY KEY,
  access_token  TEXT NOT NULL DEFAULT '',
  refresh_token TEXT NOT NULL DEFAULT '',
  expiry        TIMESTAMP,
  updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Migrate creates the schema. Safe to run on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}

// SeedDemo inserts a small demo dataset when the backlinks table is empty.
func SeedDemo(ctx context.Context, r *Repo) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM backlinks`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	now := time.Now().UTC()
	demo := []domain.Backlink{
		{
			SourceURL: "https://spammysite.com/bad", SourceDomain: ptr("spammysite.com"),
			AnchorText: ptr("cheap loans"), DomainAuthority: pint(8), Nofollow: pbool(true),
			LinkType: ptr(domain.LinkTypeFooter), RiskLevel: domain.RiskHigh, RiskScore: 0.9,
			DateFound: &now,
		},
		{
			SourceURL: "https://qualityblog.com/good", SourceDomain: ptr("qualityblog.com"),
			AnchorText: ptr("financial planning"), DomainAuthority: pint(67), Nofollow: pbool(false),
			LinkType: ptr(domain.LinkTypeEditorial), RiskLevel: domain.RiskLow, RiskScore: 0.1,
			DateFound: &now,
		},
		{
			SourceURL: "https://mediumblog.net/ok", SourceDomain: ptr("mediumblog.net"),
			AnchorText: ptr("click here"), DomainAuthority: pint(34), Nofollow: pbool(false),
			LinkType: ptr("contextual"), RiskLevel: domain.RiskMedium, RiskScore: 0.5,
			DateFound: &now,
		},
	}
	_, err := r.InsertBacklinks(ctx, demo)
	return err
}

func ptr(s string) *string { return &s }
func pint(i int) *int      { return &i }
func pbool(b bool) *bool   { return &b }
