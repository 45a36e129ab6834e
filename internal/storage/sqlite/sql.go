package sqlite

const insertBacklinksPrefix = `
INSERT INTO backlinks
  (source_url, source_domain, anchor_text, target_url, domain_authority, nofollow, link_type, risk_level, risk_score, date_found)
VALUES `

const insertBacklinkRow = "(?,?,?,?,?,?,?,?,?,COALESCE(?, CURRENT_TIMESTAMP))"

const updateRiskSQL = `
UPDATE backlinks
SET risk_level = ?, risk_score = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const insertRiskScoreSQL = `
INSERT INTO risk_scores (backlink_id, score, reason, scored_at)
VALUES (?, ?, ?, ?)
`

const getBacklinkSQL = `
SELECT id, source_url, source_domain, anchor_text, target_url,
       domain_authority, nofollow, link_type, risk_level, risk_score, date_found
FROM backlinks
WHERE id = ?
`

const listBacklinksSQL = `
SELECT id, source_url, source_domain, anchor_text, target_url,
       domain_authority, nofollow, link_type, risk_level, risk_score, date_found
FROM backlinks
`

// linking_domain is unique; a re-run of the analysis refreshes the row.
const upsertGapLinkSQL = `
INSERT INTO gap_links
  (linking_domain, domain_authority, your_site, competitor_a, competitor_b, effort, potential_value)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(linking_domain) DO UPDATE SET
  domain_authority = excluded.domain_authority,
  your_site        = excluded.your_site,
  competitor_a     = excluded.competitor_a,
  competitor_b     = excluded.competitor_b,
  effort           = excluded.effort,
  potential_value  = excluded.potential_value
`

const listGapLinksSQL = `
SELECT id, linking_domain, domain_authority, your_site, competitor_a, competitor_b, effort, potential_value
FROM gap_links
ORDER BY domain_authority DESC, linking_domain
`

const insertCampaignSQL = `
INSERT INTO campaigns (name, promote_url, target_keywords, prospect_type, email_tone, status)
VALUES (?, ?, ?, ?, ?, ?)
`

const getCampaignSQL = `
SELECT id, name, promote_url, target_keywords, prospect_type, email_tone, status, created_at
FROM campaigns
WHERE id = ?
`

const listCampaignsSQL = `
SELECT id, name, promote_url, target_keywords, prospect_type, email_tone, status, created_at
FROM campaigns
ORDER BY id
`

const updateCampaignStatusSQL = `
UPDATE campaigns SET status = ? WHERE id = ?
`

const insertEmailSQL = `
INSERT INTO outreach_emails (campaign_id, step, subject, body)
VALUES (?, ?, ?, ?)
`

const listEmailsSQL = `
SELECT id, campaign_id, step, subject, body, created_at
FROM outreach_emails
WHERE campaign_id = ? AND (? <= 0 OR step < ?)
ORDER BY step, id
`

const insertAnalysisSQL = `
INSERT INTO search_analyses
  (site_url, analyzed_at, total_clicks, total_impressions, avg_ctr, avg_position, total_queries, raw)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const getAnalysisSQL = `
SELECT id, site_url, analyzed_at, total_clicks, total_impressions, avg_ctr, avg_position, total_queries, raw
FROM search_analyses
WHERE id = ?
`

const listAnalysesSQL = `
SELECT id, site_url, analyzed_at, total_clicks, total_impressions, avg_ctr, avg_position, total_queries, raw
FROM search_analyses
WHERE site_url = ?
ORDER BY analyzed_at DESC, id DESC
`

const saveTokenSQL = `
INSERT INTO oauth_tokens (user_key, access_token, refresh_token, expiry, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_key) DO UPDATE SET
  access_token  = excluded.access_token,
  refresh_token = CASE WHEN excluded.refresh_token != '' THEN excluded.refresh_token ELSE oauth_tokens.refresh_token END,
  expiry        = excluded.expiry,
  updated_at    = CURRENT_TIMESTAMP
`

const loadTokenSQL = `
SELECT user_key, access_token, refresh_token, expiry
FROM oauth_tokens
WHERE user_key = ?
`
