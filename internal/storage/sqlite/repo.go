package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"prometrix/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	if *p {
		return 1
	}
	return 0
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Open opens (or creates) the SQLite database at path and applies pragmas.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// single writer; serialize from the pool side
	db.SetMaxOpenConns(1)
	for _, p := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// ---- backlinks ----

func (r *Repo) InsertBacklinks(ctx context.Context, bs []domain.Backlink) (int64, error) {
	if len(bs) == 0 {
		return 0, nil
	}
	values := make([]string, 0, len(bs))
	args := make([]any, 0, len(bs)*10)
	for _, b := range bs {
		values = append(values, insertBacklinkRow)
		args = append(args,
			b.SourceURL,
			valStr(b.SourceDomain),
			valStr(b.AnchorText),
			valStr(b.TargetURL),
			valInt(b.DomainAuthority),
			valBool(b.Nofollow),
			valStr(b.LinkType),
			b.RiskLevel,
			b.RiskScore,
			valTime(b.DateFound),
		)
	}
	res, err := r.db.ExecContext(ctx, insertBacklinksPrefix+strings.Join(values, ","), args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *Repo) UpdateRisk(ctx context.Context, id int64, level string, score float64) error {
	res, err := r.db.ExecContext(ctx, updateRiskSQL, level, score, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) AppendRiskScores(ctx context.Context, entries []domain.RiskScoreEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, e := range entries {
		at := e.ScoredAt
		if at.IsZero() {
			at = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, insertRiskScoreSQL, e.BacklinkID, e.Score, e.Reason, at.UTC()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) GetBacklink(ctx context.Context, id int64) (domain.Backlink, error) {
	row := r.db.QueryRowContext(ctx, getBacklinkSQL, id)
	b, err := scanBacklink(row)
	if err == sql.ErrNoRows {
		return domain.Backlink{}, domain.ErrNotFound
	}
	return b, err
}

func (r *Repo) ListBacklinks(ctx context.Context, q domain.BacklinksQuery) ([]domain.Backlink, error) {
	var (
		conds []string
		args  []any
	)
	if q.RiskLevel != nil {
		conds = append(conds, "risk_level = ?")
		args = append(args, *q.RiskLevel)
	}
	if q.MinDA != nil {
		conds = append(conds, "domain_authority >= ?")
		args = append(args, *q.MinDA)
	}
	if q.MaxDA != nil {
		conds = append(conds, "domain_authority <= ?")
		args = append(args, *q.MaxDA)
	}
	if q.LinkType != nil {
		conds = append(conds, "link_type = ?")
		args = append(args, *q.LinkType)
	}
	sqlStr := listBacklinksSQL
	if len(conds) > 0 {
		sqlStr += "WHERE " + strings.Join(conds, " AND ") + "\n"
	}
	sqlStr += "ORDER BY id LIMIT ? OFFSET ?"
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Backlink
	for rows.Next() {
		b, err := scanBacklink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) AllBacklinks(ctx context.Context) ([]domain.Backlink, error) {
	rows, err := r.db.QueryContext(ctx, listBacklinksSQL+"ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Backlink
	for rows.Next() {
		b, err := scanBacklink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanBacklink(row rowScanner) (domain.Backlink, error) {
	var (
		b         domain.Backlink
		srcDom    sql.NullString
		anchor    sql.NullString
		target    sql.NullString
		da        sql.NullInt64
		nofollow  sql.NullBool
		linkType  sql.NullString
		dateFound sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.SourceURL, &srcDom, &anchor, &target, &da, &nofollow, &linkType, &b.RiskLevel, &b.RiskScore, &dateFound); err != nil {
		return domain.Backlink{}, err
	}
	if srcDom.Valid {
		s := srcDom.String
		b.SourceDomain = &s
	}
	if anchor.Valid {
		s := anchor.String
		b.AnchorText = &s
	}
	if target.Valid {
		s := target.String
		b.TargetURL = &s
	}
	if da.Valid {
		n := int(da.Int64)
		b.DomainAuthority = &n
	}
	if nofollow.Valid {
		v := nofollow.Bool
		b.Nofollow = &v
	}
	if linkType.Valid {
		s := linkType.String
		b.LinkType = &s
	}
	if dateFound.Valid {
		t := dateFound.Time
		b.DateFound = &t
	}
	return b, nil
}

// ---- gap links ----

func (r *Repo) UpsertGapLinks(ctx context.Context, gs []domain.GapLink) error {
	if len(gs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, g := range gs {
		if _, err := tx.ExecContext(ctx, upsertGapLinkSQL,
			g.LinkingDomain, g.DomainAuthority, boolInt(g.YourSite), boolInt(g.CompetitorA),
			boolInt(g.CompetitorB), g.Effort, g.PotentialValue); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) ListGapLinks(ctx context.Context) ([]domain.GapLink, error) {
	rows, err := r.db.QueryContext(ctx, listGapLinksSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GapLink
	for rows.Next() {
		var (
			g          domain.GapLink
			ys, ca, cb int
		)
		if err := rows.Scan(&g.ID, &g.LinkingDomain, &g.DomainAuthority, &ys, &ca, &cb, &g.Effort, &g.PotentialValue); err != nil {
			return nil, err
		}
		g.YourSite, g.CompetitorA, g.CompetitorB = ys != 0, ca != 0, cb != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ---- campaigns & outreach ----

func (r *Repo) CreateCampaign(ctx context.Context, c domain.Campaign) (int64, error) {
	status := c.Status
	if status == "" {
		status = domain.CampaignActive
	}
	res, err := r.db.ExecContext(ctx, insertCampaignSQL,
		c.Name, valStr(c.PromoteURL), valStr(c.TargetKeywords), valStr(c.ProspectType), valStr(c.EmailTone), status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) GetCampaign(ctx context.Context, id int64) (domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, getCampaignSQL, id))
	if err == sql.ErrNoRows {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return c, err
}

func (r *Repo) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, listCampaignsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateCampaignStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, updateCampaignStatusSQL, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCampaign(row rowScanner) (domain.Campaign, error) {
	var (
		c                           domain.Campaign
		promote, kw, prospect, tone sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &promote, &kw, &prospect, &tone, &c.Status, &c.CreatedAt); err != nil {
		return domain.Campaign{}, err
	}
	if promote.Valid {
		s := promote.String
		c.PromoteURL = &s
	}
	if kw.Valid {
		s := kw.String
		c.TargetKeywords = &s
	}
	if prospect.Valid {
		s := prospect.String
		c.ProspectType = &s
	}
	if tone.Valid {
		s := tone.String
		c.EmailTone = &s
	}
	return c, nil
}

func (r *Repo) InsertEmail(ctx context.Context, e domain.OutreachEmail) (int64, error) {
	var cid any
	if e.CampaignID != nil {
		cid = *e.CampaignID
	}
	res, err := r.db.ExecContext(ctx, insertEmailSQL, cid, e.Step, e.Subject, e.Body)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) ListEmails(ctx context.Context, campaignID int64, beforeStep int) ([]domain.OutreachEmail, error) {
	rows, err := r.db.QueryContext(ctx, listEmailsSQL, campaignID, beforeStep, beforeStep)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OutreachEmail
	for rows.Next() {
		var (
			e   domain.OutreachEmail
			cid sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &cid, &e.Step, &e.Subject, &e.Body, &e.CreatedAt); err != nil {
			return nil, err
		}
		if cid.Valid {
			v := cid.Int64
			e.CampaignID = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---- search analyses ----

func (r *Repo) InsertAnalysis(ctx context.Context, a domain.SearchAnalysis) (int64, error) {
	at := a.AnalyzedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, insertAnalysisSQL,
		a.SiteURL, at.UTC(), a.TotalClicks, a.TotalImpressions, a.AvgCTR, a.AvgPosition, a.TotalQueries, string(a.Raw))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) GetAnalysis(ctx context.Context, id int64) (domain.SearchAnalysis, error) {
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, getAnalysisSQL, id))
	if err == sql.ErrNoRows {
		return domain.SearchAnalysis{}, domain.ErrNotFound
	}
	return a, err
}

func (r *Repo) ListAnalyses(ctx context.Context, siteURL string) ([]domain.SearchAnalysis, error) {
	rows, err := r.db.QueryContext(ctx, listAnalysesSQL, siteURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SearchAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAnalysis(row rowScanner) (domain.SearchAnalysis, error) {
	var (
		a   domain.SearchAnalysis
		raw sql.NullString
	)
	if err := row.Scan(&a.ID, &a.SiteURL, &a.AnalyzedAt, &a.TotalClicks, &a.TotalImpressions, &a.AvgCTR, &a.AvgPosition, &a.TotalQueries, &raw); err != nil {
		return domain.SearchAnalysis{}, err
	}
	if raw.Valid {
		a.Raw = []byte(raw.String)
	}
	return a, nil
}

// ---- oauth tokens ----

func (r *Repo) SaveToken(ctx context.Context, t domain.OAuthToken) error {
	var expiry any
	if !t.Expiry.IsZero() {
		expiry = t.Expiry.UTC()
	}
	_, err := r.db.ExecContext(ctx, saveTokenSQL, t.UserKey, t.AccessToken, t.RefreshToken, expiry)
	return err
}

func (r *Repo) LoadToken(ctx context.Context, userKey string) (domain.OAuthToken, error) {
	var (
		t      domain.OAuthToken
		expiry sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, loadTokenSQL, userKey).Scan(&t.UserKey, &t.AccessToken, &t.RefreshToken, &expiry)
	if err == sql.ErrNoRows {
		return domain.OAuthToken{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.OAuthToken{}, err
	}
	if expiry.Valid {
		t.Expiry = expiry.Time
	}
	return t, nil
}
