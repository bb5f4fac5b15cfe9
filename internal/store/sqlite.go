package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/registry-etl/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	uen                  TEXT UNIQUE,
	company_name         TEXT NOT NULL,
	website              TEXT NOT NULL DEFAULT '',
	hq_country           TEXT NOT NULL DEFAULT '',
	linkedin             TEXT NOT NULL DEFAULT '',
	facebook             TEXT NOT NULL DEFAULT '',
	instagram            TEXT NOT NULL DEFAULT '',
	industry             TEXT NOT NULL DEFAULT '',
	number_of_employees  INTEGER,
	company_size         TEXT NOT NULL DEFAULT '',
	founding_year        INTEGER,
	revenue              TEXT NOT NULL DEFAULT '',
	contact_email        TEXT NOT NULL DEFAULT '',
	contact_phone        TEXT NOT NULL DEFAULT '',
	products_offered     TEXT NOT NULL DEFAULT '',
	services_offered     TEXT NOT NULL DEFAULT '',
	keywords             TEXT NOT NULL DEFAULT '',
	source_of_data       TEXT NOT NULL DEFAULT '',
	extraction_timestamp TEXT NOT NULL DEFAULT '',
	quality_score        REAL NOT NULL DEFAULT 0,
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'idle',
	stats      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(company_name);
CREATE INDEX IF NOT EXISTS idx_companies_industry ON companies(industry);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteUpsert = `
INSERT INTO companies (
	uen, company_name, website, hq_country, linkedin, facebook, instagram,
	industry, number_of_employees, company_size, founding_year, revenue,
	contact_email, contact_phone, products_offered, services_offered,
	keywords, source_of_data, extraction_timestamp, quality_score, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(uen) DO UPDATE SET
	company_name = excluded.company_name,
	website = excluded.website,
	hq_country = excluded.hq_country,
	linkedin = excluded.linkedin,
	facebook = excluded.facebook,
	instagram = excluded.instagram,
	industry = excluded.industry,
	number_of_employees = excluded.number_of_employees,
	company_size = excluded.company_size,
	founding_year = excluded.founding_year,
	revenue = excluded.revenue,
	contact_email = excluded.contact_email,
	contact_phone = excluded.contact_phone,
	products_offered = excluded.products_offered,
	services_offered = excluded.services_offered,
	keywords = excluded.keywords,
	source_of_data = excluded.source_of_data,
	extraction_timestamp = excluded.extraction_timestamp,
	quality_score = excluded.quality_score,
	updated_at = excluded.updated_at`

// UpsertCompanies writes records in a single transaction, keyed on UEN.
// Records without a UEN insert as new rows (NULL keys never conflict).
func (s *SQLiteStore) UpsertCompanies(ctx context.Context, records []model.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	written := 0
	for _, rec := range records {
		var uen any
		if rec.UEN != "" {
			uen = rec.UEN
		}
		_, err := stmt.ExecContext(ctx,
			uen, rec.CompanyName, rec.Website, rec.HQCountry,
			rec.Linkedin, rec.Facebook, rec.Instagram,
			rec.Industry, rec.NumberOfEmployees, rec.CompanySize,
			rec.FoundingYear, rec.Revenue,
			rec.ContactEmail, rec.ContactPhone,
			rec.ProductsOffered, rec.ServicesOffered,
			rec.Keywords, rec.SourceOfData, rec.ExtractionTimestamp,
			rec.CompletenessScore(), now,
		)
		if err != nil {
			return written, eris.Wrapf(err, "sqlite: upsert %s", rec.CompanyName)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, eris.Wrap(err, "sqlite: commit upsert")
	}
	return written, nil
}

func (s *SQLiteStore) CountCompanies(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count companies")
	}
	return n, nil
}

const sqliteCoverage = `
SELECT
	COUNT(*),
	COALESCE(SUM(CASE WHEN website != '' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN linkedin != '' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN contact_email != '' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN industry != '' THEN 1 ELSE 0 END), 0),
	COALESCE(AVG(quality_score), 0)
FROM companies`

func (s *SQLiteStore) Coverage(ctx context.Context) (*CoverageReport, error) {
	var total, website, linkedin, email, industry int
	var avgQuality float64
	err := s.db.QueryRowContext(ctx, sqliteCoverage).
		Scan(&total, &website, &linkedin, &email, &industry, &avgQuality)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: coverage totals")
	}

	rep := &CoverageReport{
		TotalCompanies:  total,
		WebsitePct:      pct(website, total),
		LinkedinPct:     pct(linkedin, total),
		EmailPct:        pct(email, total),
		IndustryPct:     pct(industry, total),
		AvgQualityScore: avgQuality,
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT industry, COUNT(*) AS n FROM companies
		 WHERE industry != '' GROUP BY industry ORDER BY n DESC, industry LIMIT 5`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: coverage industries")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var ic IndustryCount
		if err := rows.Scan(&ic.Industry, &ic.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan industry")
		}
		rep.TopIndustries = append(rep.TopIndustries, ic)
	}
	return rep, eris.Wrap(rows.Err(), "sqlite: coverage industries")
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Status:    model.PhaseIdle,
		CreatedAt: time.Now().UTC(),
	}
	run.UpdatedAt = run.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		run.ID, string(run.Status), run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.Phase) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.Phase, stats model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stats = ?, updated_at = ? WHERE id = ?`,
		string(status), string(statsJSON), time.Now().UTC(), runID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	var status string
	var statsJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, stats, created_at, updated_at FROM runs WHERE id = ?`,
		runID).Scan(&run.ID, &status, &statsJSON, &run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}

	run.Status = model.Phase(status)
	if statsJSON.Valid && statsJSON.String != "" {
		if err := json.Unmarshal([]byte(statsJSON.String), &run.Stats); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal stats")
		}
	}
	return &run, nil
}

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}
