package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/registry-etl/internal/model"
)

// PgxPool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store over a pgx connection pool.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgres connects to Postgres and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                   BIGSERIAL PRIMARY KEY,
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
	quality_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'idle',
	stats      JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(company_name);
CREATE INDEX IF NOT EXISTS idx_companies_industry ON companies(industry);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const postgresUpsert = `
INSERT INTO companies (
	uen, company_name, website, hq_country, linkedin, facebook, instagram,
	industry, number_of_employees, company_size, founding_year, revenue,
	contact_email, contact_phone, products_offered, services_offered,
	keywords, source_of_data, extraction_timestamp, quality_score, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
ON CONFLICT (uen) DO UPDATE SET
	company_name = EXCLUDED.company_name,
	website = EXCLUDED.website,
	hq_country = EXCLUDED.hq_country,
	linkedin = EXCLUDED.linkedin,
	facebook = EXCLUDED.facebook,
	instagram = EXCLUDED.instagram,
	industry = EXCLUDED.industry,
	number_of_employees = EXCLUDED.number_of_employees,
	company_size = EXCLUDED.company_size,
	founding_year = EXCLUDED.founding_year,
	revenue = EXCLUDED.revenue,
	contact_email = EXCLUDED.contact_email,
	contact_phone = EXCLUDED.contact_phone,
	products_offered = EXCLUDED.products_offered,
	services_offered = EXCLUDED.services_offered,
	keywords = EXCLUDED.keywords,
	source_of_data = EXCLUDED.source_of_data,
	extraction_timestamp = EXCLUDED.extraction_timestamp,
	quality_score = EXCLUDED.quality_score,
	updated_at = EXCLUDED.updated_at`

// UpsertCompanies writes records in one transaction, keyed on UEN. Records
// without a UEN insert as new rows.
func (s *PostgresStore) UpsertCompanies(ctx context.Context, records []model.Record) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin upsert")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	written := 0
	for _, rec := range records {
		var uen any
		if rec.UEN != "" {
			uen = rec.UEN
		}
		_, err := tx.Exec(ctx, postgresUpsert,
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
			return written, eris.Wrapf(err, "postgres: upsert %s", rec.CompanyName)
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return written, eris.Wrap(err, "postgres: commit upsert")
	}
	return written, nil
}

func (s *PostgresStore) CountCompanies(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: count companies")
	}
	return n, nil
}

const postgresCoverage = `
SELECT
	COUNT(*),
	COALESCE(SUM(CASE WHEN website != '' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN linkedin != '' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN contact_email != '' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN industry != '' THEN 1 ELSE 0 END), 0),
	COALESCE(AVG(quality_score), 0)
FROM companies`

func (s *PostgresStore) Coverage(ctx context.Context) (*CoverageReport, error) {
	var total, website, linkedin, email, industry int
	var avgQuality float64
	err := s.pool.QueryRow(ctx, postgresCoverage).
		Scan(&total, &website, &linkedin, &email, &industry, &avgQuality)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: coverage totals")
	}

	rep := &CoverageReport{
		TotalCompanies:  total,
		WebsitePct:      pct(website, total),
		LinkedinPct:     pct(linkedin, total),
		EmailPct:        pct(email, total),
		IndustryPct:     pct(industry, total),
		AvgQualityScore: avgQuality,
	}

	rows, err := s.pool.Query(ctx,
		`SELECT industry, COUNT(*) AS n FROM companies
		 WHERE industry != '' GROUP BY industry ORDER BY n DESC, industry LIMIT 5`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: coverage industries")
	}
	defer rows.Close()

	for rows.Next() {
		var ic IndustryCount
		if err := rows.Scan(&ic.Industry, &ic.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan industry")
		}
		rep.TopIndustries = append(rep.TopIndustries, ic)
	}
	return rep, eris.Wrap(rows.Err(), "postgres: coverage industries")
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Status:    model.PhaseIdle,
		CreatedAt: time.Now().UTC(),
	}
	run.UpdatedAt = run.CreatedAt

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		run.ID, string(run.Status), run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.Phase) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.Phase, stats model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stats = $2, updated_at = $3 WHERE id = $4`,
		string(status), statsJSON, time.Now().UTC(), runID)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	var status string
	var statsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, stats, created_at, updated_at FROM runs WHERE id = $1`,
		runID).Scan(&run.ID, &status, &statsJSON, &run.CreatedAt, &run.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Errorf("postgres: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	run.Status = model.Phase(status)
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &run.Stats); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal stats")
		}
	}
	return &run, nil
}
