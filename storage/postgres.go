package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"inmo_dedup/models"
)

// Pool is the subset of *pgxpool.Pool the store uses, so tests can pass a
// pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

type PostgresStore struct {
	pool Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "storage: parse postgres config")
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, eris.Wrap(err, "storage: create pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "storage: ping")
	}

	store := NewPostgresStoreWithPool(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreWithPool wraps an existing pool without migrating.
func NewPostgresStoreWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		ref_id TEXT,
		neighborhood TEXT,
		district TEXT NOT NULL,
		province TEXT,
		currency TEXT,
		amount DOUBLE PRECISION,
		price TEXT,
		url TEXT NOT NULL,
		description TEXT,
		property_type TEXT,
		agency TEXT,
		source_web TEXT NOT NULL,
		recent_id TEXT NOT NULL,
		scraped_at TIMESTAMPTZ NOT NULL,
		total_area TEXT NOT NULL,
		total_area_fixed DOUBLE PRECISION,
		floor_area TEXT,
		floor_area_fixed DOUBLE PRECISION,
		bedrooms TEXT,
		bathrooms TEXT,
		garage TEXT,
		has_gas BOOLEAN,
		has_water BOOLEAN,
		has_electricity BOOLEAN
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id UUID PRIMARY KEY,
		site_id TEXT,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		pages_fetched INTEGER DEFAULT 0,
		listings_found INTEGER DEFAULT 0,
		listings_saved INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID,
		timestamp TIMESTAMPTZ,
		level TEXT,
		message TEXT,
		site_id TEXT
	);

	CREATE TABLE IF NOT EXISTS property_matches (
		id BIGSERIAL PRIMARY KEY,
		listing_a TEXT NOT NULL,
		listing_b TEXT NOT NULL,
		property_type TEXT,
		match_reasons JSONB,
		status TEXT DEFAULT 'pending',
		created_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE (listing_a, listing_b)
	);

	CREATE INDEX IF NOT EXISTS idx_listings_block ON listings(property_type, district);
	CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(source_web, scraped_at);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_matches_status ON property_matches(status);
	`
	_, err := s.pool.Exec(ctx, schema)
	return eris.Wrap(err, "storage: migrate postgres")
}

// =============================================================================
// Listings
// =============================================================================

func (s *PostgresStore) SaveListings(ctx context.Context, listings []*models.PropertyRecord) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "storage: begin")
	}
	defer tx.Rollback(ctx)

	query := upsertListingSQL(dollar)
	for _, l := range listings {
		if _, err := tx.Exec(ctx, query, listingArgs(l)...); err != nil {
			return 0, eris.Wrapf(err, "storage: save listing %s", l.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "storage: commit listings")
	}
	return len(listings), nil
}

func (s *PostgresStore) ListListings(ctx context.Context, filter ListingFilter) ([]*models.PropertyRecord, error) {
	query, args := selectListingsSQL(filter, dollar)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list listings")
	}
	defer rows.Close()

	var listings []*models.PropertyRecord
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "storage: scan listing")
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// =============================================================================
// Scrape Runs
// =============================================================================

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.ScrapeRun) error {
	query := `
		INSERT INTO scrape_runs (id, site_id, started_at, status)
		VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, query, run.ID, run.SiteID, run.StartedAt, run.Status)
	return eris.Wrap(err, "storage: create run")
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *models.ScrapeRun) error {
	query := `
		UPDATE scrape_runs SET
			finished_at = $2, status = $3, pages_fetched = $4,
			listings_found = $5, listings_saved = $6, errors_count = $7
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query,
		run.ID, run.FinishedAt, run.Status, run.PagesFetched,
		run.ListingsFound, run.ListingsSaved, run.ErrorsCount,
	)
	return eris.Wrap(err, "storage: finish run")
}

// =============================================================================
// Scrape Logs
// =============================================================================

func (s *PostgresStore) Log(ctx context.Context, entry *models.ScrapeLog) error {
	query := `
		INSERT INTO scrape_logs (run_id, timestamp, level, message, site_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		entry.RunID, entry.Timestamp, entry.Level, entry.Message, entry.SiteID,
	).Scan(&entry.ID)
	return eris.Wrap(err, "storage: write log")
}

// =============================================================================
// Property Matches
// =============================================================================

func (s *PostgresStore) InsertMatches(ctx context.Context, matches []models.PropertyMatch) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO property_matches (listing_a, listing_b, property_type, match_reasons, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (listing_a, listing_b) DO NOTHING`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "storage: begin")
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, m := range matches {
		tag, err := tx.Exec(ctx, query,
			m.ListingA, m.ListingB, string(m.Category), []byte(m.MatchReasons), m.Status, m.CreatedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "storage: insert match %s/%s", m.ListingA, m.ListingB)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "storage: commit matches")
	}
	return inserted, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, status string) ([]models.PropertyMatch, error) {
	query := "SELECT " + matchColumns + " FROM property_matches"
	var args []any
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY listing_a, listing_b"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list matches")
	}
	defer rows.Close()

	var matches []models.PropertyMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "storage: scan match")
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
