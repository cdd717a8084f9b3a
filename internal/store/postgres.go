package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/leadscout/api/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const selectJobColumns = `
	id, query_text, location, result_limit, submitter_id, state, progress_percent, current_step,
	created_at, updated_at, started_at, completed_at, result_count, results, error_detail, results_url`

// PostgresStore keeps job records in the scrape_jobs table
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// ConnectPostgres opens a pool and verifies the connection
func ConnectPostgres(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded goose migrations
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// NewPostgresStore creates a store on an already migrated pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

func (s *PostgresStore) Create(ctx context.Context, id string, req model.JobRequest) (*model.JobRecord, error) {
	rec := newRecord(id, req, s.now())

	_, err := s.pool.Exec(ctx, `
		INSERT INTO scrape_jobs (id, query_text, location, result_limit, submitter_id, state,
			progress_percent, current_step, created_at, updated_at, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rec.ID, req.QueryText, req.Location, req.ResultLimit, req.SubmitterID, string(rec.State),
		rec.ProgressPercent, rec.CurrentStep, rec.CreatedAt, rec.UpdatedAt, rec.StartedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, errDuplicate(id)
		}
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}
	return rec, nil
}

// Update locks the row for the duration of the read-modify-write.
func (s *PostgresStore) Update(ctx context.Context, id string, upd model.JobUpdate) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	rec, err := scanJob(tx.QueryRow(ctx, `SELECT`+selectJobColumns+` FROM scrape_jobs WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return errNotFound(id)
	}
	if err != nil {
		return err
	}

	upd.Apply(rec, s.now())

	var results []byte
	if rec.Results != nil {
		if results, err = json.Marshal(rec.Results); err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE scrape_jobs SET state=$2, progress_percent=$3, current_step=$4, updated_at=$5,
			started_at=$6, completed_at=$7, result_count=$8, results=$9, error_detail=$10, results_url=$11
		WHERE id=$1
	`, id, string(rec.State), rec.ProgressPercent, rec.CurrentStep, rec.UpdatedAt,
		rec.StartedAt, rec.CompletedAt, rec.ResultCount, results, rec.ErrorDetail, rec.ResultsURL)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.JobRecord, error) {
	rec, err := scanJob(s.pool.QueryRow(ctx, `SELECT`+selectJobColumns+` FROM scrape_jobs WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNotFound(id)
	}
	return rec, err
}

func scanJob(row pgx.Row) (*model.JobRecord, error) {
	var (
		rec     model.JobRecord
		state   string
		results []byte
	)
	err := row.Scan(
		&rec.ID, &rec.Request.QueryText, &rec.Request.Location, &rec.Request.ResultLimit, &rec.Request.SubmitterID,
		&state, &rec.ProgressPercent, &rec.CurrentStep,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.StartedAt, &rec.CompletedAt,
		&rec.ResultCount, &results, &rec.ErrorDetail, &rec.ResultsURL,
	)
	if err != nil {
		return nil, err
	}
	rec.State = model.JobState(state)
	if results != nil {
		if err := json.Unmarshal(results, &rec.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal results: %w", err)
		}
	}
	return &rec, nil
}
