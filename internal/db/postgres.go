package db

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xhyuo/pancancer-clustering/pkg/models"
)

// schemaSQL is compiled into the binary at build time.
// This ensures schema init works inside the Docker runtime image which
// does not copy internal/db/schema.sql into the final stage.
//
//go:embed schema.sql
var schemaSQL string

// RunStore persists EM run records to PostgreSQL.
type RunStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx
func Connect(connStr string) (*RunStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	log.Println("[DB] Connected to PostgreSQL run store")
	return &RunStore{pool: pool}, nil
}

// Close gracefully closes the connection pool
func (s *RunStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema executes the embedded schema.sql DDL statements.
func (s *RunStore) InitSchema() error {
	_, err := s.pool.Exec(context.Background(), schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %w", err)
	}

	log.Println("[DB] Run-store schema initialized")
	return nil
}

// SaveRun persists one run summary together with its iteration trajectory in
// a single transaction.
func (s *RunStore) SaveRun(ctx context.Context, sum models.RunSummary, trajectory []models.IterationStats) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertRunSQL := `
		INSERT INTO em_runs
			(run_id, seed, converged, outer_iters, log_lik, correct_samples, accuracy, ari, vi, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		ON CONFLICT (run_id) DO UPDATE SET
			converged = EXCLUDED.converged,
			outer_iters = EXCLUDED.outer_iters,
			log_lik = EXCLUDED.log_lik,
			correct_samples = EXCLUDED.correct_samples,
			accuracy = EXCLUDED.accuracy,
			ari = EXCLUDED.ari,
			vi = EXCLUDED.vi,
			error = EXCLUDED.error;
	`
	_, err = tx.Exec(ctx, insertRunSQL,
		sum.RunID, int64(sum.Seed), sum.Converged, sum.OuterIters,
		sum.LogLik, sum.Correct, sum.Accuracy, sum.ARI, sum.VI, sum.Error)
	if err != nil {
		return fmt.Errorf("failed to insert em_runs row: %w", err)
	}

	insertIterSQL := `
		INSERT INTO em_run_trajectory (run_id, outer_iter, correct_samples, log_lik, delta)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id, outer_iter) DO NOTHING;
	`
	for _, it := range trajectory {
		if _, err := tx.Exec(ctx, insertIterSQL, sum.RunID, it.Iter, it.Correct, it.LogLik, it.Delta); err != nil {
			return fmt.Errorf("failed to insert trajectory row %d: %w", it.Iter, err)
		}
	}

	return tx.Commit(ctx)
}

// ListRuns returns run summaries ordered by terminal log-likelihood,
// best first.
func (s *RunStore) ListRuns(ctx context.Context, page, limit int) ([]models.RunSummary, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var totalCount int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM em_runs`).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	dataSQL := `
		SELECT run_id, seed, converged, outer_iters, log_lik, correct_samples,
		       accuracy, COALESCE(ari, 0), COALESCE(vi, 0), COALESCE(error, ''), created_at
		FROM em_runs
		ORDER BY log_lik DESC, seed ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.pool.Query(ctx, dataSQL, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	summaries := make([]models.RunSummary, 0)
	for rows.Next() {
		var sum models.RunSummary
		var seed int64
		if err := rows.Scan(&sum.RunID, &seed, &sum.Converged, &sum.OuterIters,
			&sum.LogLik, &sum.Correct, &sum.Accuracy, &sum.ARI, &sum.VI,
			&sum.Error, &sum.CreatedAt); err != nil {
			return nil, 0, err
		}
		sum.Seed = uint64(seed)
		summaries = append(summaries, sum)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return summaries, totalCount, nil
}

// GetRun loads one run summary and its full trajectory.
func (s *RunStore) GetRun(ctx context.Context, runID string) (models.RunSummary, []models.IterationStats, error) {
	var sum models.RunSummary
	var seed int64
	err := s.pool.QueryRow(ctx, `
		SELECT run_id, seed, converged, outer_iters, log_lik, correct_samples,
		       accuracy, COALESCE(ari, 0), COALESCE(vi, 0), COALESCE(error, ''), created_at
		FROM em_runs WHERE run_id = $1
	`, runID).Scan(&sum.RunID, &seed, &sum.Converged, &sum.OuterIters,
		&sum.LogLik, &sum.Correct, &sum.Accuracy, &sum.ARI, &sum.VI,
		&sum.Error, &sum.CreatedAt)
	if err != nil {
		return models.RunSummary{}, nil, err
	}
	sum.Seed = uint64(seed)

	rows, err := s.pool.Query(ctx, `
		SELECT outer_iter, correct_samples, log_lik, delta
		FROM em_run_trajectory WHERE run_id = $1 ORDER BY outer_iter
	`, runID)
	if err != nil {
		return models.RunSummary{}, nil, err
	}
	defer rows.Close()

	trajectory := make([]models.IterationStats, 0)
	for rows.Next() {
		var it models.IterationStats
		if err := rows.Scan(&it.Iter, &it.Correct, &it.LogLik, &it.Delta); err != nil {
			return models.RunSummary{}, nil, err
		}
		trajectory = append(trajectory, it)
	}
	if rows.Err() != nil {
		return models.RunSummary{}, nil, rows.Err()
	}
	return sum, trajectory, nil
}
