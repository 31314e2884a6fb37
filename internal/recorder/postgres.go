package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connorhough/timestable/internal/quiz"
)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MaxLifetime time.Duration
}

// postgresSchema mirrors sqliteSchema with native Postgres types.
const postgresSchema = `
	CREATE TABLE IF NOT EXISTS results (
		session_id TEXT PRIMARY KEY,
		player TEXT NOT NULL,
		attempt INTEGER NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		score INTEGER NOT NULL,
		total_attempts INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		accuracy DOUBLE PRECISION NOT NULL,
		elapsed_ms BIGINT NOT NULL,
		min_operand INTEGER NOT NULL,
		max_operand INTEGER NOT NULL,
		time_limit_ms BIGINT NOT NULL,
		mode TEXT NOT NULL,
		end_reason TEXT NOT NULL,
		wrong_answers TEXT[] NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_player ON results(player, recorded_at);
	`

// PostgresRecorder stores results in a shared PostgreSQL table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects, pings and ensures the results table exists.
func NewPostgresRecorder(ctx context.Context, cfg PostgresConfig) (*PostgresRecorder, error) {
	if cfg.DSN == "" {
		return nil, ErrMisconfigured(KindPostgres, "recorder.postgres.dsn")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, ErrUnavailable(KindPostgres, fmt.Errorf("failed to parse DSN: %w", err))
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	} else {
		poolConfig.MaxConns = 4
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, ErrUnavailable(KindPostgres, fmt.Errorf("failed to create connection pool: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, ErrUnavailable(KindPostgres, fmt.Errorf("failed to ping database: %w", err))
	}

	r := &PostgresRecorder{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, ErrUnavailable(KindPostgres, err)
	}
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record inserts rec, ignoring a duplicate session ID. Transient failures are
// retried; the insert is idempotent.
func (r *PostgresRecorder) Record(ctx context.Context, rec quiz.Record) error {
	query := `
		INSERT INTO results (
			session_id, player, attempt, recorded_at, score, total_attempts, total_questions,
			accuracy, elapsed_ms, min_operand, max_operand, time_limit_ms, mode, end_reason, wrong_answers
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (session_id) DO NOTHING`

	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, query,
			rec.SessionID, rec.Player, rec.Attempt, rec.Timestamp,
			rec.Score, rec.TotalAttempts, rec.TotalQuestions, rec.Accuracy,
			rec.Elapsed.Milliseconds(), rec.Min, rec.Max, rec.TimeLimit.Milliseconds(),
			rec.Mode, rec.EndReason, nonNil(rec.WrongAnswers),
		)
		return err
	})
	if err != nil {
		return ErrWriteFailed(KindPostgres, err)
	}
	return nil
}

// Ping checks database connectivity
func (r *PostgresRecorder) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}
