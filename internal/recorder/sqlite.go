package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/connorhough/timestable/internal/quiz"
	_ "modernc.org/sqlite"
)

// Stats aggregates recorded sessions for one player.
type Stats struct {
	Sessions     int
	BestScore    int
	AvgAccuracy  float64
	TotalCorrect int
	TotalAnswers int
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS results (
		session_id TEXT PRIMARY KEY,
		player TEXT NOT NULL,
		attempt INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL,
		score INTEGER NOT NULL,
		total_attempts INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		accuracy REAL NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		min_operand INTEGER NOT NULL,
		max_operand INTEGER NOT NULL,
		time_limit_ms INTEGER NOT NULL,
		mode TEXT NOT NULL,
		end_reason TEXT NOT NULL,
		wrong_answers TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_player ON results(player, recorded_at);
	`

// SQLiteRecorder stores results in a local SQLite database and serves the
// history command.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens (or creates) the database at dbPath.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dbPath == "" {
		return nil, ErrMisconfigured(KindSQLite, "a database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, ErrUnavailable(KindSQLite, fmt.Errorf("create database directory: %w", err))
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, ErrUnavailable(KindSQLite, fmt.Errorf("open database: %w", err))
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, ErrUnavailable(KindSQLite, fmt.Errorf("ping database: %w", err))
	}

	r := &SQLiteRecorder{db: db}
	if err := r.initSchema(); err != nil {
		_ = db.Close()
		return nil, ErrUnavailable(KindSQLite, fmt.Errorf("initialize schema: %w", err))
	}
	return r, nil
}

func (r *SQLiteRecorder) initSchema() error {
	if _, err := r.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record inserts rec. A repeated session ID replaces the earlier row.
func (r *SQLiteRecorder) Record(ctx context.Context, rec quiz.Record) error {
	wrong, err := json.Marshal(nonNil(rec.WrongAnswers))
	if err != nil {
		return ErrWriteFailed(KindSQLite, err)
	}

	query := `
	INSERT OR REPLACE INTO results (
		session_id, player, attempt, recorded_at, score, total_attempts, total_questions,
		accuracy, elapsed_ms, min_operand, max_operand, time_limit_ms, mode, end_reason, wrong_answers
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		rec.SessionID, rec.Player, rec.Attempt, rec.Timestamp.UnixMilli(),
		rec.Score, rec.TotalAttempts, rec.TotalQuestions, rec.Accuracy,
		rec.Elapsed.Milliseconds(), rec.Min, rec.Max, rec.TimeLimit.Milliseconds(),
		rec.Mode, rec.EndReason, string(wrong),
	)
	if err != nil {
		return ErrWriteFailed(KindSQLite, fmt.Errorf("insert result: %w", err))
	}
	return nil
}

// History returns the most recent results, newest first. An empty player
// returns results for everyone.
func (r *SQLiteRecorder) History(ctx context.Context, player string, limit int) ([]quiz.Record, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT session_id, player, attempt, recorded_at, score, total_attempts, total_questions,
		       accuracy, elapsed_ms, min_operand, max_operand, time_limit_ms, mode, end_reason, wrong_answers
		FROM results
		WHERE (? = '' OR player = ?)
		ORDER BY recorded_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, player, player, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []quiz.Record
	for rows.Next() {
		var (
			rec                          quiz.Record
			recordedAt, elapsed, limitMS int64
			wrong                        string
		)
		if err := rows.Scan(
			&rec.SessionID, &rec.Player, &rec.Attempt, &recordedAt, &rec.Score,
			&rec.TotalAttempts, &rec.TotalQuestions, &rec.Accuracy, &elapsed,
			&rec.Min, &rec.Max, &limitMS, &rec.Mode, &rec.EndReason, &wrong,
		); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		rec.Timestamp = time.UnixMilli(recordedAt).UTC()
		rec.Elapsed = time.Duration(elapsed) * time.Millisecond
		rec.TimeLimit = time.Duration(limitMS) * time.Millisecond
		if err := json.Unmarshal([]byte(wrong), &rec.WrongAnswers); err != nil {
			return nil, fmt.Errorf("decode wrong answers: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Stats aggregates every recorded session of player.
func (r *SQLiteRecorder) Stats(ctx context.Context, player string) (Stats, error) {
	query := `
		SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(accuracy), 0),
		       COALESCE(SUM(score), 0), COALESCE(SUM(total_attempts), 0)
		FROM results
		WHERE (? = '' OR player = ?)`

	var s Stats
	err := r.db.QueryRowContext(ctx, query, player, player).Scan(
		&s.Sessions, &s.BestScore, &s.AvgAccuracy, &s.TotalCorrect, &s.TotalAnswers,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return s, nil
}

// Ping verifies database connectivity.
func (r *SQLiteRecorder) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
