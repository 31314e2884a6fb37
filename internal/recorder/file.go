// Package recorder implements the sinks that receive end-of-session quiz
// results: local logs, SQL databases, Redis and GitHub Gists.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/connorhough/timestable/internal/quiz"
)

const (
	KindNone     = "none"
	KindFile     = "file"
	KindNDJSON   = "ndjson"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindRedis    = "redis"
	KindGist     = "gist"
)

// FileRecorder appends one human-readable block per session to a text file.
type FileRecorder struct {
	path string
	mu   sync.Mutex
}

// NewFileRecorder creates the parent directory of path if needed.
func NewFileRecorder(path string) (*FileRecorder, error) {
	if path == "" {
		return nil, ErrMisconfigured(KindFile, "a file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, ErrUnavailable(KindFile, err)
	}
	return &FileRecorder{path: path}, nil
}

// Record appends rec to the log.
func (f *FileRecorder) Record(_ context.Context, rec quiz.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := appendFile(f.path, []byte(FormatText(rec))); err != nil {
		return ErrWriteFailed(KindFile, err)
	}
	return nil
}

// NDJSONRecorder appends one JSON object per line.
type NDJSONRecorder struct {
	path string
	mu   sync.Mutex
}

// NewNDJSONRecorder creates the parent directory of path if needed.
func NewNDJSONRecorder(path string) (*NDJSONRecorder, error) {
	if path == "" {
		return nil, ErrMisconfigured(KindNDJSON, "a file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, ErrUnavailable(KindNDJSON, err)
	}
	return &NDJSONRecorder{path: path}, nil
}

// Record appends rec as a single JSON line.
func (n *NDJSONRecorder) Record(_ context.Context, rec quiz.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return ErrWriteFailed(KindNDJSON, err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := appendFile(n.path, append(data, '\n')); err != nil {
		return ErrWriteFailed(KindNDJSON, err)
	}
	return nil
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// PlayerName returns the player or "anonymous".
func PlayerName(rec quiz.Record) string {
	if rec.Player == "" {
		return "anonymous"
	}
	return rec.Player
}

// FormatText renders rec as the block written by FileRecorder.
func FormatText(rec quiz.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] player=%s attempt=%d session=%s\n",
		rec.Timestamp.UTC().Format(time.RFC3339), PlayerName(rec), rec.Attempt, rec.SessionID)
	fmt.Fprintf(&b, "  score: %d  attempts: %s  accuracy: %.2f%%  elapsed: %.2fs\n",
		rec.Score, rec.Progress(), rec.Accuracy, rec.Elapsed.Seconds())
	fmt.Fprintf(&b, "  config: range %d-%d, %s per %s\n", rec.Min, rec.Max, rec.TimeLimit, rec.Mode)
	fmt.Fprintf(&b, "  reason: %s\n", rec.EndReason)
	if len(rec.WrongAnswers) == 0 {
		b.WriteString("  wrong: none\n")
	} else {
		fmt.Fprintf(&b, "  wrong: %s\n", strings.Join(rec.WrongAnswers, "; "))
	}
	return b.String()
}
