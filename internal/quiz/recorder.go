package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Record is the flat end-of-session payload handed to a Recorder.
type Record struct {
	SessionID      string        `json:"session_id"`
	Player         string        `json:"player"`
	Attempt        int           `json:"attempt"`
	Timestamp      time.Time     `json:"timestamp"`
	Score          int           `json:"score"`
	TotalAttempts  int           `json:"total_attempts"`
	TotalQuestions int           `json:"total_questions"`
	Accuracy       float64       `json:"accuracy"`
	Elapsed        time.Duration `json:"elapsed_ns"`
	Min            int           `json:"min"`
	Max            int           `json:"max"`
	TimeLimit      time.Duration `json:"time_limit_ns"`
	Mode           string        `json:"mode"`
	EndReason      string        `json:"end_reason"`
	WrongAnswers   []string      `json:"wrong_answers"`
}

// Progress renders attempts against the question count, e.g. "7/10".
func (r Record) Progress() string {
	return fmt.Sprintf("%d/%d", r.TotalAttempts, r.TotalQuestions)
}

// Recorder receives exactly one Record per finished session. Recording is
// best effort: a returned error is reported but never blocks the session.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, rec Record) error

func (f RecorderFunc) Record(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// NopRecorder discards every record.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Record) error { return nil }

// MemoryRecorder keeps records in memory. It is safe for concurrent use.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (m *MemoryRecorder) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far.
func (m *MemoryRecorder) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

func recordWrongAnswers(wrong []WrongAnswer) []string {
	out := make([]string, 0, len(wrong))
	for _, w := range wrong {
		out = append(out, fmt.Sprintf("%s = %d (correct: %d)", w.Question.Compact(), w.Submitted, w.Question.Product))
	}
	return out
}
