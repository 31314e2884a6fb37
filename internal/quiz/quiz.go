// Package quiz implements the multiplication drill session: question
// generation, the countdown, answer validation and scoring.
//
// A Session never reads the wall clock. Every operation that depends on time
// takes the current instant as an argument, so presentation layers own the
// polling cadence and tests can drive a session with a simulated clock.
package quiz

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

// Phase is the lifecycle state of a Session.
type Phase int

const (
	NotStarted Phase = iota
	Running
	Finished
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// TimerMode selects what the time limit applies to.
type TimerMode int

const (
	// PerQuestion restarts the countdown for every question.
	PerQuestion TimerMode = iota
	// PerSession runs one countdown for the whole quiz.
	PerSession
)

func (m TimerMode) String() string {
	if m == PerSession {
		return "session"
	}
	return "question"
}

// ParseTimerMode accepts "question" or "session" (case-insensitive).
func ParseTimerMode(s string) (TimerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "question", "per-question":
		return PerQuestion, nil
	case "session", "per-session":
		return PerSession, nil
	}
	return PerQuestion, &ConfigError{Field: "mode", Msg: fmt.Sprintf("unknown timer mode %q (want question or session)", s)}
}

// Config is fixed for the lifetime of a running session.
type Config struct {
	Player         string
	Min            int
	Max            int
	TotalQuestions int
	TimeLimit      time.Duration
	Mode           TimerMode

	// RequirePlayer makes Start refuse to begin without a player name.
	RequirePlayer bool
}

// DefaultConfig returns the classic drill: 1..12 tables, 100 questions, 10s each.
func DefaultConfig() Config {
	return Config{
		Min:            1,
		Max:            12,
		TotalQuestions: 100,
		TimeLimit:      10 * time.Second,
		Mode:           PerQuestion,
	}
}

// Validate checks that all limits are positive and the operand range is non-empty.
func (c Config) Validate() error {
	if c.TotalQuestions < 1 {
		return &ConfigError{Field: "questions", Msg: "must be at least 1"}
	}
	if c.Min > c.Max {
		return &ConfigError{Field: "range", Msg: fmt.Sprintf("min %d is greater than max %d", c.Min, c.Max)}
	}
	if c.Min < -MaxOperand || c.Max > MaxOperand {
		return &ConfigError{Field: "range", Msg: fmt.Sprintf("operands must be within ±%d", MaxOperand)}
	}
	if c.TimeLimit <= 0 {
		return &ConfigError{Field: "time limit", Msg: "must be positive"}
	}
	if c.Mode != PerQuestion && c.Mode != PerSession {
		return &ConfigError{Field: "mode", Msg: fmt.Sprintf("unknown timer mode %d", int(c.Mode))}
	}
	return nil
}

// MaxOperand is the largest operand magnitude whose products still fit in an int.
var MaxOperand = int(math.Sqrt(float64(math.MaxInt)))

// Question is one multiplication prompt with its precomputed answer.
type Question struct {
	A       int
	B       int
	Product int
}

// NewQuestion builds the question a × b.
func NewQuestion(a, b int) Question {
	return Question{A: a, B: b, Product: a * b}
}

func (q Question) String() string {
	return fmt.Sprintf("%d × %d", q.A, q.B)
}

// Compact renders the question without spaces, as used in wrong-answer lists.
func (q Question) Compact() string {
	return fmt.Sprintf("%d×%d", q.A, q.B)
}

// Generator draws the next question from the inclusive range [min, max].
type Generator func(r *rand.Rand, min, max int) Question

// UniformGenerator draws both operands independently and uniformly.
func UniformGenerator(r *rand.Rand, min, max int) Question {
	span := max - min + 1
	return NewQuestion(min+r.IntN(span), min+r.IntN(span))
}

// WrongAnswer records a validated submission that did not match the product.
type WrongAnswer struct {
	Question  Question
	Submitted int
}

func (w WrongAnswer) String() string {
	return fmt.Sprintf("%s = %d (Correct: %d)", w.Question.Compact(), w.Submitted, w.Question.Product)
}

// Outcome classifies a Submit call.
type Outcome int

const (
	// Rejected means the input did not parse as an integer; nothing changed.
	Rejected Outcome = iota
	Correct
	Wrong
	// Expired means the time limit had already run out; the input was discarded.
	Expired
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Correct:
		return "correct"
	case Wrong:
		return "wrong"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes what a Submit call did.
type Result struct {
	Outcome   Outcome
	Question  Question
	Submitted int
	// Finished is true when this call moved the session to Finished.
	Finished bool
}

// Summary is the end-of-session report.
type Summary struct {
	Score              int
	TotalAttempts      int
	TotalQuestions     int
	Accuracy           float64
	Elapsed            time.Duration
	AveragePerQuestion time.Duration
	WrongAnswers       []WrongAnswer
	EndReason          string
}
