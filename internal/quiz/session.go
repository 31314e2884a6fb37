package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// ReasonTimeUp is the end reason when the countdown runs out.
const ReasonTimeUp = "Time's up"

// recordTimeout bounds how long the finish transition waits on the recorder.
const recordTimeout = 10 * time.Second

// state is everything a Reset discards.
type state struct {
	phase         Phase
	cfg           Config
	id            string
	question      Question
	index         int
	score         int
	attempts      int
	wrong         []WrongAnswer
	sessionStart  time.Time
	questionStart time.Time
	endedAt       time.Time
	endReason     string
	recordErr     error
}

// Session is a single-player quiz controller. It is driven by one caller and
// is not safe for concurrent use.
type Session struct {
	rng      *rand.Rand
	generate Generator
	recorder Recorder
	logger   *slog.Logger
	newID    func() string

	// attempt numbers sessions started on this instance; Reset keeps it.
	attempt int

	st state
}

// New creates a Session in the NotStarted phase.
func New(opts ...Option) *Session {
	s := &Session{
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		generate: UniformGenerator,
		recorder: NopRecorder{},
		logger:   slog.Default(),
		newID:    defaultID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a new session at now.
func (s *Session) Start(cfg Config, now time.Time) error {
	if s.st.phase != NotStarted {
		return errPhase("start", s.st.phase)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Player = strings.TrimSpace(cfg.Player)
	if cfg.RequirePlayer && cfg.Player == "" {
		return ErrPlayerRequired
	}

	// Draw before mutating so a failing generator leaves the session untouched.
	first := s.generate(s.rng, cfg.Min, cfg.Max)

	s.attempt++
	s.st = state{
		phase:         Running,
		cfg:           cfg,
		id:            s.newID(),
		question:      first,
		index:         1,
		sessionStart:  now,
		questionStart: now,
	}

	s.logger.Debug("quiz started",
		"session_id", s.st.id,
		"player", cfg.Player,
		"questions", cfg.TotalQuestions,
		"time_limit", cfg.TimeLimit,
		"mode", cfg.Mode.String())
	return nil
}

// Tick checks the countdown at now. It returns the remaining time, or ends
// the session with ReasonTimeUp and returns 0 once the limit is reached.
// Calls that do not expire the session have no side effects.
func (s *Session) Tick(ctx context.Context, now time.Time) (time.Duration, error) {
	if s.st.phase != Running {
		return 0, errPhase("tick", s.st.phase)
	}
	remaining := s.remaining(now)
	if remaining <= 0 {
		s.finish(ctx, now, ReasonTimeUp)
		return 0, nil
	}
	return remaining, nil
}

// Submit validates raw as the answer to the current question at now.
//
// Expiry is checked first: a submission arriving when no time remains ends
// the session with ReasonTimeUp and is discarded. Input that does not parse
// as an integer is rejected without counting as an attempt.
func (s *Session) Submit(ctx context.Context, raw string, now time.Time) (Result, error) {
	if s.st.phase != Running {
		return Result{}, errPhase("submit", s.st.phase)
	}

	q := s.st.question
	if s.remaining(now) <= 0 {
		s.finish(ctx, now, ReasonTimeUp)
		return Result{Outcome: Expired, Question: q, Finished: true}, nil
	}

	answer, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Result{Outcome: Rejected, Question: q}, nil
	}

	res := Result{Question: q, Submitted: answer}
	s.st.attempts++
	if answer == q.Product {
		s.st.score++
		res.Outcome = Correct
	} else {
		s.st.wrong = append(s.st.wrong, WrongAnswer{Question: q, Submitted: answer})
		res.Outcome = Wrong
	}

	if s.st.index >= s.st.cfg.TotalQuestions {
		s.finish(ctx, now, fmt.Sprintf("Completed %d questions", s.st.cfg.TotalQuestions))
		res.Finished = true
		return res, nil
	}

	s.st.index++
	s.st.question = s.generate(s.rng, s.st.cfg.Min, s.st.cfg.Max)
	s.st.questionStart = now
	return res, nil
}

// Reset discards all session state and returns to NotStarted. It is valid in
// any phase.
func (s *Session) Reset() {
	s.st = state{}
}

// Summary reports the finished session. It has no side effects.
func (s *Session) Summary() (Summary, error) {
	if s.st.phase != Finished {
		return Summary{}, errPhase("summary", s.st.phase)
	}
	elapsed := s.st.endedAt.Sub(s.st.sessionStart)
	sum := Summary{
		Score:          s.st.score,
		TotalAttempts:  s.st.attempts,
		TotalQuestions: s.st.cfg.TotalQuestions,
		Elapsed:        elapsed,
		WrongAnswers:   append([]WrongAnswer(nil), s.st.wrong...),
		EndReason:      s.st.endReason,
	}
	if s.st.attempts > 0 {
		sum.Accuracy = float64(s.st.score) / float64(s.st.attempts) * 100
		sum.AveragePerQuestion = elapsed / time.Duration(s.st.attempts)
	}
	return sum, nil
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase { return s.st.phase }

// Config returns the configuration of the current session.
func (s *Session) Config() Config { return s.st.cfg }

// ID returns the identifier of the current session, empty before Start.
func (s *Session) ID() string { return s.st.id }

// Attempt returns the sequence number of the most recently started session.
func (s *Session) Attempt() int { return s.attempt }

// Question returns the current question. ok is false unless Running.
func (s *Session) Question() (q Question, ok bool) {
	if s.st.phase != Running {
		return Question{}, false
	}
	return s.st.question, true
}

// Index returns the 1-based number of the current question.
func (s *Session) Index() int { return s.st.index }

// Score returns the number of correct answers so far.
func (s *Session) Score() int { return s.st.score }

// Attempts returns the number of validated submissions so far.
func (s *Session) Attempts() int { return s.st.attempts }

// EndReason returns why the session finished, empty otherwise.
func (s *Session) EndReason() string { return s.st.endReason }

// RecordErr returns the error the recorder reported at finish, if any.
func (s *Session) RecordErr() error { return s.st.recordErr }

// Remaining returns the countdown value at now, clamped at zero. Unlike Tick
// it never changes state.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.st.phase != Running {
		return 0
	}
	return max(s.remaining(now), 0)
}

// Elapsed returns the time since the session started, frozen once finished.
func (s *Session) Elapsed(now time.Time) time.Duration {
	switch s.st.phase {
	case Running:
		return now.Sub(s.st.sessionStart)
	case Finished:
		return s.st.endedAt.Sub(s.st.sessionStart)
	}
	return 0
}

func (s *Session) remaining(now time.Time) time.Duration {
	start := s.st.questionStart
	if s.st.cfg.Mode == PerSession {
		start = s.st.sessionStart
	}
	return s.st.cfg.TimeLimit - now.Sub(start)
}

// finish moves to Finished and hands the record to the recorder. Recorder
// failures are logged and kept; they never undo the transition.
func (s *Session) finish(ctx context.Context, now time.Time, reason string) {
	s.st.phase = Finished
	s.st.endedAt = now
	s.st.endReason = reason

	sum, _ := s.Summary()
	rec := Record{
		SessionID:      s.st.id,
		Player:         s.st.cfg.Player,
		Attempt:        s.attempt,
		Timestamp:      now,
		Score:          sum.Score,
		TotalAttempts:  sum.TotalAttempts,
		TotalQuestions: sum.TotalQuestions,
		Accuracy:       sum.Accuracy,
		Elapsed:        sum.Elapsed,
		Min:            s.st.cfg.Min,
		Max:            s.st.cfg.Max,
		TimeLimit:      s.st.cfg.TimeLimit,
		Mode:           s.st.cfg.Mode.String(),
		EndReason:      reason,
		WrongAnswers:   recordWrongAnswers(sum.WrongAnswers),
	}

	s.logger.Info("quiz finished",
		"session_id", s.st.id,
		"reason", reason,
		"score", sum.Score,
		"attempts", sum.TotalAttempts)

	rctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()
	if err := s.recorder.Record(rctx, rec); err != nil {
		s.st.recordErr = err
		s.logger.Warn("failed to record quiz result", "session_id", s.st.id, "error", err)
	}
}
