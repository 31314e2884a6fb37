package quiz

import (
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Option configures a Session.
type Option func(*Session)

// WithRecorder sets the sink that receives the end-of-session record.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithRand replaces the random source used for question generation.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithGenerator overrides how questions are drawn.
func WithGenerator(g Generator) Option {
	return func(s *Session) {
		if g != nil {
			s.generate = g
		}
	}
}

// WithLogger sets the logger used for lifecycle events and recorder warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDFunc overrides session ID generation.
func WithIDFunc(f func() string) Option {
	return func(s *Session) {
		if f != nil {
			s.newID = f
		}
	}
}

func defaultID() string {
	return uuid.NewString()
}
