package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongPhase is matched by every PhaseError.
	ErrWrongPhase = errors.New("operation not valid in current phase")

	// ErrInvalidConfig is matched by every ConfigError.
	ErrInvalidConfig = errors.New("invalid quiz configuration")

	// ErrPlayerRequired is returned by Start when a player name is mandatory but missing.
	ErrPlayerRequired = errors.New("player name is required")
)

// PhaseError reports an operation invoked from a phase that does not allow it.
type PhaseError struct {
	Op    string
	Phase Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: not allowed while %s", e.Op, e.Phase)
}

func (e *PhaseError) Is(target error) bool {
	return target == ErrWrongPhase
}

func errPhase(op string, p Phase) error {
	return &PhaseError{Op: op, Phase: p}
}

// ConfigError reports a rejected Config field.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
