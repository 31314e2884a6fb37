package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/connorhough/timestable/internal/quiz"
)

// State is the session snapshot sent to the browser.
type State struct {
	Phase            string  `json:"phase"`
	SessionID        string  `json:"session_id,omitempty"`
	Player           string  `json:"player,omitempty"`
	Question         string  `json:"question,omitempty"`
	Index            int     `json:"index"`
	TotalQuestions   int     `json:"total_questions"`
	Score            int     `json:"score"`
	Attempts         int     `json:"attempts"`
	TimeLimitSeconds float64 `json:"time_limit_seconds"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	EndReason        string  `json:"end_reason,omitempty"`
}

// StartRequest overrides the server's base configuration. Absent fields keep
// the base value. TimeLimit is a Go duration such as "10s".
type StartRequest struct {
	Player    *string `json:"player"`
	Min       *int    `json:"min"`
	Max       *int    `json:"max"`
	Questions *int    `json:"questions"`
	TimeLimit *string `json:"time_limit"`
	Mode      *string `json:"mode"`
}

// AnswerRequest carries the raw text the player typed.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// AnswerResponse reports how a submission was judged.
type AnswerResponse struct {
	Outcome   string `json:"outcome"`
	Question  string `json:"question"`
	Submitted int    `json:"submitted,omitempty"`
	Correct   int    `json:"correct"`
	Finished  bool   `json:"finished"`
	Message   string `json:"message,omitempty"`
	State     State  `json:"state"`
}

// SummaryResponse is the end-of-session report.
type SummaryResponse struct {
	Score          int      `json:"score"`
	TotalAttempts  int      `json:"total_attempts"`
	TotalQuestions int      `json:"total_questions"`
	Accuracy       float64  `json:"accuracy"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	AverageSeconds float64  `json:"average_seconds"`
	WrongAnswers   []string `json:"wrong_answers"`
	EndReason      string   `json:"end_reason"`
	RecordError    string   `json:"record_error,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// statusFor maps session errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrWrongPhase):
		return http.StatusConflict
	case errors.Is(err, quiz.ErrPlayerRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, quiz.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.state(r.Context()))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := req.apply(s.base)
	if err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Start(cfg, s.now()); err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A finishing answer hands off to the recorder, which must outlive the request.
	res, err := s.session.Submit(context.WithoutCancel(r.Context()), req.Answer, s.now())
	if err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}

	resp := AnswerResponse{
		Outcome:   res.Outcome.String(),
		Question:  res.Question.String(),
		Submitted: res.Submitted,
		Correct:   res.Question.Product,
		Finished:  res.Finished,
		State:     s.snapshot(),
	}
	switch res.Outcome {
	case quiz.Rejected:
		resp.Message = "Please enter a whole number."
	case quiz.Expired:
		resp.Message = quiz.ReasonTimeUp
	}
	JSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Reset()
	JSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poll(r.Context())

	sum, err := s.session.Summary()
	if err != nil {
		Error(w, statusFor(err), err.Error())
		return
	}
	resp := SummaryResponse{
		Score:          sum.Score,
		TotalAttempts:  sum.TotalAttempts,
		TotalQuestions: sum.TotalQuestions,
		Accuracy:       sum.Accuracy,
		ElapsedSeconds: sum.Elapsed.Seconds(),
		AverageSeconds: sum.AveragePerQuestion.Seconds(),
		WrongAnswers:   make([]string, 0, len(sum.WrongAnswers)),
		EndReason:      sum.EndReason,
	}
	for _, wa := range sum.WrongAnswers {
		resp.WrongAnswers = append(resp.WrongAnswers, wa.String())
	}
	if err := s.session.RecordErr(); err != nil {
		resp.RecordError = err.Error()
	}
	JSON(w, http.StatusOK, resp)
}

func (req StartRequest) apply(cfg quiz.Config) (quiz.Config, error) {
	if req.Player != nil {
		cfg.Player = *req.Player
	}
	if req.Min != nil {
		cfg.Min = *req.Min
	}
	if req.Max != nil {
		cfg.Max = *req.Max
	}
	if req.Questions != nil {
		cfg.TotalQuestions = *req.Questions
	}
	if req.TimeLimit != nil {
		d, err := time.ParseDuration(*req.TimeLimit)
		if err != nil {
			return cfg, &quiz.ConfigError{Field: "time_limit", Msg: fmt.Sprintf("cannot parse %q as a duration", *req.TimeLimit)}
		}
		cfg.TimeLimit = d
	}
	if req.Mode != nil {
		mode, err := quiz.ParseTimerMode(*req.Mode)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	return cfg, nil
}
