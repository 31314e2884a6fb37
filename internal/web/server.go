// Package web serves a quiz session to a single browser over HTTP.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/connorhough/timestable/internal/quiz"
)

// Options tunes a Server.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Tick is the websocket push interval. Defaults to one second.
	Tick time.Duration
}

// Server owns one quiz session. Every request holds mu while it touches the
// session, so HTTP handlers behave as a single actor.
type Server struct {
	mu      sync.Mutex
	session *quiz.Session
	base    quiz.Config

	now  func() time.Time
	tick time.Duration

	router chi.Router
}

// New creates a server for session. base is the configuration start requests
// override.
func New(session *quiz.Session, base quiz.Config, opts Options) *Server {
	s := &Server{
		session: session,
		base:    base,
		now:     opts.Now,
		tick:    opts.Tick,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.tick <= 0 {
		s.tick = time.Second
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/start", s.handleStart)
		r.Post("/answer", s.handleAnswer)
		r.Post("/reset", s.handleReset)
		r.Get("/summary", s.handleSummary)
		r.Get("/ws", s.handleWS)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// poll applies the countdown to a running session. Callers hold mu. An
// expiry records the result, so the caller's cancellation is not passed on.
func (s *Server) poll(ctx context.Context) {
	if s.session.Phase() != quiz.Running {
		return
	}
	if _, err := s.session.Tick(context.WithoutCancel(ctx), s.now()); err != nil {
		slog.Debug("tick failed", "error", err)
	}
}

// state ticks the session and snapshots it.
func (s *Server) state(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poll(ctx)
	return s.snapshot()
}

// snapshot reads the session. Callers hold mu.
func (s *Server) snapshot() State {
	now := s.now()
	cfg := s.session.Config()
	st := State{
		Phase:            s.session.Phase().String(),
		SessionID:        s.session.ID(),
		Player:           cfg.Player,
		Index:            s.session.Index(),
		TotalQuestions:   cfg.TotalQuestions,
		Score:            s.session.Score(),
		Attempts:         s.session.Attempts(),
		TimeLimitSeconds: cfg.TimeLimit.Seconds(),
		RemainingSeconds: s.session.Remaining(now).Seconds(),
		ElapsedSeconds:   s.session.Elapsed(now).Seconds(),
		EndReason:        s.session.EndReason(),
	}
	if q, ok := s.session.Question(); ok {
		st.Question = q.String()
	}
	return st
}
