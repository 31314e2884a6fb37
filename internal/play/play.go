// Package play runs a quiz session in a terminal. On a TTY the countdown
// above the prompt is repainted every tick; on pipes output stays
// line-by-line.
package play

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/connorhough/timestable/internal/quiz"
)

// DefaultTick is how often the countdown is polled while waiting for input.
const DefaultTick = 100 * time.Millisecond

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Options tunes Run.
type Options struct {
	Tick  time.Duration
	Clock Clock
}

type game struct {
	streams     *IOStreams
	session     *quiz.Session
	clock       Clock
	tick        time.Duration
	interactive bool
	lines       <-chan string
}

// Run plays rounds of the quiz on streams until the player declines to play
// again, input ends, or ctx is cancelled. The session must be NotStarted.
func Run(ctx context.Context, streams *IOStreams, session *quiz.Session, cfg quiz.Config, opts Options) error {
	g := &game{
		streams:     streams,
		session:     session,
		clock:       opts.Clock,
		tick:        opts.Tick,
		interactive: streams.IsInteractive(),
	}
	if g.clock == nil {
		g.clock = SystemClock
	}
	if g.tick <= 0 {
		g.tick = DefaultTick
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g.lines = readLines(ctx, streams.In)

	for {
		if err := g.start(ctx, &cfg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		finished, err := g.loop(ctx)
		if err != nil || !finished {
			return err
		}
		g.renderSummary()

		again, err := g.ask(ctx, "Play again? [y/N]: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if a := strings.ToLower(again); a != "y" && a != "yes" {
			return nil
		}
		session.Reset()
		fmt.Fprintln(streams.Out)
	}
}

// start prompts for a player name when one is required and starts the session.
func (g *game) start(ctx context.Context, cfg *quiz.Config) error {
	for {
		if cfg.RequirePlayer && strings.TrimSpace(cfg.Player) == "" {
			name, err := g.ask(ctx, "Player name: ")
			if err != nil {
				return err
			}
			cfg.Player = name
		}

		err := g.session.Start(*cfg, g.clock.Now())
		if errors.Is(err, quiz.ErrPlayerRequired) {
			fmt.Fprintln(g.streams.Out, "A player name is required.")
			continue
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(g.streams.Out, "Times Table Practice")
		fmt.Fprintf(g.streams.Out, "%d questions, %d to %d, %s per %s\n",
			cfg.TotalQuestions, cfg.Min, cfg.Max, cfg.TimeLimit, cfg.Mode)
		g.renderQuestion()
		return nil
	}
}

// loop feeds input and ticks into the running session. It reports whether
// the session finished; false means the player walked away.
func (g *game) loop(ctx context.Context) (bool, error) {
	ticker := g.clock.NewTicker(g.tick)
	defer ticker.Stop()

	for g.session.Phase() == quiz.Running {
		select {
		case <-ctx.Done():
			return false, ctx.Err()

		case line, ok := <-g.lines:
			if !ok {
				fmt.Fprintln(g.streams.Out, "\nQuiz abandoned.")
				return false, nil
			}
			res, err := g.session.Submit(ctx, line, g.clock.Now())
			if err != nil {
				return false, err
			}
			g.renderResult(res)

		case <-ticker.C():
			now := g.clock.Now()
			remaining, err := g.session.Tick(ctx, now)
			if err != nil {
				return false, err
			}
			if g.interactive && g.session.Phase() == quiz.Running {
				g.streams.RedrawAbove(g.status(remaining, now))
			}
		}
	}
	return true, nil
}

func (g *game) renderQuestion() {
	q, ok := g.session.Question()
	if !ok {
		return
	}
	fmt.Fprintln(g.streams.Out, rule)
	fmt.Fprintf(g.streams.Out, "Question %d / %d\n", g.session.Index(), g.session.Config().TotalQuestions)
	g.renderPrompt(q)
}

// renderPrompt prints the countdown line with the answer prompt below it.
// The countdown must stay directly above the prompt for RedrawAbove.
func (g *game) renderPrompt(q quiz.Question) {
	now := g.clock.Now()
	fmt.Fprintln(g.streams.Out, g.status(g.session.Remaining(now), now))
	fmt.Fprintf(g.streams.Out, "%s = ? ", q)
}

func (g *game) status(remaining time.Duration, now time.Time) string {
	return fmt.Sprintf("Time Remaining: %.1fs   Total Time: %.1fs",
		remaining.Seconds(), g.session.Elapsed(now).Seconds())
}

func (g *game) renderResult(res quiz.Result) {
	out := g.streams.Out
	switch res.Outcome {
	case quiz.Rejected:
		fmt.Fprintln(out, "Please enter a whole number.")
		g.renderPrompt(res.Question)
		return
	case quiz.Correct:
		fmt.Fprintln(out, "✓ Correct")
	case quiz.Wrong:
		fmt.Fprintf(out, "✗ %s = %d\n", res.Question, res.Question.Product)
	case quiz.Expired:
		fmt.Fprintln(out, "Too late, time ran out before that answer.")
	}
	if !res.Finished {
		g.renderQuestion()
	}
}

func (g *game) renderSummary() {
	sum, err := g.session.Summary()
	if err != nil {
		slog.Debug("summary unavailable", "error", err)
		return
	}
	out := g.streams.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Game Over")
	fmt.Fprintln(out, sum.EndReason)
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Score: %d\n", sum.Score)
	fmt.Fprintf(out, "Questions Attempted: %d\n", sum.TotalAttempts)
	fmt.Fprintf(out, "Accuracy: %.2f%%\n", sum.Accuracy)
	fmt.Fprintf(out, "Total Time: %.2fs\n", sum.Elapsed.Seconds())
	fmt.Fprintf(out, "Average Time per Question: %.2fs\n", sum.AveragePerQuestion.Seconds())
	if len(sum.WrongAnswers) > 0 {
		fmt.Fprintln(out, "Wrong Answers:")
		for _, w := range sum.WrongAnswers {
			fmt.Fprintf(out, "  %s\n", w)
		}
	}
	if err := g.session.RecordErr(); err != nil {
		fmt.Fprintf(g.streams.ErrOut, "warning: result was not recorded: %v\n", err)
	}
}

// ask prints prompt and waits for one line of input.
func (g *game) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(g.streams.Out, prompt)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-g.lines:
		if !ok {
			fmt.Fprintln(g.streams.Out)
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

// readLines delivers input lines until EOF or ctx is done. A read blocked on
// a terminal outlives ctx; the goroutine exits with the process.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Debug("input closed", "error", err)
		}
	}()
	return lines
}
