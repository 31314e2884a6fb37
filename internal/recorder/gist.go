package recorder

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"

	"github.com/connorhough/timestable/internal/quiz"
	"github.com/connorhough/timestable/internal/version"
)

// DefaultGistFilename is the sheet file used when none is configured.
const DefaultGistFilename = "timestable_results.csv"

var gistHeader = []string{
	"timestamp", "player", "attempt", "score", "attempts", "accuracy",
	"elapsed_s", "range", "time_limit", "mode", "end_reason", "wrong_answers",
}

// GistRecorder appends one CSV row per session to a file inside a GitHub
// Gist, which serves as a lightweight shared results sheet.
type GistRecorder struct {
	client   *github.Client
	gistID   string
	filename string
	backoff  Backoff
	mu       sync.Mutex
}

// NewGitHubClient returns an authenticated client when token is set, and an
// anonymous one otherwise.
func NewGitHubClient(ctx context.Context, token string) *github.Client {
	var client *github.Client
	if token == "" {
		client = github.NewClient(nil)
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	}
	client.UserAgent = version.UserAgent()
	return client
}

// NewGistRecorder writes to filename in the gist gistID.
func NewGistRecorder(client *github.Client, gistID, filename string) (*GistRecorder, error) {
	if gistID == "" {
		return nil, ErrMisconfigured(KindGist, "recorder.gist.id")
	}
	if filename == "" {
		filename = DefaultGistFilename
	}
	return &GistRecorder{
		client:   client,
		gistID:   gistID,
		filename: filename,
		backoff:  DefaultBackoff,
	}, nil
}

// Record fetches the sheet, appends rec and writes it back, retrying with
// backoff on failure.
func (g *GistRecorder) Record(ctx context.Context, rec quiz.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.backoff.Retry(ctx, func(ctx context.Context) error {
		return g.appendRow(ctx, rec)
	})
	if err != nil {
		return ErrWriteFailed(KindGist, err)
	}
	return nil
}

func (g *GistRecorder) appendRow(ctx context.Context, rec quiz.Record) error {
	gist, _, err := g.client.Gists.Get(ctx, g.gistID)
	if err != nil {
		return fmt.Errorf("failed to get gist %s: %w", g.gistID, err)
	}

	existing := ""
	if file, ok := gist.Files[github.GistFilename(g.filename)]; ok {
		existing = file.GetContent()
	}

	content, err := appendCSVRow(existing, GistRow(rec))
	if err != nil {
		return err
	}

	update := &github.Gist{
		Files: map[github.GistFilename]github.GistFile{
			github.GistFilename(g.filename): {
				Filename: github.String(g.filename),
				Content:  github.String(content),
			},
		},
	}
	if _, _, err := g.client.Gists.Edit(ctx, g.gistID, update); err != nil {
		return fmt.Errorf("failed to update gist %s: %w", g.gistID, err)
	}
	return nil
}

// GistRow renders rec as a sheet row in gistHeader order.
func GistRow(rec quiz.Record) []string {
	return []string{
		rec.Timestamp.UTC().Format(time.RFC3339),
		PlayerName(rec),
		strconv.Itoa(rec.Attempt),
		strconv.Itoa(rec.Score),
		rec.Progress(),
		strconv.FormatFloat(rec.Accuracy, 'f', 2, 64),
		strconv.FormatFloat(rec.Elapsed.Seconds(), 'f', 2, 64),
		fmt.Sprintf("%d-%d", rec.Min, rec.Max),
		rec.TimeLimit.String(),
		rec.Mode,
		rec.EndReason,
		strings.Join(rec.WrongAnswers, "; "),
	}
}

func appendCSVRow(existing string, row []string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(existing)
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		buf.WriteByte('\n')
	}

	w := csv.NewWriter(&buf)
	if strings.TrimSpace(existing) == "" {
		if err := w.Write(gistHeader); err != nil {
			return "", err
		}
	}
	if err := w.Write(row); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to encode row: %w", err)
	}
	return buf.String(), nil
}
