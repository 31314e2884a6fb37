package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/connorhough/timestable/internal/quiz"
)

// runRoot executes the root command against a throwaway config file and
// returns what it printed to stdout.
func runRoot(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := NewRootCmd()
	root.SetArgs(append([]string{"--config", configPath}, args...))
	root.SetIn(strings.NewReader(stdin))
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestCommandStructure(t *testing.T) {
	root := NewRootCmd()

	tests := []struct {
		path  []string
		flags []string
	}{
		{[]string{"play"}, []string{"player", "require-player", "min", "max", "questions", "time-limit", "mode", "recorder"}},
		{[]string{"serve"}, []string{"addr", "questions", "mode"}},
		{[]string{"history"}, []string{"player", "limit", "leaderboard"}},
		{[]string{"config", "get"}, nil},
		{[]string{"config", "set"}, nil},
		{[]string{"config", "show"}, nil},
		{[]string{"config", "init"}, nil},
	}

	for _, tt := range tests {
		name := strings.Join(tt.path, " ")
		t.Run(name, func(t *testing.T) {
			cmd, _, err := root.Find(tt.path)
			if err != nil {
				t.Fatalf("could not find %q command: %v", name, err)
			}
			if cmd.Name() != tt.path[len(tt.path)-1] {
				t.Errorf("found %q, want %q", cmd.Name(), name)
			}
			for _, f := range tt.flags {
				if cmd.Flags().Lookup(f) == nil {
					t.Errorf("expected %q to have %q flag", name, f)
				}
			}
		})
	}

	if root.PersistentFlags().Lookup("config") == nil || root.PersistentFlags().Lookup("log-level") == nil {
		t.Error("expected persistent config and log-level flags")
	}
}

func TestPlayThenHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, `
recorder:
  kind: sqlite
  sqlite:
    path: `+filepath.Join(dir, "results.db")+`
`)

	out, err := runRoot(t, cfg, "9\nn\n", "play", "--player", "ada", "--questions", "1", "--min", "3", "--max", "3")
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	for _, want := range []string{"3 × 3 = ?", "✓ Correct", "Score: 1", "Accuracy: 100.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("play output missing %q:\n%s", want, out)
		}
	}

	out, err = runRoot(t, cfg, "", "history", "--player", "ada")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "ada") || !strings.Contains(out, "1/1") || !strings.Contains(out, "1 sessions") {
		t.Errorf("unexpected history output:\n%s", out)
	}
}

func TestHistoryEmpty(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, "recorder:\n  sqlite:\n    path: "+filepath.Join(dir, "results.db")+"\n")

	out, err := runRoot(t, cfg, "", "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No results recorded yet.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestPlayRejectsBadFlags(t *testing.T) {
	cfg := writeConfig(t, "recorder:\n  kind: none\n")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"play", "--mode", "weekly"}},
		{"empty range", []string{"play", "--min", "9", "--max", "2"}},
		{"no questions", []string{"play", "--questions", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRoot(t, cfg, "", tt.args...)
			if !errors.Is(err, quiz.ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfigCommands(t *testing.T) {
	cfg := writeConfig(t, "quiz:\n  questions: 5\n")

	out, err := runRoot(t, cfg, "", "config", "get", "quiz.questions")
	if err != nil || strings.TrimSpace(out) != "5" {
		t.Errorf("config get = %q, %v", out, err)
	}

	t.Setenv("TIMESTABLE_QUIZ_MODE", "session")
	out, err = runRoot(t, cfg, "", "config", "get", "quiz.mode")
	if err != nil || strings.TrimSpace(out) != "session" {
		t.Errorf("config get from env = %q, %v", out, err)
	}

	out, err = runRoot(t, cfg, "", "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "questions: 5") || !strings.Contains(out, "time_limit: 10s") {
		t.Errorf("unexpected config show output:\n%s", out)
	}

	if _, err := runRoot(t, cfg, "", "config", "set", "player", "bob"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	out, err = runRoot(t, cfg, "", "config", "get", "player")
	if err != nil || strings.TrimSpace(out) != "bob" {
		t.Errorf("config get after set = %q, %v", out, err)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := runRoot(t, path, "", "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "Created") {
		t.Errorf("unexpected output: %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	out, err = runRoot(t, path, "", "config", "init")
	if err != nil || !strings.Contains(out, "already exists") {
		t.Errorf("second init = %q, %v", out, err)
	}
}
