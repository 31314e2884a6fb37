package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/connorhough/timestable/internal/quiz"
)

func loadTestConfig(t *testing.T, content string) {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
}

func TestResolveQuizConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    quiz.Config
		wantErr bool
	}{
		{
			name:    "defaults",
			content: "log_level: info\n",
			want:    quiz.DefaultConfig(),
		},
		{
			name: "file overrides",
			content: `
player: ada
require_player: true
quiz:
  min: 2
  max: 9
  questions: 20
  time_limit: 90s
  mode: session
`,
			want: quiz.Config{
				Player:         "ada",
				RequirePlayer:  true,
				Min:            2,
				Max:            9,
				TotalQuestions: 20,
				TimeLimit:      90 * time.Second,
				Mode:           quiz.PerSession,
			},
		},
		{
			name:    "bare seconds",
			content: "quiz:\n  time_limit: 7.5\n",
			want: func() quiz.Config {
				c := quiz.DefaultConfig()
				c.TimeLimit = 7500 * time.Millisecond
				return c
			}(),
		},
		{
			name:    "bad mode",
			content: "quiz:\n  mode: forever\n",
			wantErr: true,
		},
		{
			name:    "bad limit",
			content: "quiz:\n  time_limit: soon\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loadTestConfig(t, tt.content)
			got, err := ResolveQuizConfig()
			if tt.wantErr {
				if !errors.Is(err, quiz.ErrInvalidConfig) {
					t.Errorf("err = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("play", pflag.ContinueOnError)
		fs.String("player", "", "")
		fs.Bool("require-player", false, "")
		fs.Int("min", 0, "")
		fs.Int("max", 0, "")
		fs.Int("questions", 0, "")
		fs.Duration("time-limit", 0, "")
		fs.String("mode", "", "")
		return fs
	}

	tests := []struct {
		name string
		args []string
		want func(c *quiz.Config)
	}{
		{
			name: "no flags keep config",
			args: nil,
			want: func(c *quiz.Config) {},
		},
		{
			name: "zero min is honoured when set",
			args: []string{"--min", "0", "--max", "5"},
			want: func(c *quiz.Config) { c.Min, c.Max = 0, 5 },
		},
		{
			name: "timing flags",
			args: []string{"--time-limit", "1m", "--mode", "session", "--questions", "30"},
			want: func(c *quiz.Config) {
				c.TimeLimit = time.Minute
				c.Mode = quiz.PerSession
				c.TotalQuestions = 30
			},
		},
		{
			name: "player flags",
			args: []string{"--player", "bob", "--require-player"},
			want: func(c *quiz.Config) { c.Player, c.RequirePlayer = "bob", true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFlags()
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			got := quiz.DefaultConfig()
			got.Player = "ada"
			want := got
			tt.want(&want)

			if err := ApplyFlags(&got, fs); err != nil {
				t.Fatalf("ApplyFlags failed: %v", err)
			}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}

	fs := newFlags()
	_ = fs.Parse([]string{"--mode", "weekly"})
	cfg := quiz.DefaultConfig()
	if err := ApplyFlags(&cfg, fs); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestResolveRecorderConfig(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")
	loadTestConfig(t, `
recorder:
  kind: file,gist
  file:
    path: /tmp/ts/results.log
  gist:
    id: abc123
`)

	got := ResolveRecorderConfig()
	if got.Kind != "file,gist" || got.FilePath != "/tmp/ts/results.log" || got.GistID != "abc123" {
		t.Errorf("unexpected recorder config: %+v", got)
	}
	if got.GistToken != "env-token" {
		t.Errorf("expected token from environment, got %q", got.GistToken)
	}
	if got.GistFilename == "" || got.SQLitePath == "" {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			loadTestConfig(t, "log_level: "+in+"\n")
			if got := LogLevel(); got != want {
				t.Errorf("LogLevel() = %v, want %v", got, want)
			}
		})
	}
}

func TestDumpAndGetValue(t *testing.T) {
	loadTestConfig(t, "player: ada\n")

	out, err := Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if !strings.Contains(out, "player: ada") || !strings.Contains(out, "time_limit: 10s") {
		t.Errorf("unexpected dump:\n%s", out)
	}

	v, err := GetValue("player")
	if err != nil || v != "ada" {
		t.Errorf("GetValue = %q, %v", v, err)
	}
	if _, err := GetValue("nope"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestSetValuePersists(t *testing.T) {
	loadTestConfig(t, "player: ada\n")

	if err := SetValue("player", "bob"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	data, err := os.ReadFile(viper.ConfigFileUsed())
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.Contains(string(data), "bob") {
		t.Errorf("value not persisted:\n%s", data)
	}
}

func TestTickInterval(t *testing.T) {
	loadTestConfig(t, "quiz:\n  tick: 250ms\n")
	if got := TickInterval(); got != 250*time.Millisecond {
		t.Errorf("TickInterval() = %v", got)
	}
	loadTestConfig(t, "quiz:\n  tick: -1s\n")
	if got := TickInterval(); got != 100*time.Millisecond {
		t.Errorf("TickInterval() = %v, want fallback", got)
	}
}

func TestServeTick(t *testing.T) {
	loadTestConfig(t, "serve:\n  tick: 500ms\n")
	if got := ServeTick(); got != 500*time.Millisecond {
		t.Errorf("ServeTick() = %v", got)
	}
	loadTestConfig(t, "serve:\n  tick: never\n")
	if got := ServeTick(); got != time.Second {
		t.Errorf("ServeTick() = %v, want fallback", got)
	}
}
