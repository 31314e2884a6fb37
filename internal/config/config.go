// Package config provides configuration management functionality for the timestable application.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/connorhough/timestable/internal/quiz"
	"github.com/connorhough/timestable/internal/recorder"
)

const appName = "timestable"

// SetDefaults registers the built-in value of every key.
func SetDefaults() {
	d := quiz.DefaultConfig()
	viper.SetDefault("player", "")
	viper.SetDefault("require_player", false)
	viper.SetDefault("quiz.min", d.Min)
	viper.SetDefault("quiz.max", d.Max)
	viper.SetDefault("quiz.questions", d.TotalQuestions)
	viper.SetDefault("quiz.time_limit", d.TimeLimit.String())
	viper.SetDefault("quiz.mode", d.Mode.String())
	viper.SetDefault("quiz.tick", "100ms")

	viper.SetDefault("recorder.kind", recorder.KindFile)
	viper.SetDefault("recorder.file.path", filepath.Join(DataDir(), "results.log"))
	viper.SetDefault("recorder.ndjson.path", filepath.Join(DataDir(), "results.ndjson"))
	viper.SetDefault("recorder.sqlite.path", filepath.Join(DataDir(), "results.db"))
	viper.SetDefault("recorder.gist.filename", recorder.DefaultGistFilename)
	viper.SetDefault("recorder.redis.db", 0)

	viper.SetDefault("serve.addr", "127.0.0.1:8080")
	viper.SetDefault("serve.tick", "1s")
	viper.SetDefault("log_level", "info")
}

// DataDir is where local result logs and databases live by default.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, ".local", "share", appName)
}

// DefaultConfigPath returns the file `config init` writes to.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName, "config.yaml"), nil
}

// GetValue retrieves a configuration value by key
func GetValue(key string) (string, error) {
	if !viper.IsSet(key) {
		return "", fmt.Errorf("key '%s' not found in configuration", key)
	}
	return viper.GetString(key), nil
}

// SetValue sets a configuration value by key and persists it to the config file
func SetValue(key string, value string) error {
	viper.Set(key, value)
	return viper.WriteConfig()
}

// Dump renders the effective settings as YAML.
func Dump() (string, error) {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return "", fmt.Errorf("failed to encode settings: %w", err)
	}
	return string(out), nil
}

// ResolveQuizConfig builds the session configuration from config file,
// environment and defaults.
func ResolveQuizConfig() (quiz.Config, error) {
	mode, err := quiz.ParseTimerMode(viper.GetString("quiz.mode"))
	if err != nil {
		return quiz.Config{}, err
	}
	limit, err := parseDuration("quiz.time_limit", viper.GetString("quiz.time_limit"))
	if err != nil {
		return quiz.Config{}, err
	}
	return quiz.Config{
		Player:         viper.GetString("player"),
		RequirePlayer:  viper.GetBool("require_player"),
		Min:            viper.GetInt("quiz.min"),
		Max:            viper.GetInt("quiz.max"),
		TotalQuestions: viper.GetInt("quiz.questions"),
		TimeLimit:      limit,
		Mode:           mode,
	}, nil
}

// TickInterval is how often presentation layers poll the countdown.
func TickInterval() time.Duration {
	d, err := parseDuration("quiz.tick", viper.GetString("quiz.tick"))
	if err != nil || d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

// ServeTick is how often the web server pushes state to websocket clients.
func ServeTick() time.Duration {
	d, err := parseDuration("serve.tick", viper.GetString("serve.tick"))
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// ApplyFlags applies flag overrides to cfg (called from command layer).
// Only flags the user actually set take effect.
func ApplyFlags(cfg *quiz.Config, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "player":
			cfg.Player = f.Value.String()
		case "require-player":
			cfg.RequirePlayer, err = flags.GetBool(f.Name)
		case "min":
			cfg.Min, err = flags.GetInt(f.Name)
		case "max":
			cfg.Max, err = flags.GetInt(f.Name)
		case "questions":
			cfg.TotalQuestions, err = flags.GetInt(f.Name)
		case "time-limit":
			cfg.TimeLimit, err = flags.GetDuration(f.Name)
		case "mode":
			cfg.Mode, err = quiz.ParseTimerMode(f.Value.String())
		}
	})
	return err
}

// ResolveRecorderConfig reads the recorder.* keys.
func ResolveRecorderConfig() recorder.Config {
	return recorder.Config{
		Kind:          viper.GetString("recorder.kind"),
		FilePath:      expandHome(viper.GetString("recorder.file.path")),
		NDJSONPath:    expandHome(viper.GetString("recorder.ndjson.path")),
		SQLitePath:    expandHome(viper.GetString("recorder.sqlite.path")),
		PostgresDSN:   viper.GetString("recorder.postgres.dsn"),
		RedisAddr:     viper.GetString("recorder.redis.addr"),
		RedisPassword: viper.GetString("recorder.redis.password"),
		RedisDB:       viper.GetInt("recorder.redis.db"),
		GistID:        viper.GetString("recorder.gist.id"),
		GistFilename:  viper.GetString("recorder.gist.filename"),
		GistToken:     firstNonEmpty(viper.GetString("recorder.gist.token"), os.Getenv("GITHUB_TOKEN")),
	}
}

// LogLevel maps log_level to a slog level, defaulting to info.
func LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(viper.GetString("log_level"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(key, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	d, err := time.ParseDuration(value)
	if err == nil {
		return d, nil
	}
	// Bare numbers are seconds.
	if secs, ferr := strconv.ParseFloat(value, 64); ferr == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, &quiz.ConfigError{Field: key, Msg: fmt.Sprintf("cannot parse %q as a duration", value)}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
