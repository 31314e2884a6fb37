package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/connorhough/timestable/internal/quiz"
)

// Config selects and configures result sinks. Kind is a comma-separated
// list such as "file,sqlite".
type Config struct {
	Kind          string
	FilePath      string
	NDJSONPath    string
	SQLitePath    string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	GistID        string
	GistFilename  string
	GistToken     string
}

// Factory creates and caches recorder instances by kind.
type Factory struct {
	cfg   Config
	cache map[string]quiz.Recorder
	mu    sync.RWMutex
}

// NewFactory creates a factory for cfg.
func NewFactory(cfg Config) *Factory {
	return &Factory{
		cfg:   cfg,
		cache: make(map[string]quiz.Recorder),
	}
}

// Recorder builds the recorder described by the factory's Kind. Several
// kinds are combined with Multi; "none" or an empty kind yields a no-op.
//
// With several kinds, a sink that fails to open is logged and left out so the
// others still record. An error is returned only when none could be opened.
func (f *Factory) Recorder(ctx context.Context) (quiz.Recorder, error) {
	var kinds []string
	for _, k := range strings.Split(f.cfg.Kind, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && k != KindNone {
			kinds = append(kinds, k)
		}
	}

	switch len(kinds) {
	case 0:
		return quiz.NopRecorder{}, nil
	case 1:
		return f.Get(ctx, kinds[0])
	}

	var multi Multi
	var errs []error
	for _, k := range kinds {
		r, err := f.Get(ctx, k)
		if err != nil {
			slog.Warn("recorder unavailable, continuing without it", "kind", k, "error", err)
			errs = append(errs, err)
			continue
		}
		multi = append(multi, r)
	}

	switch len(multi) {
	case 0:
		return nil, errors.Join(errs...)
	case 1:
		return multi[0], nil
	}
	return multi, nil
}

// Get returns the recorder for a single kind.
func (f *Factory) Get(ctx context.Context, kind string) (quiz.Recorder, error) {
	f.mu.RLock()
	if r, ok := f.cache[kind]; ok {
		f.mu.RUnlock()
		return r, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	if r, ok := f.cache[kind]; ok {
		return r, nil
	}

	var r quiz.Recorder
	var err error

	switch kind {
	case KindNone:
		r = quiz.NopRecorder{}
	case KindFile:
		r, err = NewFileRecorder(f.cfg.FilePath)
	case KindNDJSON:
		r, err = NewNDJSONRecorder(f.cfg.NDJSONPath)
	case KindSQLite:
		r, err = NewSQLiteRecorder(f.cfg.SQLitePath)
	case KindPostgres:
		r, err = NewPostgresRecorder(ctx, PostgresConfig{DSN: f.cfg.PostgresDSN})
	case KindRedis:
		r, err = NewRedisRecorder(ctx, f.cfg.RedisAddr, f.cfg.RedisPassword, f.cfg.RedisDB)
	case KindGist:
		r, err = NewGistRecorder(NewGitHubClient(ctx, f.cfg.GistToken), f.cfg.GistID, f.cfg.GistFilename)
	default:
		return nil, fmt.Errorf("unknown recorder: %s", kind)
	}

	if err != nil {
		return nil, err
	}

	slog.Debug("recorder ready", "kind", kind)
	f.cache[kind] = r
	return r, nil
}

// Close releases every cached recorder that holds resources.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for kind, r := range f.cache {
		if c, ok := r.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s recorder: %w", kind, err))
			}
		}
		delete(f.cache, kind)
	}
	return errors.Join(errs...)
}
