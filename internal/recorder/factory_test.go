package recorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/connorhough/timestable/internal/quiz"
)

func asRecorderError(err error, target **RecorderError) bool {
	return errors.As(err, target)
}

func TestFactoryRecorder(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		FilePath:   filepath.Join(dir, "results.log"),
		NDJSONPath: filepath.Join(dir, "results.ndjson"),
		SQLitePath: filepath.Join(dir, "results.db"),
	}
	ctx := context.Background()

	t.Run("empty kind is a no-op", func(t *testing.T) {
		f := NewFactory(cfg)
		r, err := f.Recorder(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := r.(quiz.NopRecorder); !ok {
			t.Errorf("got %T, want quiz.NopRecorder", r)
		}
	})

	t.Run("single kind", func(t *testing.T) {
		c := cfg
		c.Kind = "file"
		f := NewFactory(c)
		defer f.Close()
		r, err := f.Recorder(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := r.(*FileRecorder); !ok {
			t.Errorf("got %T, want *FileRecorder", r)
		}
	})

	t.Run("several kinds fan out", func(t *testing.T) {
		c := cfg
		c.Kind = "file, ndjson,sqlite,none"
		f := NewFactory(c)
		defer f.Close()
		r, err := f.Recorder(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		multi, ok := r.(Multi)
		if !ok || len(multi) != 3 {
			t.Fatalf("got %T (%v), want Multi of 3", r, r)
		}
		if err := r.Record(ctx, sampleRecord()); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		for _, p := range []string{c.FilePath, c.NDJSONPath} {
			if info, err := os.Stat(p); err != nil || info.Size() == 0 {
				t.Errorf("expected %s to be written", p)
			}
		}
	})

	t.Run("unreachable sinks are skipped", func(t *testing.T) {
		c := cfg
		c.Kind = "file,redis,ndjson"
		c.FilePath = filepath.Join(dir, "partial.log")
		c.NDJSONPath = filepath.Join(dir, "partial.ndjson")
		f := NewFactory(c)
		defer f.Close()
		r, err := f.Recorder(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		multi, ok := r.(Multi)
		if !ok || len(multi) != 2 {
			t.Fatalf("got %T (%v), want Multi of file and ndjson", r, r)
		}
		if err := r.Record(ctx, sampleRecord()); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		for _, p := range []string{c.FilePath, c.NDJSONPath} {
			if info, err := os.Stat(p); err != nil || info.Size() == 0 {
				t.Errorf("expected %s to be written", p)
			}
		}
	})

	t.Run("one survivor is used directly", func(t *testing.T) {
		c := cfg
		c.Kind = "postgres,file"
		f := NewFactory(c)
		defer f.Close()
		r, err := f.Recorder(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := r.(*FileRecorder); !ok {
			t.Errorf("got %T, want *FileRecorder", r)
		}
	})

	t.Run("no sink opens", func(t *testing.T) {
		c := cfg
		c.Kind = "postgres,redis"
		_, err := NewFactory(c).Recorder(ctx)
		var recErr *RecorderError
		if !errors.As(err, &recErr) {
			t.Errorf("expected RecorderError, got %v", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		c := cfg
		c.Kind = "spreadsheet"
		if _, err := NewFactory(c).Recorder(ctx); err == nil {
			t.Error("expected error for unknown recorder")
		}
	})

	t.Run("missing settings", func(t *testing.T) {
		for _, kind := range []string{KindPostgres, KindRedis, KindGist} {
			_, err := NewFactory(Config{Kind: kind}).Recorder(ctx)
			var recErr *RecorderError
			if !errors.As(err, &recErr) {
				t.Errorf("%s: expected RecorderError, got %v", kind, err)
			}
		}
	})
}

func TestFactoryCachesInstances(t *testing.T) {
	f := NewFactory(Config{FilePath: filepath.Join(t.TempDir(), "r.log")})
	defer f.Close()
	ctx := context.Background()

	a, err := f.Get(ctx, KindFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := f.Get(ctx, KindFile)
	if a != b {
		t.Error("expected cached instance")
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	mem := &quiz.MemoryRecorder{}
	failing := quiz.RecorderFunc(func(context.Context, quiz.Record) error { return boom })

	err := Multi{failing, mem}.Record(context.Background(), sampleRecord())
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error to contain boom, got %v", err)
	}
	if len(mem.Records()) != 1 {
		t.Error("later recorders must still run after a failure")
	}
}
