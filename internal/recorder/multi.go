package recorder

import (
	"context"
	"errors"

	"github.com/connorhough/timestable/internal/quiz"
)

// Multi hands every record to each of its recorders. All recorders are tried
// even when one fails; the failures are joined.
type Multi []quiz.Recorder

func (m Multi) Record(ctx context.Context, rec quiz.Record) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
