package recorder

import (
	"context"
	"errors"

	"AssetLens/internal/pipeline"
)

// Recorder persists the results of analysis runs.
type Recorder interface {
	RecordRun(ctx context.Context, rep *pipeline.Report) error
	Close() error
}

// Multi fans a run out to several recorders. Every recorder is called even if an earlier
// one fails; the errors are joined.
type Multi []Recorder

func (m Multi) RecordRun(ctx context.Context, rep *pipeline.Report) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordRun(ctx, rep); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
