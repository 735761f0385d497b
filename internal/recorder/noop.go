package recorder

import (
	"context"

	"AssetLens/internal/pipeline"
)

// NoopRecorder is a no-op implementation used when no output is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ context.Context, _ *pipeline.Report) error { return nil }
func (n *NoopRecorder) Close() error                                         { return nil }
