package calculator

import "errors"

var (
	// ErrMalformedSeries marks duplicate or non-monotonic dates within one series.
	ErrMalformedSeries = errors.New("malformed series")
	// ErrDegenerateSeries marks too few observations, a zero or missing base, or zero variance
	// where a ratio needs it.
	ErrDegenerateSeries = errors.New("empty or degenerate series")
	// ErrMisalignedSeries marks two series meant for joint analysis with no common date.
	ErrMisalignedSeries = errors.New("misaligned series")
	// ErrReturnKindMismatch marks an attempt to combine log and discrete returns.
	ErrReturnKindMismatch = errors.New("return kind mismatch")
)
