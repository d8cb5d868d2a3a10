package task

import (
	"regexp"
	"time"
)

// RunOptions bound a single run. All fields are optional; zero values
// disable the corresponding limit.
type RunOptions struct {
	// MaxSteps caps how many steps may execute in one run.
	MaxSteps int

	// MaxDuration caps the wall-clock time of one run.
	MaxDuration time.Duration

	// StopOnFirstToolError stops scheduling new steps once any step
	// fails. Steps already running finish; never-started steps stay
	// pending and do not appear in the trace.
	StopOnFirstToolError bool

	// RequiredOutputRegex, when set, is checked against the humanized
	// answer; a non-matching answer degrades to the raw trace.
	RequiredOutputRegex *regexp.Regexp

	// Concurrency is the number of workers executing a wave's ready
	// steps. Defaults to 1 (sequential). Steps in a wave are independent
	// by construction, so any value is safe.
	Concurrency int
}

func (o RunOptions) concurrency() int {
	if o.Concurrency < 1 {
		return 1
	}
	return o.Concurrency
}
