package scanner

import (
	"context"
	"time"
)

// UnknownName replaces an empty process name in alerts
const UnknownName = "Unknown"

// ProcessSample is a point-in-time reading of one process.
// ResidentBytes is only meaningful at the moment it was sampled.
type ProcessSample struct {
	PID           int32
	Name          string
	ResidentBytes uint64
}

// DisplayName returns the name used in alerts
func (s ProcessSample) DisplayName() string {
	if s.Name == "" {
		return UnknownName
	}
	return s.Name
}

// Outcome tags the result of inspecting a single process
type Outcome int

const (
	// OutcomeSuccess means Sample holds valid data
	OutcomeSuccess Outcome = iota
	// OutcomeGone covers processes that exited, or are zombies awaiting reaping
	OutcomeGone
	// OutcomeAccessDenied means the caller lacks permission to read the process
	OutcomeAccessDenied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeGone:
		return "gone"
	case OutcomeAccessDenied:
		return "access_denied"
	default:
		return "unknown"
	}
}

// Inspection is the tagged result of reading one process.
// Only OutcomeSuccess carries a Sample.
type Inspection struct {
	Outcome Outcome
	Sample  ProcessSample
}

// Sampled wraps a successful reading
func Sampled(sample ProcessSample) Inspection {
	return Inspection{Outcome: OutcomeSuccess, Sample: sample}
}

// Gone reports a process that can no longer be inspected
func Gone() Inspection {
	return Inspection{Outcome: OutcomeGone}
}

// AccessDenied reports a process the caller may not inspect
func AccessDenied() Inspection {
	return Inspection{Outcome: OutcomeAccessDenied}
}

// Source enumerates processes and reads their memory.
// Inspect returns an error only for failures that should abort the scan;
// transient conditions are expressed through the Inspection outcome.
type Source interface {
	List(ctx context.Context) ([]int32, error)
	Inspect(ctx context.Context, pid int32) (Inspection, error)
}

// Summary describes a finished scan
type Summary struct {
	StartedAt time.Time
	Inspected int
	Skipped   int
	Alerts    int
}
