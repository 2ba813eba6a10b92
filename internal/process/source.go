// Package process reads the live process table through gopsutil and maps
// transient inspection failures onto scanner outcomes.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	psprocess "github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/yairfalse/memwatch/internal/scanner"
)

// Source implements scanner.Source on top of gopsutil
type Source struct {
	logger *zap.Logger
}

var _ scanner.Source = (*Source)(nil)

// NewSource creates a gopsutil-backed process source
func NewSource(logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{logger: logger}
}

// List returns the PIDs visible to the calling user
func (s *Source) List(ctx context.Context) ([]int32, error) {
	pids, err := psprocess.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate processes: %w", err)
	}
	return pids, nil
}

// Inspect reads name and resident memory for pid
func (s *Source) Inspect(ctx context.Context, pid int32) (scanner.Inspection, error) {
	proc, err := psprocess.NewProcessWithContext(ctx, pid)
	if err != nil {
		return s.classify(pid, "open", err)
	}

	status, err := proc.StatusWithContext(ctx)
	if err != nil {
		return s.classify(pid, "status", err)
	}
	if isZombie(status) {
		s.logger.Debug("Process is a zombie", zap.Int32("pid", pid))
		return scanner.Gone(), nil
	}

	name, err := proc.NameWithContext(ctx)
	if err != nil {
		return s.classify(pid, "name", err)
	}

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return s.classify(pid, "memory_info", err)
	}

	return scanner.Sampled(scanner.ProcessSample{
		PID:           pid,
		Name:          name,
		ResidentBytes: mem.RSS,
	}), nil
}

func (s *Source) classify(pid int32, attr string, err error) (scanner.Inspection, error) {
	outcome, ok := Classify(err)
	if !ok {
		return scanner.Inspection{}, fmt.Errorf("failed to read %s: %w", attr, err)
	}
	s.logger.Debug("Process not inspectable",
		zap.Int32("pid", pid),
		zap.String("attribute", attr),
		zap.Stringer("outcome", outcome),
		zap.Error(err))
	return scanner.Inspection{Outcome: outcome}, nil
}

// Classify maps an inspection error onto a skip outcome. ok is false for
// errors that are not an expected consequence of a process exiting or
// being protected.
func Classify(err error) (outcome scanner.Outcome, ok bool) {
	switch {
	case err == nil:
		return scanner.OutcomeSuccess, true
	case errors.Is(err, psprocess.ErrorProcessNotRunning),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, syscall.ESRCH):
		return scanner.OutcomeGone, true
	case errors.Is(err, os.ErrPermission),
		errors.Is(err, syscall.EPERM),
		errors.Is(err, syscall.EACCES):
		return scanner.OutcomeAccessDenied, true
	default:
		return scanner.OutcomeSuccess, false
	}
}

func isZombie(status []string) bool {
	for _, st := range status {
		if st == psprocess.Zombie {
			return true
		}
	}
	return false
}
