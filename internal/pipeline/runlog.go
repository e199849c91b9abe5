package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

// runLog collects the per-call log returned with a Result and mirrors
// each entry to slog. One is created per Run.
type runLog struct {
	ctx     context.Context
	logger  *slog.Logger
	now     func() time.Time
	entries []entity.LogEntry
}

func (l *runLog) add(level slog.Level, phase, event string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.entries = append(l.entries, entity.LogEntry{
		At:      l.now(),
		Phase:   phase,
		Level:   level.String(),
		Message: msg,
	})
	l.logger.Log(l.ctx, level, event, "phase", phase, "detail", msg)
}

func (l *runLog) info(phase, event, format string, args ...any) {
	l.add(slog.LevelInfo, phase, event, format, args...)
}

func (l *runLog) warn(phase, event, format string, args ...any) {
	l.add(slog.LevelWarn, phase, event, format, args...)
}

func (l *runLog) error(phase, event, format string, args ...any) {
	l.add(slog.LevelError, phase, event, format, args...)
}
