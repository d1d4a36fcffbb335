package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/Octonove/octo-user-copy/pkg/utils/errutil"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
)

const (
	DefaultLogLimit = 100
	MaxLogLimit     = 1000
)

// ActivityLogger writes sync activity both to slog and to the persisted
// activity log. Persisting never fails the caller.
type ActivityLogger struct {
	repo interfaces.ActivityLogRepository
	now  func() time.Time
}

func NewActivityLogger(repo interfaces.ActivityLogRepository, now func() time.Time) *ActivityLogger {
	return &ActivityLogger{repo: repo, now: now}
}

func (a *ActivityLogger) Log(ctx context.Context, typ types.LogType, msg string, details map[string]any) {
	logger := logging.From(ctx)
	attrs := make([]any, 0, len(details)+1)
	attrs = append(attrs, slog.String("log_type", typ.String()))
	for k, v := range details {
		attrs = append(attrs, slog.Any(k, v))
	}
	logger.Log(ctx, slogLevel(typ), msg, attrs...)

	entry := &model.ActivityLog{
		ID:        model.NewActivityLogID(),
		Timestamp: a.now().UTC(),
		Type:      typ,
		Message:   msg,
		Details:   details,
	}
	if err := a.repo.Append(ctx, entry); err != nil {
		_ = errutil.Handle(ctx, err, "failed to append activity log")
	}
}

// List returns the newest entries. limit is clamped to [1, MaxLogLimit] and
// defaults to DefaultLogLimit.
func (a *ActivityLogger) List(ctx context.Context, limit int) ([]*model.ActivityLog, error) {
	switch {
	case limit <= 0:
		limit = DefaultLogLimit
	case limit > MaxLogLimit:
		limit = MaxLogLimit
	}
	return a.repo.List(ctx, limit)
}

func slogLevel(typ types.LogType) slog.Level {
	switch typ {
	case types.LogTypeError:
		return slog.LevelError
	case types.LogTypeWarning:
		return slog.LevelWarn
	case types.LogTypeDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
