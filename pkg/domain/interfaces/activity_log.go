package interfaces

import (
	"context"

	"github.com/Octonove/octo-user-copy/pkg/domain/model"
)

// ActivityLogRepository is an append-only store of sync activity
type ActivityLogRepository interface {
	Append(ctx context.Context, entry *model.ActivityLog) error

	// List returns up to limit entries, newest first
	List(ctx context.Context, limit int) ([]*model.ActivityLog, error)
}
