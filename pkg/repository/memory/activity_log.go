package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
)

type activityLogRepository struct {
	mu      sync.RWMutex
	entries []*model.ActivityLog
}

var _ interfaces.ActivityLogRepository = &activityLogRepository{}

func newActivityLogRepository() *activityLogRepository {
	return &activityLogRepository{}
}

func (r *activityLogRepository) Append(ctx context.Context, entry *model.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *entry
	stored.Details = maps.Clone(entry.Details)
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *activityLogRepository) List(ctx context.Context, limit int) ([]*model.ActivityLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.entries)
	if limit <= 0 || limit > n {
		limit = n
	}

	// Entries are appended in time order, so walk backwards
	result := make([]*model.ActivityLog, 0, limit)
	for i := n - 1; i >= 0 && len(result) < limit; i-- {
		entry := *r.entries[i]
		entry.Details = maps.Clone(r.entries[i].Details)
		result = append(result, &entry)
	}
	return result, nil
}
