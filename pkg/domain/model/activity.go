package model

import (
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/google/uuid"
)

type ActivityLogID string

func NewActivityLogID() ActivityLogID {
	return ActivityLogID(uuid.NewString())
}

// ActivityLog is one entry of the append-only sync activity log.
type ActivityLog struct {
	ID        ActivityLogID  `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      types.LogType  `json:"type"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}
