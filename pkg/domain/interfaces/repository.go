package interfaces

import "context"

// Repository defines the interface for data persistence
type Repository interface {
	User() UserRepository
	Role() RoleRepository
	ActivityLog() ActivityLogRepository

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}
