package interfaces

import (
	"context"

	"github.com/Octonove/octo-user-copy/pkg/domain/model"
)

// RoleRepository persists role definitions
type RoleRepository interface {
	// List returns every role ordered by key
	List(ctx context.Context) ([]*model.Role, error)
	Get(ctx context.Context, key string) (*model.Role, error)

	// Create returns ErrConflict when the key exists
	Create(ctx context.Context, role *model.Role) error

	// GrantCapability sets cap to true on an existing role
	GrantCapability(ctx context.Context, key, cap string) error
	// RevokeCapability removes cap from an existing role
	RevokeCapability(ctx context.Context, key, cap string) error
}
