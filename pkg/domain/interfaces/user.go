package interfaces

import (
	"context"

	"github.com/Octonove/octo-user-copy/pkg/domain/model"
)

// ListUsersOption narrows UserRepository.List
type ListUsersOption struct {
	// ExcludeRoles drops every account holding at least one of these roles
	ExcludeRoles []string
}

// UserRepository persists local accounts.
//
// The account row (Create/Update), the capability map (SetCapabilities) and
// metadata (PutMeta) are written separately, mirroring how the sync engine
// applies a remote record in stages.
type UserRepository interface {
	// Create inserts a new account. Returns ErrConflict when the login is taken.
	Create(ctx context.Context, user *model.User) error

	// Update overwrites the account row fields of an existing account.
	// Capabilities, Level and Meta are left untouched.
	Update(ctx context.Context, user *model.User) error

	Get(ctx context.Context, id model.UserID) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)

	// GetByEmail returns the oldest account with the email. Emails are not
	// unique.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// List returns accounts ordered by login
	List(ctx context.Context, opt ListUsersOption) ([]*model.User, error)
	Count(ctx context.Context) (int, error)

	// PutMeta sets the given keys, leaving other keys untouched
	PutMeta(ctx context.Context, id model.UserID, meta map[string]any) error

	// SetCapabilities replaces the whole capability map and the level
	SetCapabilities(ctx context.Context, id model.UserID, caps model.CapabilityMap, level int) error
}

// UserCache is notified whenever an account changes outside of the cache
type UserCache interface {
	Invalidate(id model.UserID)
}
