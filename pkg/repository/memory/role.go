package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type roleRepository struct {
	mu    sync.RWMutex
	roles map[string]*model.Role
}

var _ interfaces.RoleRepository = &roleRepository{}

func newRoleRepository() *roleRepository {
	return &roleRepository{
		roles: make(map[string]*model.Role),
	}
}

func (r *roleRepository) List(ctx context.Context) ([]*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]*model.Role, 0, len(r.roles))
	for _, role := range r.roles {
		roles = append(roles, role.Clone())
	}
	slices.SortFunc(roles, func(a, b *model.Role) int {
		return strings.Compare(a.Key, b.Key)
	})
	return roles, nil
}

func (r *roleRepository) Get(ctx context.Context, key string) (*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[key]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "role not found", goerr.V("key", key))
	}
	return role.Clone(), nil
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roles[role.Key]; ok {
		return goerr.Wrap(interfaces.ErrConflict, "role already exists", goerr.V("key", role.Key))
	}

	stored := role.Clone()
	if stored.Capabilities == nil {
		stored.Capabilities = model.CapabilityMap{}
	}
	r.roles[role.Key] = stored
	return nil
}

func (r *roleRepository) GrantCapability(ctx context.Context, key, cap string) error {
	return r.mutate(key, func(caps model.CapabilityMap) {
		caps[cap] = true
	})
}

func (r *roleRepository) RevokeCapability(ctx context.Context, key, cap string) error {
	return r.mutate(key, func(caps model.CapabilityMap) {
		delete(caps, cap)
	})
}

func (r *roleRepository) mutate(key string, fn func(model.CapabilityMap)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, ok := r.roles[key]
	if !ok {
		return goerr.Wrap(interfaces.ErrNotFound, "role not found", goerr.V("key", key))
	}

	caps := maps.Clone(role.Capabilities)
	if caps == nil {
		caps = model.CapabilityMap{}
	}
	fn(caps)
	role.Capabilities = caps
	return nil
}
