package usecase

import (
	"context"
	"errors"
	"slices"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// RoleSyncUseCase merges remote role definitions into the local store.
type RoleSyncUseCase struct {
	repo     interfaces.Repository
	activity *ActivityLogger
	policy   Policy
}

func NewRoleSyncUseCase(repo interfaces.Repository, activity *ActivityLogger, policy Policy) *RoleSyncUseCase {
	return &RoleSyncUseCase{
		repo:     repo,
		activity: activity,
		policy:   policy,
	}
}

// Reconcile creates missing non-system roles and merges capabilities of
// existing ones one capability at a time. Local capabilities that the remote
// role does not mention are kept. A failing role is logged and skipped.
// Returns the number of roles created.
func (uc *RoleSyncUseCase) Reconcile(ctx context.Context, remote model.RoleMap) int {
	created := 0
	for _, key := range remote.Keys() {
		if uc.policy.IsSystemRole(key) {
			continue
		}

		isNew, err := uc.reconcileRole(ctx, key, remote[key])
		if err != nil {
			uc.activity.Log(ctx, types.LogTypeError, "Failed to sync role", map[string]any{
				"role":  key,
				"error": err.Error(),
			})
			continue
		}
		if isNew {
			created++
			uc.activity.Log(ctx, types.LogTypeInfo, "Role created: "+key, nil)
		}
	}
	return created
}

func (uc *RoleSyncUseCase) reconcileRole(ctx context.Context, key string, remote *model.Role) (bool, error) {
	if remote == nil {
		remote = &model.Role{}
	}

	local, err := uc.repo.Role().Get(ctx, key)
	if errors.Is(err, interfaces.ErrNotFound) {
		name := remote.Name
		if name == "" {
			name = key
		}
		role := &model.Role{
			Key:          key,
			Name:         name,
			Capabilities: model.CapabilityMap{},
		}
		for cap, granted := range remote.Capabilities {
			role.Capabilities[cap] = granted
		}
		if err := uc.repo.Role().Create(ctx, role); err != nil {
			return false, goerr.Wrap(err, "failed to create role", goerr.V("role", key))
		}
		return true, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to get role", goerr.V("role", key))
	}

	caps := make([]string, 0, len(remote.Capabilities))
	for cap := range remote.Capabilities {
		caps = append(caps, cap)
	}
	slices.Sort(caps)

	for _, cap := range caps {
		current, present := local.Capabilities[cap]
		if remote.Capabilities[cap] {
			if present && current {
				continue
			}
			if err := uc.repo.Role().GrantCapability(ctx, key, cap); err != nil {
				return false, goerr.Wrap(err, "failed to grant capability", goerr.V("role", key), goerr.V("capability", cap))
			}
		} else {
			if !present {
				continue
			}
			if err := uc.repo.Role().RevokeCapability(ctx, key, cap); err != nil {
				return false, goerr.Wrap(err, "failed to revoke capability", goerr.V("role", key), goerr.V("capability", cap))
			}
		}
	}
	return false, nil
}

// SeedDefaults creates every built-in role that is missing from the store.
// Existing roles are left untouched. Returns the number of roles created.
func (uc *RoleSyncUseCase) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, role := range model.DefaultRoles() {
		err := uc.repo.Role().Create(ctx, role)
		switch {
		case err == nil:
			created++
		case errors.Is(err, interfaces.ErrConflict):
			continue
		default:
			return created, goerr.Wrap(err, "failed to seed role", goerr.V("role", role.Key))
		}
	}
	if created > 0 {
		uc.activity.Log(ctx, types.LogTypeInfo, "Default roles seeded", map[string]any{"created": created})
	}
	return created, nil
}
