package repository_test

import (
	"context"
	"testing"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func runRoleRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create, Get and List", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Role().Create(ctx, &model.Role{
			Key:          "shop_manager",
			Name:         "Shop Manager",
			Capabilities: model.CapabilityMap{"manage_shop": true, "read": true},
		})).Required()
		gt.NoError(t, repo.Role().Create(ctx, &model.Role{Key: "auditor", Name: "Auditor"})).Required()

		got, err := repo.Role().Get(ctx, "shop_manager")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Shop Manager")
		gt.Value(t, got.Capabilities).Equal(model.CapabilityMap{"manage_shop": true, "read": true})

		roles, err := repo.Role().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, roles).Length(2)
		gt.Value(t, roles[0].Key).Equal("auditor")
		gt.Number(t, len(roles[0].Capabilities)).Equal(0)
		gt.Value(t, roles[1].Key).Equal("shop_manager")
	})

	t.Run("Create rejects duplicates", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Role().Create(ctx, &model.Role{Key: "dup", Name: "Dup"})).Required()
		gt.Error(t, repo.Role().Create(ctx, &model.Role{Key: "dup", Name: "Again"})).Is(interfaces.ErrConflict)
	})

	t.Run("Grant and revoke single capabilities", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Role().Create(ctx, &model.Role{
			Key:          "support",
			Name:         "Support",
			Capabilities: model.CapabilityMap{"read": true, "edit_tickets": true},
		})).Required()

		gt.NoError(t, repo.Role().GrantCapability(ctx, "support", "close_tickets")).Required()
		gt.NoError(t, repo.Role().RevokeCapability(ctx, "support", "edit_tickets")).Required()

		got, err := repo.Role().Get(ctx, "support")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Capabilities).Equal(model.CapabilityMap{"read": true, "close_tickets": true})
	})

	t.Run("Unknown role is ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Role().Get(ctx, "missing")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
		gt.Error(t, repo.Role().GrantCapability(ctx, "missing", "read")).Is(interfaces.ErrNotFound)
		gt.Error(t, repo.Role().RevokeCapability(ctx, "missing", "read")).Is(interfaces.ErrNotFound)
	})
}

func TestRoleRepository(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			runRoleRepositoryTest(t, b.newRepo)
		})
	}
}
