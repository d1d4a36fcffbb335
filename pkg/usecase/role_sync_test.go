package usecase_test

import (
	"context"
	"testing"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/Octonove/octo-user-copy/pkg/repository/memory"
	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func seedDefaultRoles(t *testing.T, repo interfaces.Repository) {
	t.Helper()
	for _, role := range model.DefaultRoles() {
		gt.NoError(t, repo.Role().Create(context.Background(), role)).Required()
	}
}

func TestReconcileRoles(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing roles and skips system roles", func(t *testing.T) {
		repo := memory.New()
		seedDefaultRoles(t, repo)
		uc := usecase.New(repo)

		remote := model.RoleMap{
			"administrator": {Key: "administrator", Name: "Hijacked", Capabilities: model.CapabilityMap{"evil": true}},
			"subscriber":    {Key: "subscriber", Name: "Subscriber", Capabilities: model.CapabilityMap{}},
			"shop_manager":  {Key: "shop_manager", Name: "Shop manager", Capabilities: model.CapabilityMap{"read": true, "manage_woocommerce": true}},
			"customer":      {Key: "customer", Name: "", Capabilities: model.CapabilityMap{"read": true}},
		}
		gt.Number(t, uc.Roles.Reconcile(ctx, remote)).Equal(2)

		admin, err := repo.Role().Get(ctx, "administrator")
		gt.NoError(t, err).Required()
		gt.Value(t, admin.Name).Equal("Administrator")
		_, hasEvil := admin.Capabilities["evil"]
		gt.Bool(t, hasEvil).False()

		shop, err := repo.Role().Get(ctx, "shop_manager")
		gt.NoError(t, err).Required()
		gt.Value(t, shop.Name).Equal("Shop manager")
		gt.Value(t, shop.Capabilities).Equal(model.CapabilityMap{"read": true, "manage_woocommerce": true})

		customer, err := repo.Role().Get(ctx, "customer")
		gt.NoError(t, err).Required()
		gt.Value(t, customer.Name).Equal("customer")

		roles, err := repo.Role().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, roles).Length(7)
	})

	t.Run("never creates system roles", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		remote := model.RoleMap{}
		for _, key := range model.SystemRoleKeys() {
			remote[key] = &model.Role{Key: key, Name: key, Capabilities: model.CapabilityMap{"read": true}}
		}
		gt.Number(t, uc.Roles.Reconcile(ctx, remote)).Equal(0)

		roles, err := repo.Role().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, roles).Length(0)
	})

	t.Run("merges capabilities and keeps local-only ones", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.Role().Create(ctx, &model.Role{
			Key:          "shop_manager",
			Name:         "Shop manager",
			Capabilities: model.CapabilityMap{"read": true, "edit_products": true, "local_only": true},
		})).Required()
		uc := usecase.New(repo)

		remote := model.RoleMap{
			"shop_manager": {
				Key:          "shop_manager",
				Name:         "Renamed",
				Capabilities: model.CapabilityMap{"read": true, "edit_products": false, "view_reports": true},
			},
		}
		gt.Number(t, uc.Roles.Reconcile(ctx, remote)).Equal(0)

		role, err := repo.Role().Get(ctx, "shop_manager")
		gt.NoError(t, err).Required()
		gt.Value(t, role.Name).Equal("Shop manager")
		gt.Value(t, role.Capabilities).Equal(model.CapabilityMap{
			"read":         true,
			"view_reports": true,
			"local_only":   true,
		})
	})

	t.Run("custom system roles", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithSystemRoles("customer"))

		remote := model.RoleMap{
			"customer": {Key: "customer", Name: "Customer"},
			"editor":   {Key: "editor", Name: "Editor"},
		}
		gt.Number(t, uc.Roles.Reconcile(ctx, remote)).Equal(1)

		_, err := repo.Role().Get(ctx, "customer")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("a failing role is logged and the rest continue", func(t *testing.T) {
		mem := memory.New()
		repo := &faultyRepository{
			Repository: mem,
			roles:      &faultyRoles{RoleRepository: mem.Role(), failKey: "broken"},
		}
		uc := usecase.New(repo)

		remote := model.RoleMap{
			"broken":   {Key: "broken", Name: "Broken"},
			"customer": {Key: "customer", Name: "Customer"},
		}
		gt.Number(t, uc.Roles.Reconcile(ctx, remote)).Equal(1)

		logs, err := uc.Activity.List(ctx, 10)
		gt.NoError(t, err).Required()
		var failures int
		for _, entry := range logs {
			if entry.Type == types.LogTypeError {
				failures++
				gt.Value(t, entry.Details["role"]).Equal("broken")
			}
		}
		gt.Number(t, failures).Equal(1)
	})
}

func TestSeedDefaultRoles(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo)

	gt.NoError(t, repo.Role().Create(ctx, &model.Role{
		Key:          "editor",
		Name:         "Custom editor",
		Capabilities: model.CapabilityMap{"read": true},
	})).Required()

	created, err := uc.Roles.SeedDefaults(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, created).Equal(4)

	editor, err := repo.Role().Get(ctx, "editor")
	gt.NoError(t, err).Required()
	gt.Value(t, editor.Name).Equal("Custom editor")

	created, err = uc.Roles.SeedDefaults(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, created).Equal(0)
}
