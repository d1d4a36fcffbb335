package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func newTestUser(login, email string, createdAt time.Time) *model.User {
	return &model.User{
		ID:           model.NewUserID(),
		Login:        login,
		PasswordHash: "$P$B" + login,
		Nicename:     model.Slugify(login),
		Email:        email,
		URL:          "https://example.com/" + login,
		RegisteredAt: createdAt,
		DisplayName:  login,
		Capabilities: model.CapabilityMap{"subscriber": true},
		Meta:         map[string]any{"locale": "en_US"},
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func runUserRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()
	base := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("Create and Get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := newTestUser("alice", "alice@example.com", base)
		user.Capabilities = model.CapabilityMap{"editor": true, "custom_cap": true}
		user.Level = 7
		gt.NoError(t, repo.User().Create(ctx, user)).Required()

		got, err := repo.User().Get(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Login).Equal("alice")
		gt.Value(t, got.PasswordHash).Equal("$P$Balice")
		gt.Value(t, got.Email).Equal("alice@example.com")
		gt.Value(t, got.URL).Equal("https://example.com/alice")
		gt.Bool(t, got.RegisteredAt.Equal(base)).True()
		gt.Value(t, got.Capabilities).Equal(model.CapabilityMap{"editor": true, "custom_cap": true})
		gt.Number(t, got.Level).Equal(7)
		gt.Value(t, got.Meta["locale"]).Equal(any("en_US"))
	})

	t.Run("Create rejects a taken login regardless of case", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.User().Create(ctx, newTestUser("bob", "bob@example.com", base))).Required()
		err := repo.User().Create(ctx, newTestUser("BOB", "other@example.com", base))
		gt.Error(t, err).Is(interfaces.ErrConflict)
	})

	t.Run("Get of unknown account is ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.User().Get(ctx, model.NewUserID())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
		_, err = repo.User().GetByLogin(ctx, "nobody")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
		_, err = repo.User().GetByEmail(ctx, "nobody@example.com")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("GetByLogin and GetByEmail ignore case", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := newTestUser("Carol", "Carol@Example.com", base)
		gt.NoError(t, repo.User().Create(ctx, user)).Required()

		got, err := repo.User().GetByLogin(ctx, "carol")
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(user.ID)

		got, err = repo.User().GetByEmail(ctx, "carol@example.com")
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(user.ID)
	})

	t.Run("GetByEmail returns the oldest account", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		older := newTestUser("dave", "shared@example.com", base.Add(-time.Hour))
		newer := newTestUser("erin", "shared@example.com", base)
		gt.NoError(t, repo.User().Create(ctx, newer)).Required()
		gt.NoError(t, repo.User().Create(ctx, older)).Required()

		got, err := repo.User().GetByEmail(ctx, "shared@example.com")
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(older.ID)
	})

	t.Run("Update leaves capabilities and meta alone", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := newTestUser("frank", "frank@example.com", base)
		gt.NoError(t, repo.User().Create(ctx, user)).Required()

		changed := user.Clone()
		changed.PasswordHash = "$P$Bnew"
		changed.DisplayName = "Frank"
		changed.Capabilities = model.CapabilityMap{"administrator": true}
		changed.Meta = map[string]any{}
		changed.UpdatedAt = base.Add(time.Minute)
		gt.NoError(t, repo.User().Update(ctx, changed)).Required()

		got, err := repo.User().Get(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.PasswordHash).Equal("$P$Bnew")
		gt.Value(t, got.DisplayName).Equal("Frank")
		gt.Value(t, got.Capabilities).Equal(model.CapabilityMap{"subscriber": true})
		gt.Value(t, got.Meta["locale"]).Equal(any("en_US"))

		missing := newTestUser("ghost", "ghost@example.com", base)
		gt.Error(t, repo.User().Update(ctx, missing)).Is(interfaces.ErrNotFound)
	})

	t.Run("PutMeta merges keys", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := newTestUser("grace", "grace@example.com", base)
		gt.NoError(t, repo.User().Create(ctx, user)).Required()

		gt.NoError(t, repo.User().PutMeta(ctx, user.ID, map[string]any{
			"first_name": "Grace",
			"locale":     "ja",
		})).Required()

		got, err := repo.User().Get(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Meta["first_name"]).Equal(any("Grace"))
		gt.Value(t, got.Meta["locale"]).Equal(any("ja"))

		err = repo.User().PutMeta(ctx, model.NewUserID(), map[string]any{"a": "b"})
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("SetCapabilities replaces the map", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := newTestUser("heidi", "heidi@example.com", base)
		user.Capabilities = model.CapabilityMap{"editor": true, "legacy_cap": true}
		gt.NoError(t, repo.User().Create(ctx, user)).Required()

		gt.NoError(t, repo.User().SetCapabilities(ctx, user.ID, model.CapabilityMap{"author": true}, 2)).Required()

		got, err := repo.User().Get(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Capabilities).Equal(model.CapabilityMap{"author": true})
		gt.Number(t, got.Level).Equal(2)
	})

	t.Run("List excludes roles and orders by login", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		admin := newTestUser("zed", "zed@example.com", base)
		admin.Capabilities = model.CapabilityMap{"administrator": true}
		revoked := newTestUser("mallory", "mallory@example.com", base)
		revoked.Capabilities = model.CapabilityMap{"administrator": false, "editor": true}
		plain := newTestUser("amy", "amy@example.com", base)

		for _, u := range []*model.User{admin, revoked, plain} {
			gt.NoError(t, repo.User().Create(ctx, u)).Required()
		}

		all, err := repo.User().List(ctx, interfaces.ListUsersOption{})
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(3)
		gt.Value(t, all[0].Login).Equal("amy")
		gt.Value(t, all[1].Login).Equal("mallory")
		gt.Value(t, all[2].Login).Equal("zed")

		filtered, err := repo.User().List(ctx, interfaces.ListUsersOption{ExcludeRoles: []string{"administrator"}})
		gt.NoError(t, err).Required()
		gt.Array(t, filtered).Length(2)
		gt.Value(t, filtered[0].Login).Equal("amy")
		gt.Value(t, filtered[1].Login).Equal("mallory")

		n, err := repo.User().Count(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(3)
	})
}

func TestUserRepository(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			runUserRepositoryTest(t, b.newRepo)
		})
	}
}
