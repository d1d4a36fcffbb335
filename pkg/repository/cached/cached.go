// Package cached decorates a repository with an in-process LRU cache of
// accounts. Writes that go through the decorator invalidate the affected
// entry; writes made elsewhere must call Invalidate.
package cached

import (
	"context"
	"strings"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "octo_uc_user_cache_hits_total",
		Help: "Number of account lookups served from the LRU cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "octo_uc_user_cache_misses_total",
		Help: "Number of account lookups that went to the backend.",
	})
)

type Repository struct {
	interfaces.Repository
	user *userRepository
}

var (
	_ interfaces.Repository = &Repository{}
	_ interfaces.UserCache  = &Repository{}
)

// New wraps repo. size is the maximum number of cached accounts and ttl the
// lifetime of an entry.
func New(repo interfaces.Repository, size int, ttl time.Duration) *Repository {
	return &Repository{
		Repository: repo,
		user: &userRepository{
			UserRepository: repo.User(),
			byID:           expirable.NewLRU[model.UserID, *model.User](size, nil, ttl),
			byLogin:        expirable.NewLRU[string, model.UserID](size, nil, ttl),
		},
	}
}

func (r *Repository) User() interfaces.UserRepository {
	return r.user
}

func (r *Repository) Invalidate(id model.UserID) {
	r.user.invalidate(id)
}

type userRepository struct {
	interfaces.UserRepository
	byID    *expirable.LRU[model.UserID, *model.User]
	byLogin *expirable.LRU[string, model.UserID]
}

func loginKey(login string) string {
	return strings.ToLower(login)
}

func (r *userRepository) invalidate(id model.UserID) {
	r.byID.Remove(id)
}

func (r *userRepository) store(user *model.User) {
	r.byID.Add(user.ID, user.Clone())
	r.byLogin.Add(loginKey(user.Login), user.ID)
}

func (r *userRepository) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	if user, ok := r.byID.Get(id); ok {
		cacheHitsTotal.Inc()
		return user.Clone(), nil
	}
	cacheMissesTotal.Inc()

	user, err := r.UserRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(user)
	return user, nil
}

// GetByLogin resolves the login through the index and re-checks the cached
// account, since a login may have moved to another account since indexing.
func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if id, ok := r.byLogin.Get(loginKey(login)); ok {
		if user, ok := r.byID.Get(id); ok && strings.EqualFold(user.Login, login) {
			cacheHitsTotal.Inc()
			return user.Clone(), nil
		}
	}
	cacheMissesTotal.Inc()

	user, err := r.UserRepository.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	r.store(user)
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	r.invalidate(user.ID)
	return r.UserRepository.Create(ctx, user)
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	defer r.invalidate(user.ID)
	return r.UserRepository.Update(ctx, user)
}

func (r *userRepository) PutMeta(ctx context.Context, id model.UserID, meta map[string]any) error {
	defer r.invalidate(id)
	return r.UserRepository.PutMeta(ctx, id, meta)
}

func (r *userRepository) SetCapabilities(ctx context.Context, id model.UserID, caps model.CapabilityMap, level int) error {
	defer r.invalidate(id)
	return r.UserRepository.SetCapabilities(ctx, id, caps, level)
}
