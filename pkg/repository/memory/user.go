package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type userEntry struct {
	user *model.User
	seq  uint64
}

type userRepository struct {
	mu    sync.RWMutex
	users map[model.UserID]*userEntry
	seq   uint64
}

var _ interfaces.UserRepository = &userRepository{}

func newUserRepository() *userRepository {
	return &userRepository{
		users: make(map[model.UserID]*userEntry),
	}
}

// findByLogin must be called with the lock held
func (r *userRepository) findByLogin(login string) *userEntry {
	for _, e := range r.users {
		if strings.EqualFold(e.user.Login, login) {
			return e
		}
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return goerr.Wrap(interfaces.ErrConflict, "user already exists", goerr.V("id", user.ID))
	}
	if r.findByLogin(user.Login) != nil {
		return goerr.Wrap(interfaces.ErrConflict, "login already taken", goerr.V("login", user.Login))
	}

	r.seq++
	r.users[user.ID] = &userEntry{user: user.Clone(), seq: r.seq}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.users[user.ID]
	if !ok {
		return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", user.ID))
	}
	if other := r.findByLogin(user.Login); other != nil && other != e {
		return goerr.Wrap(interfaces.ErrConflict, "login already taken", goerr.V("login", user.Login))
	}

	updated := user.Clone()
	// Capabilities and meta are owned by SetCapabilities and PutMeta
	updated.Capabilities = e.user.Capabilities
	updated.Level = e.user.Level
	updated.Meta = e.user.Meta
	updated.CreatedAt = e.user.CreatedAt
	e.user = updated
	return nil
}

func (r *userRepository) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.users[id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
	}
	return e.user.Clone(), nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e := r.findByLogin(login)
	if e == nil {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("login", login))
	}
	return e.user.Clone(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *userEntry
	for _, e := range r.users {
		if !strings.EqualFold(e.user.Email, email) {
			continue
		}
		if found == nil || olderThan(e, found) {
			found = e
		}
	}
	if found == nil {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("email", email))
	}
	return found.user.Clone(), nil
}

func olderThan(a, b *userEntry) bool {
	if !a.user.CreatedAt.Equal(b.user.CreatedAt) {
		return a.user.CreatedAt.Before(b.user.CreatedAt)
	}
	return a.seq < b.seq
}

func (r *userRepository) List(ctx context.Context, opt interfaces.ListUsersOption) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*model.User, 0, len(r.users))
	for _, e := range r.users {
		if len(opt.ExcludeRoles) > 0 && e.user.HasAnyRole(opt.ExcludeRoles) {
			continue
		}
		users = append(users, e.user.Clone())
	}

	slices.SortFunc(users, func(a, b *model.User) int {
		return strings.Compare(a.Login, b.Login)
	})
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *userRepository) PutMeta(ctx context.Context, id model.UserID, meta map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.users[id]
	if !ok {
		return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
	}

	merged := maps.Clone(e.user.Meta)
	if merged == nil {
		merged = make(map[string]any, len(meta))
	}
	maps.Copy(merged, meta)

	updated := e.user.Clone()
	updated.Meta = merged
	updated.UpdatedAt = time.Now().UTC()
	e.user = updated
	return nil
}

func (r *userRepository) SetCapabilities(ctx context.Context, id model.UserID, caps model.CapabilityMap, level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.users[id]
	if !ok {
		return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
	}

	updated := e.user.Clone()
	updated.Capabilities = maps.Clone(caps)
	updated.Level = level
	updated.UpdatedAt = time.Now().UTC()
	e.user = updated
	return nil
}
