package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
)

var errStorageDown = errors.New("storage unavailable")

type fakeEmitter struct {
	configured bool
	roles      model.RoleMap
	users      []model.UserRecord
	rawUsers   []json.RawMessage
	rolesErr   error
	usersErr   error

	// release, when set, blocks FetchUsers until it is closed
	release chan struct{}

	rolesCalls atomic.Int32
	usersCalls atomic.Int32
}

var _ interfaces.EmitterClient = &fakeEmitter{}

func newFakeEmitter(roles model.RoleMap, users ...model.UserRecord) *fakeEmitter {
	return &fakeEmitter{configured: true, roles: roles, users: users}
}

func (f *fakeEmitter) Configured() bool { return f.configured }

func (f *fakeEmitter) FetchRoles(ctx context.Context) (model.RoleMap, error) {
	f.rolesCalls.Add(1)
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return f.roles, nil
}

func (f *fakeEmitter) FetchUsers(ctx context.Context) ([]model.RemoteUser, error) {
	f.usersCalls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	if f.rawUsers != nil {
		return model.DecodeUserRecords(f.rawUsers), nil
	}
	out := make([]model.RemoteUser, len(f.users))
	for i, u := range f.users {
		out[i].Record = u
	}
	return out, nil
}

func (f *fakeEmitter) FetchDiagnostics(ctx context.Context) (*model.Diagnostics, error) {
	return &model.Diagnostics{}, nil
}

type recordingSink struct {
	mu      sync.Mutex
	reports []*model.SyncReport
}

func (s *recordingSink) Publish(ctx context.Context, report *model.SyncReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

func (s *recordingSink) Reports() []*model.SyncReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.SyncReport(nil), s.reports...)
}

type recordingCache struct {
	mu  sync.Mutex
	ids []model.UserID
}

func (c *recordingCache) Invalidate(id model.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
}

// faultyRepository overrides parts of a working repository with failures
type faultyRepository struct {
	interfaces.Repository
	users interfaces.UserRepository
	roles interfaces.RoleRepository
}

func (r *faultyRepository) User() interfaces.UserRepository {
	if r.users != nil {
		return r.users
	}
	return r.Repository.User()
}

func (r *faultyRepository) Role() interfaces.RoleRepository {
	if r.roles != nil {
		return r.roles
	}
	return r.Repository.Role()
}

type faultyUsers struct {
	interfaces.UserRepository
	failLogin  string
	panicLogin string
	failWrites bool
	writes     atomic.Int32
}

func (f *faultyUsers) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	switch login {
	case f.panicLogin:
		panic("corrupted row")
	case f.failLogin:
		return nil, errStorageDown
	}
	return f.UserRepository.GetByLogin(ctx, login)
}

func (f *faultyUsers) Create(ctx context.Context, user *model.User) error {
	f.writes.Add(1)
	if f.failWrites {
		return errStorageDown
	}
	return f.UserRepository.Create(ctx, user)
}

func (f *faultyUsers) Update(ctx context.Context, user *model.User) error {
	f.writes.Add(1)
	if f.failWrites {
		return errStorageDown
	}
	return f.UserRepository.Update(ctx, user)
}

func (f *faultyUsers) PutMeta(ctx context.Context, id model.UserID, meta map[string]any) error {
	f.writes.Add(1)
	return f.UserRepository.PutMeta(ctx, id, meta)
}

func (f *faultyUsers) SetCapabilities(ctx context.Context, id model.UserID, caps model.CapabilityMap, level int) error {
	f.writes.Add(1)
	return f.UserRepository.SetCapabilities(ctx, id, caps, level)
}

type faultyRoles struct {
	interfaces.RoleRepository
	failKey string
}

func (f *faultyRoles) Get(ctx context.Context, key string) (*model.Role, error) {
	if key == f.failKey {
		return nil, errStorageDown
	}
	return f.RoleRepository.Get(ctx, key)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
