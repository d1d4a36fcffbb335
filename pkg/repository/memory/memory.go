package memory

import (
	"context"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
)

type Memory struct {
	user        *userRepository
	role        *roleRepository
	activityLog *activityLogRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		user:        newUserRepository(),
		role:        newRoleRepository(),
		activityLog: newActivityLogRepository(),
	}
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) Role() interfaces.RoleRepository {
	return m.role
}

func (m *Memory) ActivityLog() interfaces.ActivityLogRepository {
	return m.activityLog
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}
