package usecase

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ExportUseCase serves the emitter side of the protocol.
type ExportUseCase struct {
	repo         interfaces.Repository
	activity     *ActivityLogger
	policy       Policy
	exportFilter MetaFilter
	now          func() time.Time
	mode         types.Mode
	site         model.DiagnosticsSite
}

func NewExportUseCase(repo interfaces.Repository, activity *ActivityLogger, policy Policy, exportFilter MetaFilter, now func() time.Time, mode types.Mode, site model.DiagnosticsSite) *ExportUseCase {
	return &ExportUseCase{
		repo:         repo,
		activity:     activity,
		policy:       policy,
		exportFilter: exportFilter,
		now:          now,
		mode:         mode,
		site:         site,
	}
}

// RequestInfo identifies the caller of an export endpoint in the activity log
type RequestInfo struct {
	RemoteAddr string
	UserAgent  string
}

type requestInfoKey struct{}

// WithRequestInfo attaches info to ctx so that exports record who pulled them
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func requestDetails(ctx context.Context, details map[string]any) map[string]any {
	if info, ok := ctx.Value(requestInfoKey{}).(RequestInfo); ok {
		details["remote_addr"] = info.RemoteAddr
		details["user_agent"] = info.UserAgent
	}
	return details
}

// Users returns the export records of every local account that holds none
// of excludeRoles. With onlyActive, accounts whose last_login is older than
// the policy's InactiveAfter are dropped. Every call is recorded in the
// activity log.
func (uc *ExportUseCase) Users(ctx context.Context, excludeRoles []string, onlyActive bool) ([]model.UserRecord, error) {
	records, total, err := uc.collect(ctx, excludeRoles, onlyActive)
	if err != nil {
		uc.activity.Log(ctx, types.LogTypeError, "Failed to export users", requestDetails(ctx, map[string]any{
			"error": err.Error(),
		}))
		return nil, err
	}

	if len(records) == 0 {
		uc.activity.Log(ctx, types.LogTypeWarning, "No users exported", requestDetails(ctx, map[string]any{
			"exclude_roles": excludeRoles,
			"only_active":   onlyActive,
			"total_users":   total,
		}))
	} else {
		uc.activity.Log(ctx, types.LogTypeInfo, "Users exported", requestDetails(ctx, map[string]any{
			"count": len(records),
		}))
	}
	return records, nil
}

func (uc *ExportUseCase) collect(ctx context.Context, excludeRoles []string, onlyActive bool) ([]model.UserRecord, int, error) {
	users, err := uc.repo.User().List(ctx, interfaces.ListUsersOption{ExcludeRoles: excludeRoles})
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list users")
	}

	roles, err := uc.roleMap(ctx)
	if err != nil {
		return nil, 0, err
	}

	now := uc.now()
	records := make([]model.UserRecord, 0, len(users))
	for _, user := range users {
		if onlyActive && !uc.isActive(user, now) {
			continue
		}
		records = append(records, uc.toRecord(user, roles))
	}
	return records, len(users), nil
}

// Roles returns every local role, system roles included
func (uc *ExportUseCase) Roles(ctx context.Context) (model.RoleMap, error) {
	roles, err := uc.roleMap(ctx)
	if err != nil {
		uc.activity.Log(ctx, types.LogTypeError, "Failed to export roles", requestDetails(ctx, map[string]any{
			"error": err.Error(),
		}))
		return nil, err
	}

	if len(roles) == 0 {
		uc.activity.Log(ctx, types.LogTypeWarning, "No roles exported", requestDetails(ctx, map[string]any{}))
	} else {
		uc.activity.Log(ctx, types.LogTypeInfo, "Roles exported", requestDetails(ctx, map[string]any{
			"count": len(roles),
		}))
	}
	return roles, nil
}

// Diagnostics builds the payload of the debug endpoint.
func (uc *ExportUseCase) Diagnostics(ctx context.Context, excludeRoles []string, onlyActive bool) (*model.Diagnostics, error) {
	count, err := uc.repo.User().Count(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count users")
	}

	roles, err := uc.roleMap(ctx)
	if err != nil {
		return nil, err
	}

	all, err := uc.repo.User().List(ctx, interfaces.ListUsersOption{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}
	filtered, err := uc.repo.User().List(ctx, interfaces.ListUsersOption{ExcludeRoles: excludeRoles})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}
	exported, _, err := uc.collect(ctx, excludeRoles, onlyActive)
	if err != nil {
		return nil, err
	}

	site := uc.site
	site.GoVersion = runtime.Version()
	if excludeRoles == nil {
		excludeRoles = []string{}
	}

	return &model.Diagnostics{
		SiteInfo: site,
		Settings: model.DiagnosticsSettings{
			Mode:            uc.mode.String(),
			ExcludeRoles:    excludeRoles,
			OnlyActiveUsers: onlyActive,
		},
		UsersCount: count,
		Roles:      roles.Keys(),
		TestQuery: model.DiagnosticsQuery{
			AllUsers:    len(all),
			WithExclude: len(filtered),
			Exported:    len(exported),
		},
	}, nil
}

func (uc *ExportUseCase) roleMap(ctx context.Context) (model.RoleMap, error) {
	list, err := uc.repo.Role().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list roles")
	}

	roles := make(model.RoleMap, len(list))
	for _, r := range list {
		role := r.Clone()
		if role.Capabilities == nil {
			role.Capabilities = model.CapabilityMap{}
		}
		roles[role.Key] = role
	}
	return roles, nil
}

// isActive reports false only for a last_login older than InactiveAfter or
// one that cannot be read as a timestamp.
func (uc *ExportUseCase) isActive(user *model.User, now time.Time) bool {
	v, ok := user.Meta[MetaLastLogin]
	if !ok || v == nil || v == "" {
		return true
	}
	lastLogin, err := model.TimestampValue(v)
	if err != nil {
		return false
	}
	return now.Sub(lastLogin) <= uc.policy.InactiveAfter
}

func (uc *ExportUseCase) toRecord(user *model.User, roles model.RoleMap) model.UserRecord {
	roleKeys := user.RoleKeys(func(key string) bool {
		_, ok := roles[key]
		return ok || uc.policy.IsSystemRole(key)
	})
	if roleKeys == nil {
		roleKeys = []string{}
	}

	meta := filterMeta(user.Meta, uc.exportFilter)
	meta[uc.policy.CapabilitiesKey()] = maps.Clone(user.Capabilities)
	meta[uc.policy.UserLevelKey()] = user.Level

	return model.UserRecord{
		ExternalID:   model.ExternalID(user.ID),
		Login:        user.Login,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Nicename:     model.Ptr(user.Nicename),
		URL:          model.Ptr(user.URL),
		RegisteredAt: model.Ptr(user.RegisteredAt.UTC().Format(model.DateTimeLayout)),
		DisplayName:  model.Ptr(user.DisplayName),
		FirstName:    model.Ptr(metaString(user.Meta, "first_name")),
		LastName:     model.Ptr(metaString(user.Meta, "last_name")),
		Description:  model.Ptr(metaString(user.Meta, "description")),
		Roles:        model.RoleList(roleKeys),
		Capabilities: model.EffectiveCapabilities(user.Capabilities, roles),
		Meta:         model.Meta(meta),
	}
}

func metaString(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
