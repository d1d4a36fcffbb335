package usecase

import (
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/Octonove/octo-user-copy/pkg/utils/async"
)

type UseCases struct {
	repo          interfaces.Repository
	policy        Policy
	exportFilters []MetaFilter
	importFilters []MetaFilter
	emitter       interfaces.EmitterClient
	sinks         []interfaces.ReportSink
	cache         interfaces.UserCache
	now           func() time.Time
	mode          types.Mode
	site          model.DiagnosticsSite
	dispatcher    *async.Dispatcher

	Activity *ActivityLogger
	Users    *UserSyncUseCase
	Roles    *RoleSyncUseCase
	Export   *ExportUseCase
	Sync     *SyncUseCase
}

type Option func(*UseCases)

// WithPolicy replaces the default policy. Options applied after it, such as
// WithSystemRoles, still take effect.
func WithPolicy(p Policy) Option {
	return func(uc *UseCases) {
		uc.policy = p
	}
}

// WithSystemRoles sets the reserved roles that role sync never touches
func WithSystemRoles(keys ...string) Option {
	return func(uc *UseCases) {
		uc.policy.SystemRoles = keys
	}
}

// WithExportMetaFilter adds an allow rule. A meta key is exported when any
// rule allows it.
func WithExportMetaFilter(f MetaFilter) Option {
	return func(uc *UseCases) {
		uc.exportFilters = append(uc.exportFilters, f)
	}
}

// WithImportMetaFilter adds a deny rule. A meta key is imported only when
// every rule allows it.
func WithImportMetaFilter(f MetaFilter) Option {
	return func(uc *UseCases) {
		uc.importFilters = append(uc.importFilters, f)
	}
}

func WithUserCache(cache interfaces.UserCache) Option {
	return func(uc *UseCases) {
		uc.cache = cache
	}
}

func WithEmitter(client interfaces.EmitterClient) Option {
	return func(uc *UseCases) {
		uc.emitter = client
	}
}

// WithReportSinks registers destinations for the report of every sync pass
func WithReportSinks(sinks ...interfaces.ReportSink) Option {
	return func(uc *UseCases) {
		uc.sinks = append(uc.sinks, sinks...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func WithMode(mode types.Mode) Option {
	return func(uc *UseCases) {
		uc.mode = mode
	}
}

// WithSiteInfo sets what the diagnostics payload reports about this site
func WithSiteInfo(site model.DiagnosticsSite) Option {
	return func(uc *UseCases) {
		uc.site = site
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:       repo,
		policy:     DefaultPolicy(),
		now:        time.Now,
		mode:       types.ModeEmitter,
		dispatcher: &async.Dispatcher{},
	}

	for _, opt := range opts {
		opt(uc)
	}

	exportFilters := append([]MetaFilter{
		AllowKeys(uc.policy.ExportMetaKeys...),
		AllowPrefixes(uc.policy.ExportMetaPrefixes...),
	}, uc.exportFilters...)
	importFilters := append([]MetaFilter{
		DenyKeys(uc.policy.ImportDeniedMetaKeys...),
		DenyCapabilityKeys(uc.policy.CapabilitiesKey()),
		DenyKeys(uc.policy.UserLevelKey()),
	}, uc.importFilters...)

	uc.Activity = NewActivityLogger(repo.ActivityLog(), uc.now)
	uc.Users = NewUserSyncUseCase(repo, uc.Activity, AllOf(importFilters...), uc.cache, uc.now)
	uc.Roles = NewRoleSyncUseCase(repo, uc.Activity, uc.policy)
	uc.Export = NewExportUseCase(repo, uc.Activity, uc.policy, AnyOf(exportFilters...), uc.now, uc.mode, uc.site)
	uc.Sync = NewSyncUseCase(uc.emitter, uc.Roles, uc.Users, uc.Activity, uc.sinks, uc.dispatcher, uc.now)

	return uc
}

// Policy returns the effective policy
func (uc *UseCases) Policy() Policy {
	return uc.policy
}

// Wait blocks until every report published in the background is delivered
func (uc *UseCases) Wait() {
	uc.dispatcher.Wait()
}
