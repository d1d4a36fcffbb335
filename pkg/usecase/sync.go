package usecase

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/Octonove/octo-user-copy/pkg/service/emitter"
	"github.com/Octonove/octo-user-copy/pkg/utils/async"
	"github.com/Octonove/octo-user-copy/pkg/utils/errutil"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/singleflight"
)

// Sync triggers recorded on reports and in the activity log
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerCLI       = "cli"
)

// SyncUseCase runs pull passes against the configured emitter.
type SyncUseCase struct {
	emitter    interfaces.EmitterClient
	roles      *RoleSyncUseCase
	users      *UserSyncUseCase
	activity   *ActivityLogger
	sinks      []interfaces.ReportSink
	dispatcher *async.Dispatcher
	now        func() time.Time

	group singleflight.Group
}

func NewSyncUseCase(client interfaces.EmitterClient, roles *RoleSyncUseCase, users *UserSyncUseCase, activity *ActivityLogger, sinks []interfaces.ReportSink, dispatcher *async.Dispatcher, now func() time.Time) *SyncUseCase {
	return &SyncUseCase{
		emitter:    client,
		roles:      roles,
		users:      users,
		activity:   activity,
		sinks:      sinks,
		dispatcher: dispatcher,
		now:        now,
	}
}

// Run executes one sync pass. Callers arriving while a pass is in flight wait
// for it and receive its report instead of starting another one. Failures are
// reported through the returned report, never as an error.
func (uc *SyncUseCase) Run(ctx context.Context, trigger string) *model.SyncReport {
	v, _, shared := uc.group.Do("sync", func() (any, error) {
		return uc.run(ctx, trigger), nil
	})
	if shared {
		logging.From(ctx).Debug("Joined in-flight sync", "trigger", trigger)
	}
	return v.(*model.SyncReport)
}

func (uc *SyncUseCase) run(ctx context.Context, trigger string) *model.SyncReport {
	ctx = logging.With(ctx, logging.From(ctx).With("trigger", trigger))
	started := uc.now()

	report := uc.execute(ctx, trigger)
	report.Trigger = trigger
	report.StartedAt = started.UTC()
	report.FinishedAt = uc.now().UTC()

	result := "failure"
	if report.Success {
		result = "success"
		syncLastSuccess.Set(float64(report.FinishedAt.Unix()))
	}
	syncRunsTotal.WithLabelValues(result).Inc()
	syncDuration.Observe(report.Duration().Seconds())

	uc.publish(ctx, report)
	return report
}

func (uc *SyncUseCase) execute(ctx context.Context, trigger string) *model.SyncReport {
	if uc.emitter == nil || !uc.emitter.Configured() {
		uc.activity.Log(ctx, types.LogTypeError, "Sync aborted: "+ErrConfigurationIncomplete.Error(), nil)
		return &model.SyncReport{Success: false, Message: ErrConfigurationIncomplete.Error()}
	}

	uc.activity.Log(ctx, types.LogTypeInfo, "Sync started", map[string]any{"trigger": trigger})

	remoteRoles, err := uc.emitter.FetchRoles(ctx)
	if err != nil {
		return uc.fail(ctx, "Failed to fetch roles", err)
	}
	rolesCreated := uc.roles.Reconcile(ctx, remoteRoles)
	syncRolesCreatedTotal.Add(float64(rolesCreated))

	records, err := uc.emitter.FetchUsers(ctx)
	if err != nil {
		return uc.fail(ctx, "Failed to fetch users", err)
	}

	var stats model.SyncStats
	for _, remote := range records {
		var outcome model.Outcome
		if remote.Err != nil {
			outcome = uc.reject(ctx, remote.Err)
		} else {
			outcome = uc.apply(ctx, remote.Record)
		}
		stats.Add(outcome)
		syncRecordsTotal.WithLabelValues(string(outcome)).Inc()
	}

	msg := stats.Summary()
	uc.activity.Log(ctx, types.LogTypeSuccess, msg, map[string]any{
		"created":       stats.Created,
		"updated":       stats.Updated,
		"skipped":       stats.Skipped,
		"errors":        stats.Errors,
		"roles_created": rolesCreated,
	})

	return &model.SyncReport{
		Success:        true,
		Message:        msg,
		Stats:          &stats,
		TotalProcessed: len(records),
		RolesCreated:   rolesCreated,
	}
}

// apply upserts one record. A panic is confined to that record.
func (uc *SyncUseCase) apply(ctx context.Context, rec model.UserRecord) (outcome model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := goerr.New("panic while applying user record",
				goerr.V("panic", r),
				goerr.V("user_login", rec.Login))
			_ = errutil.Handle(ctx, err, "user upsert panicked")
			uc.activity.Log(ctx, types.LogTypeError, "Failed to sync user", map[string]any{
				"user_login": rec.Login,
				"error":      fmt.Sprint(r),
			})
			outcome = model.OutcomeErrors
		}
	}()
	return uc.users.Upsert(ctx, rec)
}

// reject counts an element of the users array that could not be decoded.
func (uc *SyncUseCase) reject(ctx context.Context, err error) model.Outcome {
	logging.From(ctx).Warn("Skipping undecodable user record", "error", err.Error())
	uc.activity.Log(ctx, types.LogTypeError, "Failed to sync user", map[string]any{
		"error": err.Error(),
	})
	return model.OutcomeErrors
}

func (uc *SyncUseCase) fail(ctx context.Context, msg string, err error) *model.SyncReport {
	logging.From(ctx).Error(msg, "error", err.Error())
	uc.activity.Log(ctx, types.LogTypeError, msg, map[string]any{"error": err.Error()})
	return &model.SyncReport{Success: false, Message: err.Error()}
}

func (uc *SyncUseCase) publish(ctx context.Context, report *model.SyncReport) {
	for _, sink := range uc.sinks {
		uc.dispatcher.Dispatch(ctx, "publish_sync_report", func(ctx context.Context) error {
			return sink.Publish(ctx, report)
		})
	}
}

// TestConnection probes the roles endpoint of the emitter without writing
// anything locally.
func (uc *SyncUseCase) TestConnection(ctx context.Context) *model.ConnectionResult {
	if uc.emitter == nil || !uc.emitter.Configured() {
		return &model.ConnectionResult{
			Status:  model.ConnectionNotReady,
			Message: "Emitter URL and API key must be configured",
		}
	}

	roles, err := uc.emitter.FetchRoles(ctx)
	if err != nil {
		result := classifyConnectionError(err)
		uc.activity.Log(ctx, types.LogTypeError, "Connection test failed", map[string]any{
			"status": string(result.Status),
			"error":  err.Error(),
		})
		return result
	}

	uc.activity.Log(ctx, types.LogTypeSuccess, "Connection test succeeded", map[string]any{
		"roles": len(roles),
	})
	return &model.ConnectionResult{
		Success:    true,
		Status:     model.ConnectionOK,
		Message:    fmt.Sprintf("Connection successful: %d roles available", len(roles)),
		HTTPStatus: 200,
		RoleCount:  len(roles),
	}
}

func classifyConnectionError(err error) *model.ConnectionResult {
	result := &model.ConnectionResult{}
	var reqErr *emitter.RequestError
	if errors.As(err, &reqErr) {
		result.HTTPStatus = reqErr.StatusCode
	}

	switch {
	case errors.Is(err, emitter.ErrUnauthorized):
		result.Status = model.ConnectionUnauthorized
		result.Message = "Authentication failed: the API key was rejected"
	case errors.Is(err, emitter.ErrNotFound):
		result.Status = model.ConnectionNotFound
		result.Message = "Endpoint not found: check that the remote site runs in emitter mode"
	case errors.Is(err, emitter.ErrUnexpectedStatus):
		result.Status = model.ConnectionHTTPError
		result.Message = fmt.Sprintf("Unexpected HTTP status %d", result.HTTPStatus)
	case errors.Is(err, emitter.ErrInvalidPayload):
		result.Status = model.ConnectionParseError
		result.Message = "Invalid response from emitter: " + err.Error()
	case isTLSError(err):
		result.Status = model.ConnectionTLSError
		result.Message = "TLS error: " + err.Error()
	case isTimeout(err):
		result.Status = model.ConnectionTimeout
		result.Message = "Connection timed out: " + err.Error()
	default:
		result.Status = model.ConnectionFailed
		result.Message = "Connection failed: " + err.Error()
	}
	return result
}

func isTLSError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		invalidCert      x509.CertificateInvalidError
		hostname         x509.HostnameError
		verification     *tls.CertificateVerificationError
		recordHeader     tls.RecordHeaderError
	)
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &invalidCert) ||
		errors.As(err, &hostname) ||
		errors.As(err, &verification) ||
		errors.As(err, &recordHeader)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
