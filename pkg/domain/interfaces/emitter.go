package interfaces

import (
	"context"

	"github.com/Octonove/octo-user-copy/pkg/domain/model"
)

// EmitterClient reads the export endpoints of a remote emitter
type EmitterClient interface {
	// Configured reports whether both the emitter URL and the API key are set
	Configured() bool

	FetchRoles(ctx context.Context) (model.RoleMap, error)
	// FetchUsers returns one entry per element of the users array. Elements
	// that fail to decode carry their error instead of failing the call.
	FetchUsers(ctx context.Context) ([]model.RemoteUser, error)
	FetchDiagnostics(ctx context.Context) (*model.Diagnostics, error)
}

// ReportSink receives the report of every finished sync pass
type ReportSink interface {
	Publish(ctx context.Context, report *model.SyncReport) error
}
