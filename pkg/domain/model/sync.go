package model

import (
	"fmt"
	"time"
)

// Outcome is the result of applying a single remote user record.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeErrors  Outcome = "errors"
)

// SyncStats counts record outcomes over one sync pass.
type SyncStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Add increments the counter for o. Unknown outcomes count as errors.
func (s *SyncStats) Add(o Outcome) {
	switch o {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Errors++
	}
}

// Total returns the number of records counted
func (s SyncStats) Total() int {
	return s.Created + s.Updated + s.Skipped + s.Errors
}

func (s SyncStats) Summary() string {
	return fmt.Sprintf("Sync completed: %d created, %d updated, %d skipped, %d errors",
		s.Created, s.Updated, s.Skipped, s.Errors)
}

// SyncReport is returned to whoever triggered a sync pass. A failed pass
// carries only Success=false and Message.
type SyncReport struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message"`
	Stats          *SyncStats `json:"stats,omitempty"`
	TotalProcessed int        `json:"total_processed"`
	RolesCreated   int        `json:"roles_created"`
	Trigger        string     `json:"trigger,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     time.Time  `json:"finished_at"`
}

// Duration of the pass
func (r *SyncReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ConnectionStatus classifies the result of a connection test.
type ConnectionStatus string

const (
	ConnectionOK           ConnectionStatus = "ok"
	ConnectionNotReady     ConnectionStatus = "not_configured"
	ConnectionUnauthorized ConnectionStatus = "unauthorized"
	ConnectionNotFound     ConnectionStatus = "not_found"
	ConnectionHTTPError    ConnectionStatus = "http_error"
	ConnectionTLSError     ConnectionStatus = "tls"
	ConnectionTimeout      ConnectionStatus = "timeout"
	ConnectionFailed       ConnectionStatus = "connection"
	ConnectionParseError   ConnectionStatus = "parse"
)

// ConnectionResult is the outcome of probing an emitter's roles endpoint.
type ConnectionResult struct {
	Success    bool             `json:"success"`
	Status     ConnectionStatus `json:"status"`
	Message    string           `json:"message"`
	HTTPStatus int              `json:"http_status,omitempty"`
	RoleCount  int              `json:"role_count,omitempty"`
}
