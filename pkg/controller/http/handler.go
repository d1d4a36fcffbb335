package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/Octonove/octo-user-copy/pkg/utils/errutil"
	"github.com/Octonove/octo-user-copy/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to encode JSON response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	safe.Write(ctx, w, body)
}

func (s *Server) usersHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.export.Users(r.Context(), s.emitter.ExcludeRoles, s.emitter.OnlyActive)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, records)
}

func (s *Server) rolesHandler(w http.ResponseWriter, r *http.Request) {
	roles, err := s.export.Roles(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, roles)
}

func (s *Server) debugHandler(w http.ResponseWriter, r *http.Request) {
	diag, err := s.export.Diagnostics(r.Context(), s.emitter.ExcludeRoles, s.emitter.OnlyActive)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, diag)
}

// syncHandler runs a manual pass. The pass outlives a disconnecting client.
func (s *Server) syncHandler(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	report := s.sync.Run(ctx, usecase.TriggerManual)
	writeJSON(r.Context(), w, http.StatusOK, report)
}

func (s *Server) testConnectionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, s.sync.TestConnection(r.Context()))
}

func (s *Server) logsHandler(w http.ResponseWriter, r *http.Request) {
	limit := usecase.DefaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errutil.WriteJSONError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, usecase.MaxLogLimit)
	}

	logs, err := s.logs.List(r.Context(), limit)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, logs)
}
