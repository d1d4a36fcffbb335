package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/Octonove/octo-user-copy/pkg/utils/safe"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAPIPath is where the export endpoints are mounted
const DefaultAPIPath = "/wp-json/usercopy/v1"

// ExportUseCase serves the export endpoints
type ExportUseCase interface {
	Users(ctx context.Context, excludeRoles []string, onlyActive bool) ([]model.UserRecord, error)
	Roles(ctx context.Context) (model.RoleMap, error)
	Diagnostics(ctx context.Context, excludeRoles []string, onlyActive bool) (*model.Diagnostics, error)
}

// SyncUseCase serves the receiver admin endpoints
type SyncUseCase interface {
	Run(ctx context.Context, trigger string) *model.SyncReport
	TestConnection(ctx context.Context) *model.ConnectionResult
}

// ActivityLog lists persisted sync activity
type ActivityLog interface {
	List(ctx context.Context, limit int) ([]*model.ActivityLog, error)
}

// EmitterConfig holds the settings of the export endpoints
type EmitterConfig struct {
	APIPath      string
	APIKey       string
	ExcludeRoles []string
	OnlyActive   bool
}

type Server struct {
	router *chi.Mux

	export    ExportUseCase
	emitter   EmitterConfig
	sync      SyncUseCase
	logs      ActivityLog
	adminKey  string
	readiness func(ctx context.Context) error
}

type Options func(*Server)

// WithEmitter mounts the export endpoints
func WithEmitter(export ExportUseCase, cfg EmitterConfig) Options {
	return func(s *Server) {
		s.export = export
		s.emitter = cfg
	}
}

// WithReceiver mounts the admin endpoints guarded by adminKey. They stay
// unmounted when adminKey is empty.
func WithReceiver(sync SyncUseCase, logs ActivityLog, adminKey string) Options {
	return func(s *Server) {
		s.sync = sync
		s.logs = logs
		s.adminKey = adminKey
	}
}

// WithActivityLog mounts GET /api/logs guarded by adminKey. It serves the
// export audit trail in emitter mode and stays unmounted when adminKey is
// empty.
func WithActivityLog(logs ActivityLog, adminKey string) Options {
	return func(s *Server) {
		s.logs = logs
		s.adminKey = adminKey
	}
}

// WithReadiness makes /healthz fail while check returns an error
func WithReadiness(check func(ctx context.Context) error) Options {
	return func(s *Server) {
		s.readiness = check
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{router: r}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(metricsMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	if s.export != nil {
		apiPath := s.emitter.APIPath
		if apiPath == "" {
			apiPath = DefaultAPIPath
		}
		apiPath = "/" + strings.Trim(apiPath, "/")

		r.Route(apiPath, func(r chi.Router) {
			r.Use(apiKeyMiddleware(s.emitter.APIKey))
			r.Use(requestInfoMiddleware)
			r.Get("/users", s.usersHandler)
			r.Get("/roles", s.rolesHandler)
			r.Get("/debug", s.debugHandler)
		})
	}

	if (s.sync != nil || s.logs != nil) && s.adminKey != "" {
		r.Route("/api", func(r chi.Router) {
			r.Use(bearerAuthMiddleware(s.adminKey))
			if s.sync != nil {
				r.Post("/sync", s.syncHandler)
				r.Post("/test-connection", s.testConnectionHandler)
			}
			if s.logs != nil {
				r.Get("/logs", s.logsHandler)
			}
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.readiness != nil {
		if err := s.readiness(r.Context()); err != nil {
			logging.From(r.Context()).Warn("Readiness check failed", "error", err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			safe.Write(r.Context(), w, []byte("unavailable"))
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	safe.Write(r.Context(), w, []byte("ok"))
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(logging.With(r.Context(), logger))

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
