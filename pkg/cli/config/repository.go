package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/repository/cached"
	"github.com/Octonove/octo-user-copy/pkg/repository/firestore"
	"github.com/Octonove/octo-user-copy/pkg/repository/memory"
	"github.com/Octonove/octo-user-copy/pkg/repository/postgres"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend          string
	projectID        string
	databaseID       string
	collectionPrefix string
	postgresDSN      string
	cacheSize        int
	cacheTTL         time.Duration
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, firestore or postgres)",
			Value:       BackendMemory,
			Category:    "Repository",
			Sources:     cli.EnvVars("OCTO_UC_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("OCTO_UC_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("OCTO_UC_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix added to every Firestore collection name",
			Category:    "Repository",
			Sources:     cli.EnvVars("OCTO_UC_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
		&cli.StringFlag{
			Name:        "postgres-dsn",
			Usage:       "Postgres connection URL (required when using postgres backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("OCTO_UC_POSTGRES_DSN"),
			Destination: &r.postgresDSN,
		},
		&cli.IntFlag{
			Name:        "user-cache-size",
			Usage:       "Number of accounts kept in the in-process cache (0 disables it)",
			Value:       0,
			Category:    "Repository",
			Sources:     cli.EnvVars("OCTO_UC_USER_CACHE_SIZE"),
			Destination: &r.cacheSize,
		},
		&cli.DurationFlag{
			Name:        "user-cache-ttl",
			Usage:       "Lifetime of a cached account",
			Value:       5 * time.Minute,
			Category:    "Repository",
			Sources:     cli.EnvVars("OCTO_UC_USER_CACHE_TTL"),
			Destination: &r.cacheTTL,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// CollectionPrefix returns the Firestore collection name prefix
func (r *Repository) CollectionPrefix() string {
	return r.collectionPrefix
}

// PostgresDSN returns the Postgres connection URL
func (r *Repository) PostgresDSN() string {
	return r.postgresDSN
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("firestore_project_id", r.projectID),
		slog.String("firestore_database_id", r.databaseID),
		slog.Bool("postgres_dsn_set", r.postgresDSN != ""),
		slog.Int("user_cache_size", r.cacheSize),
	)
}

// Configure initializes and returns a repository based on the configured
// backend. cache is nil unless the user cache is enabled. The caller is
// responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (repo interfaces.Repository, cache interfaces.UserCache, err error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, nil, goerr.Wrap(ErrMissingRequired, "firestore-project-id is required when using firestore backend",
				goerr.V(FlagKey, "firestore-project-id"))
		}
		var opts []firestore.Option
		if r.collectionPrefix != "" {
			opts = append(opts, firestore.WithCollectionPrefix(r.collectionPrefix))
		}
		fs, err := firestore.New(ctx, r.projectID, r.databaseID, opts...)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		repo = fs

	case BackendPostgres:
		if r.postgresDSN == "" {
			return nil, nil, goerr.Wrap(ErrMissingRequired, "postgres-dsn is required when using postgres backend",
				goerr.V(FlagKey, "postgres-dsn"))
		}
		pg, err := postgres.New(ctx, r.postgresDSN)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize postgres repository")
		}
		logging.Default().Info("Using Postgres repository")
		repo = pg

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		repo = memory.New()

	default:
		return nil, nil, goerr.Wrap(ErrInvalidBackend, "unknown backend", goerr.V(BackendKey, r.backend))
	}

	if r.cacheSize > 0 {
		c := cached.New(repo, r.cacheSize, r.cacheTTL)
		logging.Default().Info("User cache enabled", "size", r.cacheSize, "ttl", r.cacheTTL)
		return c, c, nil
	}
	return repo, nil, nil
}
