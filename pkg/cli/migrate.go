package cli

import (
	"context"

	"github.com/Octonove/octo-user-copy/pkg/cli/config"
	"github.com/Octonove/octo-user-copy/pkg/repository/postgres"
	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool
	var seedRoles bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying (firestore only)",
			Destination: &dryRun,
		},
		&cli.BoolFlag{
			Name:        "seed-roles",
			Usage:       "Create the built-in roles missing from the store",
			Sources:     cli.EnvVars("OCTO_UC_SEED_ROLES"),
			Destination: &seedRoles,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Prepare the storage backend: Firestore indexes or Postgres schema",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"repository", repoCfg,
				"dryRun", dryRun,
				"seedRoles", seedRoles)

			switch repoCfg.Backend() {
			case config.BackendFirestore:
				if repoCfg.ProjectID() == "" {
					return goerr.Wrap(config.ErrMissingRequired, "firestore-project-id is required",
						goerr.V(config.FlagKey, "firestore-project-id"))
				}
				if err := migrateFirestore(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), repoCfg.CollectionPrefix(), dryRun); err != nil {
					return err
				}

			case config.BackendPostgres:
				if repoCfg.PostgresDSN() == "" {
					return goerr.Wrap(config.ErrMissingRequired, "postgres-dsn is required",
						goerr.V(config.FlagKey, "postgres-dsn"))
				}
				if dryRun {
					logger.Info("Dry run is not supported for postgres, nothing applied")
					return nil
				}
				if err := postgres.Migrate(ctx, repoCfg.PostgresDSN()); err != nil {
					return goerr.Wrap(err, "failed to migrate postgres schema")
				}

			case config.BackendMemory:
				logger.Info("Memory backend needs no migration")
				return nil

			default:
				return goerr.Wrap(config.ErrInvalidBackend, "unknown backend", goerr.V(config.BackendKey, repoCfg.Backend()))
			}

			if !seedRoles || dryRun {
				return nil
			}
			return seedDefaultRoles(ctx, &repoCfg)
		},
	}
}

func seedDefaultRoles(ctx context.Context, repoCfg *config.Repository) error {
	repo, _, err := repoCfg.Configure(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to initialize repository")
	}
	defer closeRepository(ctx, repo)

	uc := usecase.New(repo)
	created, err := uc.Roles.SeedDefaults(ctx)
	if err != nil {
		return err
	}
	logging.Default().Info("Default roles seeded", "created", created)
	return nil
}

func migrateFirestore(ctx context.Context, projectID, databaseID, prefix string, dryRun bool) error {
	logger := logging.Default()
	indexConfig := getIndexConfig(prefix)

	client, err := fireconf.NewClient(ctx, projectID, databaseID)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		plan, err := client.GetMigrationPlan(ctx, indexConfig)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}

		if len(plan.Steps) == 0 {
			logger.Info("No changes required")
			return nil
		}

		for _, step := range plan.Steps {
			logger.Info("Migration step",
				"collection", step.Collection,
				"operation", step.Operation,
				"description", step.Description,
				"destructive", step.Destructive)
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

// getIndexConfig returns the Firestore index configuration
func getIndexConfig(prefix string) *fireconf.Config {
	collection := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "_" + name
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: collection("users"),
				Indexes: []fireconf.Index{
					// GetByEmail: email_key ASC, created_at ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "email_key", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
