package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/repository/firestore"
	"github.com/Octonove/octo-user-copy/pkg/repository/memory"
	pgrepo "github.com/Octonove/octo-user-copy/pkg/repository/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/m-mizutani/gt"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce      sync.Once
	pgContainer *tcpostgres.PostgresContainer
	pgDSN       string
	pgErr       error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate postgres container: %v\n", err)
		}
	}
	os.Exit(code)
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

// newPostgresRepository starts one shared container per test binary and
// empties every table before handing out a repository.
func newPostgresRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("TEST_INTEGRATION not set")
	}

	ctx := context.Background()
	pgOnce.Do(func() {
		pgContainer, pgErr = tcpostgres.Run(ctx,
			"docker.io/postgres:17-alpine",
			tcpostgres.WithDatabase("octo_uc_test"),
			tcpostgres.WithUsername("octo"),
			tcpostgres.WithPassword("octo"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if pgErr != nil {
			return
		}
		pgDSN, pgErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if pgErr != nil {
			return
		}
		pgErr = pgrepo.Migrate(ctx, pgDSN)
	})
	gt.NoError(t, pgErr).Required()

	conn, err := pgx.Connect(ctx, pgDSN)
	gt.NoError(t, err).Required()
	_, err = conn.Exec(ctx, "TRUNCATE users, roles, activity_logs")
	gt.NoError(t, err).Required()
	gt.NoError(t, conn.Close(ctx)).Required()

	repo, err := pgrepo.New(ctx, pgDSN)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close postgres repository: %v", err)
		}
	})
	return repo
}

// backends lists every repository implementation the shared tests run on
var backends = []struct {
	name    string
	newRepo func(t *testing.T) interfaces.Repository
}{
	{name: "Memory", newRepo: newMemoryRepository},
	{name: "Firestore", newRepo: newFirestoreRepository},
	{name: "Postgres", newRepo: newPostgresRepository},
}
