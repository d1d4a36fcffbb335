package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

const (
	usersCollection        = "users"
	rolesCollection        = "roles"
	activityLogsCollection = "activity_logs"
)

type Firestore struct {
	client      *firestore.Client
	user        *userRepository
	role        *roleRepository
	activityLog *activityLogRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix isolates every collection under "<prefix>_<name>".
// Used by tests sharing a database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.user.collectionPrefix = prefix
		f.role.collectionPrefix = prefix
		f.activityLog.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:      client,
		user:        newUserRepository(client),
		role:        newRoleRepository(client),
		activityLog: newActivityLogRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.user
}

func (f *Firestore) Role() interfaces.RoleRepository {
	return f.role
}

func (f *Firestore) ActivityLog() interfaces.ActivityLogRepository {
	return f.activityLog
}

func (f *Firestore) Ping(ctx context.Context) error {
	iter := f.role.collection().Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return goerr.Wrap(err, "failed to reach firestore")
	}
	return nil
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func prefixed(client *firestore.Client, prefix, name string) *firestore.CollectionRef {
	if prefix != "" {
		return client.Collection(prefix + "_" + name)
	}
	return client.Collection(name)
}
