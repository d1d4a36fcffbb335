package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

type activityLogRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.ActivityLogRepository = &activityLogRepository{}

func newActivityLogRepository(client *firestore.Client) *activityLogRepository {
	return &activityLogRepository{
		client: client,
	}
}

type activityLogDoc struct {
	ID        string         `firestore:"id"`
	Timestamp time.Time      `firestore:"timestamp"`
	Type      string         `firestore:"type"`
	Message   string         `firestore:"message"`
	Details   map[string]any `firestore:"details,omitempty"`
}

func (r *activityLogRepository) collection() *firestore.CollectionRef {
	return prefixed(r.client, r.collectionPrefix, activityLogsCollection)
}

func (r *activityLogRepository) Append(ctx context.Context, entry *model.ActivityLog) error {
	doc := &activityLogDoc{
		ID:        string(entry.ID),
		Timestamp: entry.Timestamp,
		Type:      entry.Type.String(),
		Message:   entry.Message,
		Details:   entry.Details,
	}
	if _, err := r.collection().Doc(doc.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to append activity log", goerr.V("id", entry.ID))
	}
	return nil
}

func (r *activityLogRepository) List(ctx context.Context, limit int) ([]*model.ActivityLog, error) {
	q := r.collection().OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var entries []*model.ActivityLog
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate activity logs")
		}

		var doc activityLogDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal activity log", goerr.V("docID", snap.Ref.ID))
		}
		entries = append(entries, &model.ActivityLog{
			ID:        model.ActivityLogID(doc.ID),
			Timestamp: doc.Timestamp,
			Type:      types.LogType(doc.Type),
			Message:   doc.Message,
			Details:   doc.Details,
		})
	}
	return entries, nil
}
