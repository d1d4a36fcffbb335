package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func runActivityLogRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("List returns newest first with limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		base := time.Now().UTC().Truncate(time.Millisecond)

		messages := []string{"first", "second", "third"}
		for i, msg := range messages {
			gt.NoError(t, repo.ActivityLog().Append(ctx, &model.ActivityLog{
				ID:        model.NewActivityLogID(),
				Timestamp: base.Add(time.Duration(i) * time.Second),
				Type:      types.LogTypeInfo,
				Message:   msg,
				Details:   map[string]any{"index": "x"},
			})).Required()
		}

		entries, err := repo.ActivityLog().List(ctx, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(2)
		gt.Value(t, entries[0].Message).Equal("third")
		gt.Value(t, entries[1].Message).Equal("second")
		gt.Value(t, entries[0].Type).Equal(types.LogTypeInfo)
		gt.Value(t, entries[0].Details["index"]).Equal(any("x"))

		all, err := repo.ActivityLog().List(ctx, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(3)
	})
}

func TestActivityLogRepository(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			runActivityLogRepositoryTest(t, b.newRepo)
		})
	}
}
