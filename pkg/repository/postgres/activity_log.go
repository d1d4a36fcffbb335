package postgres

import (
	"context"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/domain/types"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
)

type activityLogRepository struct {
	pool *pgxpool.Pool
}

var _ interfaces.ActivityLogRepository = &activityLogRepository{}

func (r *activityLogRepository) Append(ctx context.Context, entry *model.ActivityLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activity_logs (id, logged_at, type, message, details) VALUES ($1, $2, $3, $4, $5)`,
		string(entry.ID), entry.Timestamp, entry.Type.String(), entry.Message, entry.Details,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to append activity log", goerr.V("id", entry.ID))
	}
	return nil
}

func (r *activityLogRepository) List(ctx context.Context, limit int) ([]*model.ActivityLog, error) {
	query := `SELECT id, logged_at, type, message, details FROM activity_logs ORDER BY logged_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list activity logs")
	}
	defer rows.Close()

	var entries []*model.ActivityLog
	for rows.Next() {
		var (
			entry   model.ActivityLog
			id      string
			logType string
		)
		if err := rows.Scan(&id, &entry.Timestamp, &logType, &entry.Message, &entry.Details); err != nil {
			return nil, goerr.Wrap(err, "failed to scan activity log")
		}
		entry.ID = model.ActivityLogID(id)
		entry.Type = types.LogType(logType)
		entry.Timestamp = entry.Timestamp.UTC()
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate activity logs")
	}
	return entries, nil
}
