package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postpilothq/postpilot/internal/models"
)

type ActivityRepository interface {
	Create(ctx context.Context, record *models.ActivityRecord) (int64, error)
	ListByBotID(ctx context.Context, botID int64) ([]*models.ActivityRecord, error)
}

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, record *models.ActivityRecord) (int64, error) {
	query := `
		INSERT INTO activity_records (bot_id, platform, action, content_snippet, external_id, success, error_message, credits_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		record.BotID, record.Platform, record.Action, record.ContentSnippet,
		record.ExternalID, record.Success, record.ErrorMessage, record.CreditsUsed,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *activityRepository) ListByBotID(ctx context.Context, botID int64) ([]*models.ActivityRecord, error) {
	query := `
		SELECT id, bot_id, platform, action, content_snippet, external_id, success, error_message, credits_used, created_at
		FROM activity_records WHERE bot_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, botID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []*models.ActivityRecord
	for rows.Next() {
		var rec models.ActivityRecord
		err := rows.Scan(&rec.ID, &rec.BotID, &rec.Platform, &rec.Action, &rec.ContentSnippet,
			&rec.ExternalID, &rec.Success, &rec.ErrorMessage, &rec.CreditsUsed, &rec.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
