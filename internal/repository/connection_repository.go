package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type ConnectionRepository interface {
	GetByBotAndPlatform(ctx context.Context, botID int64, platform string) (*models.PlatformConnection, error)
	ListByStatus(ctx context.Context, status string) ([]*models.PlatformConnection, error)
	UpdateStatus(ctx context.Context, id int64, status, lastError string) error
	UpdateLastError(ctx context.Context, id int64, lastError string) error
	UpdateCredentials(ctx context.Context, id int64, creds models.CredentialMap) error
	RecordPost(ctx context.Context, id int64, at time.Time) error
	ResetDailyCounters(ctx context.Context) (int64, error)
}

type connectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

const connectionColumns = `id, bot_id, platform, credentials, config, status, last_error, last_post_at, posts_today, replies_today, created_at, updated_at`

func scanConnection(row interface{ Scan(...interface{}) error }) (*models.PlatformConnection, error) {
	var c models.PlatformConnection
	err := row.Scan(
		&c.ID, &c.BotID, &c.Platform, &c.Credentials, &c.Config, &c.Status,
		&c.LastError, &c.LastPostAt, &c.PostsToday, &c.RepliesToday,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *connectionRepository) GetByBotAndPlatform(ctx context.Context, botID int64, platform string) (*models.PlatformConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM platform_connections WHERE bot_id = $1 AND platform = $2`
	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, botID, platform))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return conn, nil
}

func (r *connectionRepository) ListByStatus(ctx context.Context, status string) ([]*models.PlatformConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM platform_connections WHERE status = $1 ORDER BY platform, bot_id`
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var conns []*models.PlatformConnection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

func (r *connectionRepository) UpdateStatus(ctx context.Context, id int64, status, lastError string) error {
	query := `UPDATE platform_connections SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, status, lastError, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) UpdateLastError(ctx context.Context, id int64, lastError string) error {
	query := `UPDATE platform_connections SET last_error = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, lastError, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) UpdateCredentials(ctx context.Context, id int64, creds models.CredentialMap) error {
	query := `UPDATE platform_connections SET credentials = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, creds, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// RecordPost marks a successful attempt: bumps the daily counter and clears
// any stale error from a previous failure.
func (r *connectionRepository) RecordPost(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE platform_connections
		SET last_post_at = $1, posts_today = posts_today + 1, last_error = '', updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, at, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) ResetDailyCounters(ctx context.Context) (int64, error) {
	query := `UPDATE platform_connections SET posts_today = 0, replies_today = 0, updated_at = $1`
	res, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}
