package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/postpilothq/postpilot/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	ListPublishedSince(ctx context.Context, since time.Time) ([]*models.Post, error)
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error)
	Claim(ctx context.Context, id int64) (bool, error)
	Finish(ctx context.Context, post *models.Post) error
	UpdateStatus(ctx context.Context, status string, postID int64) error
	Cancel(ctx context.Context, id, userID int64) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, bot_id, content, content_type, media_id, platforms, scheduled_at, status, publish_results, error_message, published_at, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID, &post.BotID, &post.Content, &post.ContentType, &post.MediaID,
		pq.Array(&post.Platforms), &post.ScheduledAt, &post.Status,
		&post.PublishResults, &post.ErrorMessage, &post.PublishedAt,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (bot_id, content, content_type, media_id, platforms, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	var err error

	args := []interface{}{post.BotID, post.Content, post.ContentType, post.MediaID, pq.Array(post.Platforms), post.ScheduledAt, post.Status}
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `
		SELECT ` + prefixedPostColumns + `
		FROM posts p
		JOIN bots b ON b.id = p.bot_id
		WHERE b.user_id = $1
		ORDER BY p.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

const prefixedPostColumns = `p.id, p.bot_id, p.content, p.content_type, p.media_id, p.platforms, p.scheduled_at, p.status, p.publish_results, p.error_message, p.published_at, p.created_at, p.updated_at`

func (r *postRepository) ListPublishedSince(ctx context.Context, since time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND published_at >= $2`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPublished, since)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ClaimDue atomically flips up to limit due posts from scheduled to
// publishing and returns them. The status filter in the inner select plus
// SKIP LOCKED makes a concurrent claim of the same post a no-op.
func (r *postRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	query := `
		UPDATE posts SET status = $1, updated_at = $2
		WHERE id IN (
			SELECT id FROM posts
			WHERE status = $3 AND scheduled_at <= $4
			ORDER BY scheduled_at ASC
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + postColumns

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPublishing, now, models.PostStatusScheduled, now, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

// Claim is the single-post variant used by the queue worker. Returns false
// when the post was already claimed, published, or cancelled.
func (r *postRepository) Claim(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *postRepository) Finish(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET status = $1, publish_results = $2, error_message = $3, published_at = $4, updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, post.Status, post.PublishResults, post.ErrorMessage, post.PublishedAt, time.Now(), post.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, status string, postID int64) error {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Cancel is the manual exit; only draft and scheduled posts can leave this way.
func (r *postRepository) Cancel(ctx context.Context, id, userID int64) (bool, error) {
	query := `
		UPDATE posts p SET status = $1, updated_at = $2
		FROM bots b
		WHERE p.id = $3 AND b.id = p.bot_id AND b.user_id = $4 AND p.status IN ($5, $6)
	`
	res, err := r.db.ExecContext(ctx, query, models.PostStatusCancelled, time.Now(), id, userID, models.PostStatusDraft, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func collectPosts(rows *sql.Rows) ([]*models.Post, error) {
	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
