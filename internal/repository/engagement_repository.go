package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type EngagementRepository interface {
	UpsertRecord(ctx context.Context, rec *models.EngagementRecord) error
	UpsertDaily(ctx context.Context, agg *models.DailyEngagement) error
}

type engagementRepository struct {
	db *sql.DB
}

func NewEngagementRepository(db *sql.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// UpsertRecord keeps one row per (platform, external_id) with the latest
// metrics; repeated collection runs overwrite rather than duplicate.
func (r *engagementRepository) UpsertRecord(ctx context.Context, rec *models.EngagementRecord) error {
	query := `
		INSERT INTO engagement_records (bot_id, platform, external_id, likes, comments, shares, score, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (platform, external_id) DO UPDATE
		SET likes = EXCLUDED.likes, comments = EXCLUDED.comments, shares = EXCLUDED.shares,
			score = EXCLUDED.score, collected_at = EXCLUDED.collected_at
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.BotID, rec.Platform, rec.ExternalID, rec.Likes, rec.Comments, rec.Shares, rec.Score, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *engagementRepository) UpsertDaily(ctx context.Context, agg *models.DailyEngagement) error {
	query := `
		INSERT INTO daily_engagement (bot_id, platform, day, likes, comments, shares, score, posts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (bot_id, platform, day) DO UPDATE
		SET likes = EXCLUDED.likes, comments = EXCLUDED.comments, shares = EXCLUDED.shares,
			score = EXCLUDED.score, posts = EXCLUDED.posts
	`
	_, err := r.db.ExecContext(ctx, query,
		agg.BotID, agg.Platform, agg.Day, agg.Likes, agg.Comments, agg.Shares, agg.Score, agg.Posts)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type StatsRepository interface {
	IncrementDailyPosts(ctx context.Context, botID int64, day time.Time) error
}

type statsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

// IncrementDailyPosts upserts the per-(bot, day) counter so the first post of
// the day creates the row and later ones increment it.
func (r *statsRepository) IncrementDailyPosts(ctx context.Context, botID int64, day time.Time) error {
	query := `
		INSERT INTO bot_daily_stats (bot_id, day, posts_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (bot_id, day) DO UPDATE SET posts_count = bot_daily_stats.posts_count + 1
	`
	_, err := r.db.ExecContext(ctx, query, botID, day)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
