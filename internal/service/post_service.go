package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/transfer"
)

const scheduledTimeLayout = "2006-01-02T15:04"

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, time.Duration, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	Cancel(ctx context.Context, userID, postID int64) error
}

type postService struct {
	pr  repository.PostRepository
	br  repository.BotRepository
	ma  repository.MediaAssetRepository
	now func() time.Time
}

func NewPostService(pr repository.PostRepository, br repository.BotRepository, ma repository.MediaAssetRepository) PostService {
	return &postService{
		pr:  pr,
		br:  br,
		ma:  ma,
		now: time.Now,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, time.Duration, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, 0, err
	}
	if pc.Content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return 0, 0, err
	}
	if len(pc.Platforms) == 0 {
		err := errors.New("no platforms selected")
		slog.Info(err.Error())
		return 0, 0, err
	}

	for _, platform := range pc.Platforms {
		if _, ok := platforms.Lookup(platform); !ok {
			return 0, 0, fmt.Errorf("unknown platform %q", platform)
		}
	}

	owned, err := s.br.CheckByUserID(ctx, pc.BotID, userID)
	if err != nil {
		return 0, 0, err
	}
	if !owned {
		return 0, 0, errors.New("bot not found")
	}

	post := models.Post{
		BotID:       pc.BotID,
		Content:     pc.Content,
		ContentType: pc.ContentType,
		Platforms:   pc.Platforms,
		Status:      models.PostStatusScheduled,
	}
	if post.ContentType == "" {
		post.ContentType = models.ContentTypeText
	}

	if pc.MediaID != 0 {
		asset, err := s.ma.GetByID(ctx, pc.MediaID)
		if err != nil {
			return 0, 0, err
		}
		if asset == nil {
			return 0, 0, errors.New("media asset not found")
		}
		post.MediaID = sql.NullInt64{Int64: pc.MediaID, Valid: true}
		if post.ContentType == models.ContentTypeText {
			post.ContentType = asset.Type
		}
	}

	now := s.now()
	if pc.ScheduledAt != "" {
		scheduledAt, err := time.ParseInLocation(scheduledTimeLayout, pc.ScheduledAt, now.Location())
		if err != nil {
			err = fmt.Errorf("invalid scheduled time format: %w", err)
			slog.Error(err.Error())
			return 0, 0, err
		}
		if scheduledAt.Before(now) {
			return 0, 0, errors.New("scheduled time is in the past")
		}
		post.ScheduledAt = &scheduledAt
	} else {
		t := NextOptimalTime(pc.Platforms, now)
		post.ScheduledAt = &t
	}

	id, err := s.pr.Create(ctx, nil, &post)
	if err != nil {
		return 0, 0, err
	}

	return id, post.ScheduledAt.Sub(now), nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	return s.pr.ListByUserID(ctx, userID)
}

func (s *postService) Cancel(ctx context.Context, userID, postID int64) error {
	cancelled, err := s.pr.Cancel(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !cancelled {
		return errors.New("post cannot be cancelled")
	}
	return nil
}
