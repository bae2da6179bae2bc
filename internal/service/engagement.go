package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/transfer"
)

// engagementWindow is how far back the collector looks for published posts.
const engagementWindow = 7 * 24 * time.Hour

type EngagementService interface {
	Collect(ctx context.Context) (*transfer.EngagementSummary, error)
}

type engagementService struct {
	pr       repository.PostRepository
	cn       repository.ConnectionRepository
	er       repository.EngagementRepository
	vault    *CredentialVault
	registry *platforms.Registry
	now      func() time.Time
}

func NewEngagementService(
	pr repository.PostRepository,
	cn repository.ConnectionRepository,
	er repository.EngagementRepository,
	vault *CredentialVault,
	registry *platforms.Registry) EngagementService {
	return &engagementService{
		pr:       pr,
		cn:       cn,
		er:       er,
		vault:    vault,
		registry: registry,
		now:      time.Now,
	}
}

// Collect scans recently published posts, fetches per-externalId metrics from
// each platform, and upserts both the per-post record and the daily
// aggregate. Individual fetch failures are counted, never fatal.
func (s *engagementService) Collect(ctx context.Context) (*transfer.EngagementSummary, error) {
	posts, err := s.pr.ListPublishedSince(ctx, s.now().Add(-engagementWindow))
	if err != nil {
		return nil, err
	}

	summary := &transfer.EngagementSummary{PostsScanned: len(posts)}
	dailies := make(map[dailyKey]*models.DailyEngagement)

	for _, post := range posts {
		for platform, result := range post.PublishResults {
			if !result.Success || result.ExternalID == "" {
				continue
			}

			eng, err := s.fetch(ctx, post.BotID, platform, result.ExternalID)
			if err != nil {
				slog.Info(err.Error())
				summary.Errors++
				continue
			}

			weights := platforms.ScoreWeights(platform)
			score := Score(eng, weights)

			rec := &models.EngagementRecord{
				BotID:      post.BotID,
				Platform:   platform,
				ExternalID: result.ExternalID,
				Likes:      eng.Likes,
				Comments:   eng.Comments,
				Shares:     eng.Shares,
				Score:      score,
			}
			if err := s.er.UpsertRecord(ctx, rec); err != nil {
				summary.Errors++
				continue
			}
			summary.EngagementCollected++

			day := truncateToDay(s.now())
			key := dailyKey{botID: post.BotID, platform: platform, day: day}
			agg, ok := dailies[key]
			if !ok {
				agg = &models.DailyEngagement{BotID: post.BotID, Platform: platform, Day: day}
				dailies[key] = agg
			}
			agg.Likes += eng.Likes
			agg.Comments += eng.Comments
			agg.Shares += eng.Shares
			agg.Score += score
			agg.Posts++
		}
	}

	for _, agg := range dailies {
		if err := s.er.UpsertDaily(ctx, agg); err != nil {
			summary.Errors++
		}
	}

	return summary, nil
}

func (s *engagementService) fetch(ctx context.Context, botID int64, platform, externalID string) (*platforms.Engagement, error) {
	conn, err := s.cn.GetByBotAndPlatform(ctx, botID, platform)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.Status != models.ConnectionStatusConnected {
		return nil, errNotConnected(platform)
	}

	creds, err := s.vault.Decrypt(conn)
	if err != nil {
		return nil, err
	}

	adapter, err := s.registry.Get(platform)
	if err != nil {
		return nil, err
	}

	return adapter.FetchEngagement(ctx, creds, externalID)
}

// Score applies a platform's weighted engagement formula.
func Score(eng *platforms.Engagement, weights platforms.EngagementWeights) float64 {
	return float64(eng.Likes)*weights.Likes +
		float64(eng.Comments)*weights.Comments +
		float64(eng.Shares)*weights.Shares
}

type dailyKey struct {
	botID    int64
	platform string
	day      time.Time
}

type errNotConnected string

func (e errNotConnected) Error() string {
	return string(e) + " not connected"
}
