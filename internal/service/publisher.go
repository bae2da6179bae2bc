package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
	"github.com/postpilothq/postpilot/internal/repository"
)

const (
	maxStoredErrorLength = 500
	snippetLength        = 100
	attemptConcurrency   = 4
)

// PublishService is the dispatcher: it fans a claimed post out to its target
// platforms, settles billing and audit per attempt, and aggregates the
// per-platform outcomes into the post's terminal status.
type PublishService interface {
	PublishPost(ctx context.Context, post *models.Post) error
}

type publishService struct {
	br        repository.BotRepository
	pr        repository.PostRepository
	cn        repository.ConnectionRepository
	ma        repository.MediaAssetRepository
	ar        repository.ActivityRepository
	st        repository.StatsRepository
	credits   CreditService
	vault     *CredentialVault
	validator *ContentValidator
	media     MediaService
	registry  *platforms.Registry
}

func NewPublishService(
	br repository.BotRepository,
	pr repository.PostRepository,
	cn repository.ConnectionRepository,
	ma repository.MediaAssetRepository,
	ar repository.ActivityRepository,
	st repository.StatsRepository,
	credits CreditService,
	vault *CredentialVault,
	validator *ContentValidator,
	media MediaService,
	registry *platforms.Registry) PublishService {
	return &publishService{
		br:        br,
		pr:        pr,
		cn:        cn,
		ma:        ma,
		ar:        ar,
		st:        st,
		credits:   credits,
		vault:     vault,
		validator: validator,
		media:     media,
		registry:  registry,
	}
}

func (s *publishService) PublishPost(ctx context.Context, post *models.Post) error {
	bot, err := s.br.GetByID(ctx, post.BotID)
	if err != nil {
		return err
	}

	// A paused or missing bot short-circuits: no attempts, no audit entries.
	if !bot.IsActive() {
		post.Status = models.PostStatusFailed
		post.ErrorMessage = "bot is not active"
		post.PublishResults = models.PublishResults{}
		return s.pr.Finish(ctx, post)
	}

	results := make(models.PublishResults, len(post.Platforms))

	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, attemptConcurrency)

	for _, platform := range post.Platforms {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(platform string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result := s.attempt(ctx, bot, post, platform)

			mu.Lock()
			results[platform] = result
			mu.Unlock()
		}(platform)
	}

	wg.Wait()

	post.PublishResults = results
	post.Status, post.ErrorMessage = aggregate(post.Platforms, results)

	if post.Status == models.PostStatusPublished {
		now := time.Now()
		post.PublishedAt = &now
		if err := s.st.IncrementDailyPosts(ctx, post.BotID, truncateToDay(now)); err != nil {
			slog.Info(err.Error())
		}
	}

	return s.pr.Finish(ctx, post)
}

// attempt runs the full per-platform pipeline. Panics are contained here so
// one platform can never abort its siblings.
func (s *publishService) attempt(ctx context.Context, bot *models.Bot, post *models.Post, platform string) (result models.PlatformResult) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("publish attempt panicked", "platform", platform, "post_id", post.ID, "panic", p)
			result = models.PlatformResult{Error: truncateError(fmt.Sprintf("internal error: %v", p))}
		}
	}()

	ok, err := s.credits.HasEnoughCredits(ctx, bot.UserID, models.ActionPost)
	if err != nil {
		return s.fail(ctx, bot, post, platform, err.Error())
	}
	if !ok {
		return s.fail(ctx, bot, post, platform, "Insufficient credits")
	}

	conn, err := s.cn.GetByBotAndPlatform(ctx, post.BotID, platform)
	if err != nil {
		return s.fail(ctx, bot, post, platform, err.Error())
	}
	if conn == nil || conn.Status != models.ConnectionStatusConnected {
		return s.fail(ctx, bot, post, platform, fmt.Sprintf("%s not connected", platform))
	}

	creds, err := s.vault.Decrypt(conn)
	if err != nil {
		msg := truncateError(err.Error())
		if updateErr := s.cn.UpdateStatus(ctx, conn.ID, models.ConnectionStatusError, msg); updateErr != nil {
			slog.Info(updateErr.Error())
		}
		return s.fail(ctx, bot, post, platform, "credential decryption failed, reconnect the account")
	}

	var media *platforms.Media
	var assets []*models.MediaAsset
	if post.MediaID.Valid {
		asset, err := s.ma.GetByID(ctx, post.MediaID.Int64)
		if err != nil {
			return s.fail(ctx, bot, post, platform, err.Error())
		}
		if asset == nil {
			return s.fail(ctx, bot, post, platform, "media asset not found")
		}
		assets = append(assets, asset)

		media, err = s.media.Resolve(ctx, asset)
		if err != nil {
			return s.fail(ctx, bot, post, platform, err.Error())
		}
	}

	validation := s.validator.Validate(platform, subtypeFor(post), post.Content, assets)
	if issue := validation.FirstError(); issue != nil {
		return s.fail(ctx, bot, post, platform, fmt.Sprintf("%s. Fix: %s", issue.Message, issue.Fix))
	}

	adapter, err := s.registry.Get(platform)
	if err != nil {
		return s.fail(ctx, bot, post, platform, err.Error())
	}

	out := adapter.Publish(ctx, creds, platforms.PublishInput{Text: post.Content, Media: media})
	if !out.Success {
		msg := truncateError(out.Message)
		if out.AuthError {
			if err := s.cn.UpdateStatus(ctx, conn.ID, models.ConnectionStatusError, msg); err != nil {
				slog.Info(err.Error())
			}
		} else if err := s.cn.UpdateLastError(ctx, conn.ID, msg); err != nil {
			slog.Info(err.Error())
		}
		return s.fail(ctx, bot, post, platform, msg)
	}

	cost := s.credits.GetActionCost(models.ActionPost)
	if err := s.credits.DeductCredits(ctx, bot.UserID, models.ActionPost); err != nil {
		slog.Warn("credit deduction failed after publish", "bot_id", bot.ID, "platform", platform, "error", err)
		cost = 0
	}

	s.audit(ctx, bot, post, platform, &models.ActivityRecord{
		ExternalID:  out.ExternalID,
		Success:     true,
		CreditsUsed: int(cost),
	})

	if err := s.cn.RecordPost(ctx, conn.ID, time.Now()); err != nil {
		slog.Info(err.Error())
	}

	return models.PlatformResult{Success: true, ExternalID: out.ExternalID}
}

func (s *publishService) fail(ctx context.Context, bot *models.Bot, post *models.Post, platform, message string) models.PlatformResult {
	message = truncateError(message)
	s.audit(ctx, bot, post, platform, &models.ActivityRecord{
		Success:      false,
		ErrorMessage: message,
	})
	return models.PlatformResult{Error: message}
}

func (s *publishService) audit(ctx context.Context, bot *models.Bot, post *models.Post, platform string, record *models.ActivityRecord) {
	record.BotID = bot.ID
	record.Platform = platform
	record.Action = models.ActionPost
	record.ContentSnippet = snippet(post.Content)
	if _, err := s.ar.Create(ctx, record); err != nil {
		slog.Info(err.Error())
	}
}

// aggregate computes the post's terminal status: any success counts as
// delivered, only a full wipeout is a failure. The error message collects the
// failed platforms in a stable order.
func aggregate(targeted []string, results models.PublishResults) (string, string) {
	var failed []string
	succeeded := 0

	ordered := append([]string(nil), targeted...)
	sort.Strings(ordered)
	for _, platform := range ordered {
		result, ok := results[platform]
		if !ok {
			continue
		}
		if result.Success {
			succeeded++
		} else {
			failed = append(failed, fmt.Sprintf("%s: %s", platform, result.Error))
		}
	}

	errMsg := strings.Join(failed, "; ")
	if succeeded > 0 {
		return models.PostStatusPublished, errMsg
	}
	return models.PostStatusFailed, errMsg
}

func subtypeFor(post *models.Post) platforms.PostSubtype {
	if post.ContentType == models.ContentTypeCarousel {
		return platforms.SubtypeCarousel
	}
	return platforms.SubtypeFeed
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) > snippetLength {
		return string(runes[:snippetLength])
	}
	return content
}

func truncateError(message string) string {
	if len(message) > maxStoredErrorLength {
		return message[:maxStoredErrorLength]
	}
	return message
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
