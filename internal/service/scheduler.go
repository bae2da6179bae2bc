package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/transfer"
)

// SchedulerService owns the post state machine: scheduling drafts, claiming
// due posts in bounded batches, and handing each claimed post to the
// dispatcher.
type SchedulerService interface {
	Schedule(ctx context.Context, post *models.Post, at *time.Time) error
	ProcessDuePosts(ctx context.Context) (*transfer.ProcessResult, error)
	ProcessPost(ctx context.Context, postID int64) error
}

type schedulerService struct {
	pr        repository.PostRepository
	publisher PublishService
	batchSize int
	now       func() time.Time
}

func NewSchedulerService(pr repository.PostRepository, publisher PublishService, batchSize int) SchedulerService {
	return &schedulerService{
		pr:        pr,
		publisher: publisher,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Schedule moves a draft to scheduled. With no explicit time it picks the
// next optimal hour across the targeted platforms; an explicit time must not
// be in the past.
func (s *schedulerService) Schedule(ctx context.Context, post *models.Post, at *time.Time) error {
	if post.Status != models.PostStatusDraft {
		return fmt.Errorf("post %d is %s, only drafts can be scheduled", post.ID, post.Status)
	}

	now := s.now()
	if at != nil {
		if at.Before(now) {
			return errors.New("scheduled time is in the past")
		}
		post.ScheduledAt = at
	} else {
		t := NextOptimalTime(post.Platforms, now)
		post.ScheduledAt = &t
	}

	post.Status = models.PostStatusScheduled
	return s.pr.Finish(ctx, post)
}

// NextOptimalTime picks the earliest not-yet-passed optimal hour among the
// union of the targeted platforms' hour sets, using the weekday or weekend
// set matching the candidate day. With nothing left today it rolls to
// tomorrow's hour with the most platform overlap.
func NextOptimalTime(targetPlatforms []string, now time.Time) time.Time {
	today := hourOverlap(targetPlatforms, isWeekend(now))

	best := -1
	for hour := range today {
		if hourToday(now, hour).After(now) && (best == -1 || hour < best) {
			best = hour
		}
	}
	if best >= 0 {
		return hourToday(now, best)
	}

	tomorrow := now.AddDate(0, 0, 1)
	counts := hourOverlap(targetPlatforms, isWeekend(tomorrow))

	bestCount := 0
	for hour, count := range counts {
		if count > bestCount || (count == bestCount && (best == -1 || hour < best)) {
			best = hour
			bestCount = count
		}
	}
	if best < 0 {
		// No capability data for any platform; fall back to the same time
		// tomorrow.
		return tomorrow
	}
	return hourToday(tomorrow, best)
}

func hourOverlap(targetPlatforms []string, weekend bool) map[int]int {
	counts := make(map[int]int)
	for _, platform := range targetPlatforms {
		for _, hour := range platforms.OptimalHours(platform, weekend) {
			counts[hour]++
		}
	}
	return counts
}

func hourToday(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

func isWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}

// ProcessDuePosts is the batch entry point: it claims at most batchSize due
// posts through the conditional update and publishes them sequentially so
// ledger ordering stays deterministic.
func (s *schedulerService) ProcessDuePosts(ctx context.Context) (*transfer.ProcessResult, error) {
	posts, err := s.pr.ClaimDue(ctx, s.now(), s.batchSize)
	if err != nil {
		return nil, err
	}

	result := &transfer.ProcessResult{Processed: len(posts)}
	for _, post := range posts {
		if err := s.publisher.PublishPost(ctx, post); err != nil {
			slog.Error("publishing failed", "post_id", post.ID, "error", err)
			s.failClaimed(ctx, post)
		}
		result.Results = append(result.Results, transfer.PostOutcome{
			PostID:    post.ID,
			Status:    post.Status,
			Platforms: post.Platforms,
		})
	}

	return result, nil
}

// ProcessPost handles a queued publish trigger. The claim is the same
// conditional update the batch path uses, so a post already picked up by a
// concurrent sweep is skipped silently.
func (s *schedulerService) ProcessPost(ctx context.Context, postID int64) error {
	claimed, err := s.pr.Claim(ctx, postID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		// The claim already moved the row to publishing; release it to a
		// terminal state so it cannot sit there forever.
		s.failClaimed(ctx, &models.Post{ID: postID})
		return err
	}
	if post == nil {
		return fmt.Errorf("post %d disappeared after claim", postID)
	}

	if err := s.publisher.PublishPost(ctx, post); err != nil {
		s.failClaimed(ctx, post)
		return err
	}
	return nil
}

// failClaimed persists a failed status for a post the claim already moved to
// publishing but the dispatcher could not carry to a terminal state itself.
func (s *schedulerService) failClaimed(ctx context.Context, post *models.Post) {
	post.Status = models.PostStatusFailed
	if err := s.pr.UpdateStatus(ctx, models.PostStatusFailed, post.ID); err != nil {
		slog.Error("marking claimed post failed", "post_id", post.ID, "error", err)
	}
}
