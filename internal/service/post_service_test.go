package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
	"github.com/postpilothq/postpilot/internal/transfer"
)

type fakeMediaAssetRepo struct {
	assets map[int64]*models.MediaAsset
}

func (f *fakeMediaAssetRepo) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	return f.assets[id], nil
}

func (f *fakeMediaAssetRepo) Create(ctx context.Context, tx *sql.Tx, asset *models.MediaAsset) (int64, error) {
	return 1, nil
}

func newPostServiceFixture(now time.Time) (*postService, *fakePostRepo, *fakeBotRepo, *fakeMediaAssetRepo) {
	posts := newFakePostRepo()
	bots := &fakeBotRepo{bots: map[int64]*models.Bot{
		1: {ID: 1, UserID: 7, Status: models.BotStatusActive},
	}}
	media := &fakeMediaAssetRepo{assets: make(map[int64]*models.MediaAsset)}
	s := &postService{pr: posts, br: bots, ma: media, now: func() time.Time { return now }}
	return s, posts, bots, media
}

func TestCreatePostWithExplicitTime(t *testing.T) {
	now := at(wednesday, 10, 0)
	s, posts, _, _ := newPostServiceFixture(now)

	id, delay, err := s.CreatePost(context.Background(), 7, &transfer.PostCreation{
		BotID:       1,
		Content:     "hello",
		Platforms:   []string{platforms.PlatformTwitter},
		ScheduledAt: "2026-01-07T14:30",
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d", id)
	}
	if want := 4*time.Hour + 30*time.Minute; delay != want {
		t.Errorf("delay = %v, want %v", delay, want)
	}

	created := posts.created[0]
	if created.Status != models.PostStatusScheduled {
		t.Errorf("status = %q", created.Status)
	}
	if created.ContentType != models.ContentTypeText {
		t.Errorf("content type = %q", created.ContentType)
	}
}

func TestCreatePostPicksOptimalTimeWhenUnset(t *testing.T) {
	now := at(wednesday, 10, 0)
	s, posts, _, _ := newPostServiceFixture(now)

	_, delay, err := s.CreatePost(context.Background(), 7, &transfer.PostCreation{
		BotID:     1,
		Content:   "hello",
		Platforms: []string{platforms.PlatformTwitter},
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	// Next twitter weekday hour after 10:00 is 12:00.
	if delay != 2*time.Hour {
		t.Errorf("delay = %v, want 2h", delay)
	}
	if got := posts.created[0].ScheduledAt; got == nil || !got.Equal(at(wednesday, 12, 0)) {
		t.Errorf("scheduled_at = %v", got)
	}
}

func TestCreatePostRejectsPastTime(t *testing.T) {
	s, _, _, _ := newPostServiceFixture(at(wednesday, 10, 0))

	_, _, err := s.CreatePost(context.Background(), 7, &transfer.PostCreation{
		BotID:       1,
		Content:     "hello",
		Platforms:   []string{platforms.PlatformTwitter},
		ScheduledAt: "2026-01-07T08:00",
	})
	if err == nil {
		t.Fatal("expected a past scheduled time to be rejected")
	}
}

func TestCreatePostValidation(t *testing.T) {
	s, _, _, _ := newPostServiceFixture(at(wednesday, 10, 0))

	cases := []struct {
		name string
		pc   transfer.PostCreation
	}{
		{"empty content", transfer.PostCreation{BotID: 1, Platforms: []string{platforms.PlatformTwitter}}},
		{"no platforms", transfer.PostCreation{BotID: 1, Content: "hi"}},
		{"unknown platform", transfer.PostCreation{BotID: 1, Content: "hi", Platforms: []string{"myspace"}}},
		{"foreign bot", transfer.PostCreation{BotID: 2, Content: "hi", Platforms: []string{platforms.PlatformTwitter}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := s.CreatePost(context.Background(), 7, &tc.pc); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestCreatePostInheritsMediaType(t *testing.T) {
	s, posts, _, media := newPostServiceFixture(at(wednesday, 10, 0))
	media.assets[5] = &models.MediaAsset{ID: 5, Type: models.MediaTypeVideo}

	_, _, err := s.CreatePost(context.Background(), 7, &transfer.PostCreation{
		BotID:     1,
		Content:   "clip",
		MediaID:   5,
		Platforms: []string{platforms.PlatformTwitter},
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	created := posts.created[0]
	if !created.MediaID.Valid || created.MediaID.Int64 != 5 {
		t.Errorf("media id = %+v", created.MediaID)
	}
	if created.ContentType != models.ContentTypeVideo {
		t.Errorf("content type = %q, want video", created.ContentType)
	}
}

func TestCreatePostMissingMedia(t *testing.T) {
	s, _, _, _ := newPostServiceFixture(at(wednesday, 10, 0))

	_, _, err := s.CreatePost(context.Background(), 7, &transfer.PostCreation{
		BotID:     1,
		Content:   "clip",
		MediaID:   99,
		Platforms: []string{platforms.PlatformTwitter},
	})
	if err == nil {
		t.Fatal("expected a missing media asset to be rejected")
	}
}

func TestCancelPost(t *testing.T) {
	s, posts, _, _ := newPostServiceFixture(at(wednesday, 10, 0))

	posts.cancelOK = true
	if err := s.Cancel(context.Background(), 7, 3); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	posts.cancelOK = false
	if err := s.Cancel(context.Background(), 7, 3); err == nil {
		t.Fatal("expected cancelling a non-cancellable post to fail")
	}
}
