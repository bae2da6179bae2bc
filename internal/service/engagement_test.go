package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
)

type fakeEngagementRepo struct {
	records []*models.EngagementRecord
	dailies []*models.DailyEngagement
}

func (f *fakeEngagementRepo) UpsertRecord(ctx context.Context, rec *models.EngagementRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeEngagementRepo) UpsertDaily(ctx context.Context, agg *models.DailyEngagement) error {
	f.dailies = append(f.dailies, agg)
	return nil
}

func TestScoreAppliesWeights(t *testing.T) {
	eng := &platforms.Engagement{Likes: 10, Comments: 5, Shares: 2}

	got := Score(eng, platforms.DefaultEngagementWeights)
	if want := 10.0*1 + 5.0*3 + 2.0*5; got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}

	got = Score(eng, platforms.ScoreWeights(platforms.PlatformTwitter))
	if want := 10.0*1 + 5.0*2 + 2.0*4; got != want {
		t.Errorf("twitter Score = %v, want %v", got, want)
	}
}

func TestScoreWeightsFallBackToDefault(t *testing.T) {
	if got := platforms.ScoreWeights(platforms.PlatformInstagram); got != platforms.DefaultEngagementWeights {
		t.Errorf("instagram weights = %+v, want default", got)
	}
	if got := platforms.ScoreWeights("myspace"); got != platforms.DefaultEngagementWeights {
		t.Errorf("unknown platform weights = %+v, want default", got)
	}
}

func TestCollectAggregatesPerPlatform(t *testing.T) {
	twitter := &fakeAdapter{name: platforms.PlatformTwitter, engagement: &platforms.Engagement{Likes: 4, Comments: 2, Shares: 1}}

	posts := newFakePostRepo()
	posts.posts[1] = &models.Post{
		ID: 1, BotID: 1, Status: models.PostStatusPublished,
		PublishResults: models.PublishResults{
			platforms.PlatformTwitter: {Success: true, ExternalID: "tw-1"},
			platforms.PlatformThreads: {Error: "never made it"},
		},
	}
	posts.posts[2] = &models.Post{
		ID: 2, BotID: 1, Status: models.PostStatusPublished,
		PublishResults: models.PublishResults{
			platforms.PlatformTwitter: {Success: true, ExternalID: "tw-2"},
		},
	}

	conns := newFakeConnectionRepo()
	vault := NewCredentialVault(testSecretKey)
	sealed, err := vault.Encrypt(map[string]string{"access_token": "tok"})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	conns.conns[connKey{1, platforms.PlatformTwitter}] = &models.PlatformConnection{
		ID: 1, BotID: 1, Platform: platforms.PlatformTwitter,
		Credentials: sealed, Status: models.ConnectionStatusConnected,
	}

	er := &fakeEngagementRepo{}
	s := &engagementService{
		pr:       posts,
		cn:       conns,
		er:       er,
		vault:    vault,
		registry: platforms.NewRegistry(twitter),
		now:      time.Now,
	}

	summary, err := s.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if summary.PostsScanned != 2 {
		t.Errorf("posts scanned = %d, want 2", summary.PostsScanned)
	}
	if summary.EngagementCollected != 2 {
		t.Errorf("collected = %d, want 2", summary.EngagementCollected)
	}
	if summary.Errors != 0 {
		t.Errorf("errors = %d, want 0", summary.Errors)
	}

	if len(er.records) != 2 {
		t.Fatalf("records = %d, want 2", len(er.records))
	}
	wantScore := 4.0*1 + 2.0*2 + 1.0*4
	for _, rec := range er.records {
		if rec.Score != wantScore {
			t.Errorf("record score = %v, want %v", rec.Score, wantScore)
		}
	}

	// Both posts share one (bot, platform, day) bucket.
	if len(er.dailies) != 1 {
		t.Fatalf("dailies = %d, want 1", len(er.dailies))
	}
	daily := er.dailies[0]
	if daily.Posts != 2 || daily.Likes != 8 || daily.Comments != 4 || daily.Shares != 2 {
		t.Errorf("daily = %+v", daily)
	}
	if daily.Score != 2*wantScore {
		t.Errorf("daily score = %v, want %v", daily.Score, 2*wantScore)
	}
}

func TestCollectCountsFetchFailures(t *testing.T) {
	twitter := &fakeAdapter{name: platforms.PlatformTwitter, fetchErr: errors.New("rate limited")}

	posts := newFakePostRepo()
	posts.posts[1] = &models.Post{
		ID: 1, BotID: 1, Status: models.PostStatusPublished,
		PublishResults: models.PublishResults{
			platforms.PlatformTwitter: {Success: true, ExternalID: "tw-1"},
		},
	}

	conns := newFakeConnectionRepo()
	vault := NewCredentialVault(testSecretKey)
	sealed, err := vault.Encrypt(map[string]string{"access_token": "tok"})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	conns.conns[connKey{1, platforms.PlatformTwitter}] = &models.PlatformConnection{
		ID: 1, BotID: 1, Platform: platforms.PlatformTwitter,
		Credentials: sealed, Status: models.ConnectionStatusConnected,
	}

	er := &fakeEngagementRepo{}
	s := &engagementService{
		pr: posts, cn: conns, er: er,
		vault:    vault,
		registry: platforms.NewRegistry(twitter),
		now:      time.Now,
	}

	summary, err := s.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if summary.Errors != 1 || summary.EngagementCollected != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(er.records) != 0 {
		t.Errorf("records = %d, want 0", len(er.records))
	}
}

func TestCollectSkipsDisconnectedAccounts(t *testing.T) {
	twitter := &fakeAdapter{name: platforms.PlatformTwitter, engagement: &platforms.Engagement{Likes: 1}}

	posts := newFakePostRepo()
	posts.posts[1] = &models.Post{
		ID: 1, BotID: 1, Status: models.PostStatusPublished,
		PublishResults: models.PublishResults{
			platforms.PlatformTwitter: {Success: true, ExternalID: "tw-1"},
		},
	}

	s := &engagementService{
		pr: posts, cn: newFakeConnectionRepo(), er: &fakeEngagementRepo{},
		vault:    NewCredentialVault(testSecretKey),
		registry: platforms.NewRegistry(twitter),
		now:      time.Now,
	}

	summary, err := s.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if summary.Errors != 1 {
		t.Errorf("errors = %d, want 1", summary.Errors)
	}
}
