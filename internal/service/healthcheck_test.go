package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
)

func TestHealthRunMarksInvalidConnections(t *testing.T) {
	twitter := &fakeAdapter{name: platforms.PlatformTwitter}
	threads := &fakeAdapter{name: platforms.PlatformThreads, verifyErr: errors.New("token dead")}

	vault := NewCredentialVault(testSecretKey)
	conns := newFakeConnectionRepo()
	for i, platform := range []string{platforms.PlatformTwitter, platforms.PlatformThreads} {
		sealed, err := vault.Encrypt(map[string]string{"access_token": "tok"})
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		conns.conns[connKey{int64(i + 1), platform}] = &models.PlatformConnection{
			ID: int64(i + 1), BotID: int64(i + 1), Platform: platform,
			Credentials: sealed, Status: models.ConnectionStatusConnected,
		}
	}

	var paused int
	s := &healthService{
		cn:       conns,
		vault:    vault,
		registry: platforms.NewRegistry(twitter, threads),
		sleep:    func(time.Duration) { paused++ },
	}

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.DailyCountersReset != 2 {
		t.Errorf("daily counters reset = %d, want 2", summary.DailyCountersReset)
	}

	tw := summary.Platforms[platforms.PlatformTwitter]
	if tw.Total != 1 || tw.Valid != 1 || tw.Invalid != 0 {
		t.Errorf("twitter health = %+v", tw)
	}
	th := summary.Platforms[platforms.PlatformThreads]
	if th.Total != 1 || th.Valid != 0 || th.Invalid != 1 {
		t.Errorf("threads health = %+v", th)
	}

	// The healthy connection keeps its status, the dead one flips.
	if _, marked := conns.statusSets[1]; marked {
		t.Error("valid connection must not be touched")
	}
	if got := conns.statusSets[2]; got != models.ConnectionStatusError {
		t.Errorf("dead connection status = %q, want error", got)
	}

	// Calls are spaced out, one pause between two connections.
	if paused != 1 {
		t.Errorf("pauses = %d, want 1", paused)
	}
}

func TestHealthRunUndecryptableCredentials(t *testing.T) {
	twitter := &fakeAdapter{name: platforms.PlatformTwitter}

	conns := newFakeConnectionRepo()
	conns.conns[connKey{1, platforms.PlatformTwitter}] = &models.PlatformConnection{
		ID: 1, BotID: 1, Platform: platforms.PlatformTwitter,
		Credentials: models.CredentialMap{"access_token": "not-ciphertext"},
		Status:      models.ConnectionStatusConnected,
	}

	s := &healthService{
		cn:       conns,
		vault:    NewCredentialVault(testSecretKey),
		registry: platforms.NewRegistry(twitter),
		sleep:    func(time.Duration) {},
	}

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	health := summary.Platforms[platforms.PlatformTwitter]
	if health.Invalid != 1 {
		t.Errorf("health = %+v, want invalid", health)
	}
	if got := conns.statusSets[1]; got != models.ConnectionStatusError {
		t.Errorf("status = %q, want error", got)
	}
}
