package service

import (
	"context"
	"log/slog"
	"time"

	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/transfer"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// connectionPause spaces out revalidation calls so the sweep never bursts a
// provider's limits.
const connectionPause = 500 * time.Millisecond

type HealthService interface {
	Run(ctx context.Context) (*transfer.HealthSummary, error)
}

type healthService struct {
	cfg      config.Config
	cn       repository.ConnectionRepository
	vault    *CredentialVault
	registry *platforms.Registry
	sleep    func(time.Duration)
}

func NewHealthService(cfg config.Config, cn repository.ConnectionRepository, vault *CredentialVault, registry *platforms.Registry) HealthService {
	return &healthService{
		cfg:      cfg,
		cn:       cn,
		vault:    vault,
		registry: registry,
		sleep:    time.Sleep,
	}
}

// Run resets the daily counters and revalidates every connected account.
// Revalidation failure flips the connection to error; success leaves it
// untouched.
func (s *healthService) Run(ctx context.Context) (*transfer.HealthSummary, error) {
	reset, err := s.cn.ResetDailyCounters(ctx)
	if err != nil {
		return nil, err
	}

	summary := &transfer.HealthSummary{
		DailyCountersReset: reset,
		Platforms:          make(map[string]transfer.PlatformHealth),
	}

	conns, err := s.cn.ListByStatus(ctx, models.ConnectionStatusConnected)
	if err != nil {
		return nil, err
	}

	for i, conn := range conns {
		if i > 0 {
			s.sleep(connectionPause)
		}

		health := summary.Platforms[conn.Platform]
		health.Total++

		if err := s.check(ctx, conn); err != nil {
			health.Invalid++
			slog.Info("connection revalidation failed", "platform", conn.Platform, "bot_id", conn.BotID, "error", err)
			msg := truncateError("token validation failed, reconnect the account: " + err.Error())
			if updateErr := s.cn.UpdateStatus(ctx, conn.ID, models.ConnectionStatusError, msg); updateErr != nil {
				slog.Info(updateErr.Error())
			}
		} else {
			health.Valid++
		}

		summary.Platforms[conn.Platform] = health
	}

	return summary, nil
}

func (s *healthService) check(ctx context.Context, conn *models.PlatformConnection) error {
	creds, err := s.vault.Decrypt(conn)
	if err != nil {
		return err
	}

	if conn.Platform == platforms.PlatformYoutube {
		s.refreshGoogleToken(ctx, conn, creds)
	}

	adapter, err := s.registry.Get(conn.Platform)
	if err != nil {
		return err
	}

	return adapter.VerifyCredentials(ctx, creds)
}

// refreshGoogleToken swaps a near-expired access token for a fresh one using
// the stored refresh token. Failure is not fatal here; the verification call
// decides the connection's fate.
func (s *healthService) refreshGoogleToken(ctx context.Context, conn *models.PlatformConnection, creds *platforms.Credentials) {
	if creds.RefreshToken == "" {
		return
	}
	if !creds.ExpiresAt.IsZero() && time.Until(creds.ExpiresAt) > 30*time.Minute {
		return
	}

	oauthCfg := &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleSecret,
		Endpoint:     google.Endpoint,
	}

	token, err := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		slog.Info("google token refresh failed", "bot_id", conn.BotID, "error", err)
		return
	}

	encrypted, err := s.vault.Encrypt(map[string]string{
		"access_token":  token.AccessToken,
		"refresh_token": creds.RefreshToken,
	})
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if err := s.cn.UpdateCredentials(ctx, conn.ID, encrypted); err != nil {
		slog.Info(err.Error())
		return
	}

	creds.AccessToken = token.AccessToken
	creds.ExpiresAt = token.Expiry
}
