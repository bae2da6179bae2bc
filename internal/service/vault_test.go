package service

import (
	"testing"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
)

func TestVaultRoundTrip(t *testing.T) {
	vault := NewCredentialVault(testSecretKey)

	sealed, err := vault.Encrypt(map[string]string{
		"access_token":  "tok-123",
		"refresh_token": "ref-456",
	})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed["access_token"] == "tok-123" {
		t.Fatal("access token was stored in plaintext")
	}

	conn := &models.PlatformConnection{
		Platform:    platforms.PlatformYoutube,
		Credentials: sealed,
		Config: models.ConfigMap{
			"account_id":       "chan-1",
			"scopes":           "upload,read",
			"token_expires_at": "2026-09-15T10:00:00Z",
		},
	}

	creds, err := vault.Decrypt(conn)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if creds.AccessToken != "tok-123" || creds.RefreshToken != "ref-456" {
		t.Errorf("tokens = %q / %q", creds.AccessToken, creds.RefreshToken)
	}
	if creds.AccountID != "chan-1" {
		t.Errorf("account id = %q", creds.AccountID)
	}
	if !creds.HasScope("upload") || creds.HasScope("write") {
		t.Errorf("scopes = %v", creds.Scopes)
	}
	want := time.Date(2026, time.September, 15, 10, 0, 0, 0, time.UTC)
	if !creds.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", creds.ExpiresAt, want)
	}
}

func TestVaultMissingRequiredField(t *testing.T) {
	vault := NewCredentialVault(testSecretKey)

	sealed, err := vault.Encrypt(map[string]string{"access_token": "tok-123"})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	conn := &models.PlatformConnection{
		Platform:    platforms.PlatformYoutube,
		Credentials: sealed,
	}
	if _, err := vault.Decrypt(conn); err == nil {
		t.Fatal("expected youtube without a refresh token to be rejected")
	}
}

func TestVaultWrongKeyFails(t *testing.T) {
	vault := NewCredentialVault(testSecretKey)
	other := NewCredentialVault("fedcba9876543210fedcba9876543210")

	sealed, err := vault.Encrypt(map[string]string{"access_token": "tok-123"})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	conn := &models.PlatformConnection{
		Platform:    platforms.PlatformTwitter,
		Credentials: sealed,
	}
	if _, err := other.Decrypt(conn); err == nil {
		t.Fatal("expected decryption with the wrong key to fail")
	}
}
