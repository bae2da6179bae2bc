package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
	"github.com/postpilothq/postpilot/pkg/utils"
)

// CredentialVault turns a connection's encrypted credential map into the
// typed credentials an adapter consumes. Plaintext exists only in memory for
// the duration of an attempt.
type CredentialVault struct {
	key []byte
}

func NewCredentialVault(secretKey string) *CredentialVault {
	return &CredentialVault{key: []byte(secretKey)}
}

// requiredFields lists the ciphertext fields each platform must carry.
var requiredFields = map[string][]string{
	platforms.PlatformTwitter:   {"access_token"},
	platforms.PlatformInstagram: {"access_token"},
	platforms.PlatformThreads:   {"access_token"},
	platforms.PlatformYoutube:   {"access_token", "refresh_token"},
}

func (v *CredentialVault) Decrypt(conn *models.PlatformConnection) (*platforms.Credentials, error) {
	fields := make(map[string]string, len(conn.Credentials))
	for name, ciphertext := range conn.Credentials {
		plaintext, err := utils.Decrypt(ciphertext, v.key)
		if err != nil {
			return nil, fmt.Errorf("could not decrypt %s credential %q: %w", conn.Platform, name, err)
		}
		fields[name] = plaintext
	}

	for _, name := range requiredFields[conn.Platform] {
		if fields[name] == "" {
			return nil, fmt.Errorf("%s connection is missing the %q credential", conn.Platform, name)
		}
	}

	creds := &platforms.Credentials{
		AccessToken:  fields["access_token"],
		RefreshToken: fields["refresh_token"],
		AccountID:    conn.Config["account_id"],
	}
	if scopes := conn.Config["scopes"]; scopes != "" {
		creds.Scopes = strings.Split(scopes, ",")
	}
	if expiry := conn.Config["token_expires_at"]; expiry != "" {
		if t, err := time.Parse(time.RFC3339, expiry); err == nil {
			creds.ExpiresAt = t
		}
	}

	return creds, nil
}

// Encrypt seals a plaintext field map for storage, the inverse of Decrypt.
func (v *CredentialVault) Encrypt(fields map[string]string) (models.CredentialMap, error) {
	out := make(models.CredentialMap, len(fields))
	for name, plaintext := range fields {
		ciphertext, err := utils.Encrypt([]byte(plaintext), v.key)
		if err != nil {
			return nil, fmt.Errorf("could not encrypt credential %q: %w", name, err)
		}
		out[name] = ciphertext
	}
	return out, nil
}
