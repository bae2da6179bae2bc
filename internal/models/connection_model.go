package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type PlatformConnection struct {
	ID           int64         `db:"id" json:"id"`
	BotID        int64         `db:"bot_id" json:"bot_id"`
	Platform     string        `db:"platform" json:"platform"`
	Credentials  CredentialMap `db:"credentials" json:"-"`
	Config       ConfigMap     `db:"config" json:"config"`
	Status       string        `db:"status" json:"status"`
	LastError    string        `db:"last_error" json:"last_error"`
	LastPostAt   *time.Time    `db:"last_post_at" json:"last_post_at"`
	PostsToday   int           `db:"posts_today" json:"posts_today"`
	RepliesToday int           `db:"replies_today" json:"replies_today"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

const (
	ConnectionStatusConnected    = "connected"
	ConnectionStatusError        = "error"
	ConnectionStatusDisconnected = "disconnected"
	ConnectionStatusSuspended    = "suspended"
)

// CredentialMap holds per-field ciphertext. Plaintext never touches the
// database; decryption happens in the credential vault at publish time.
type CredentialMap map[string]string

func (m CredentialMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *CredentialMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("credential map: unsupported scan source")
	}
	return json.Unmarshal(b, m)
}

// ConfigMap holds non-secret per-connection settings (account id, scopes).
type ConfigMap map[string]string

func (m ConfigMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *ConfigMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("config map: unsupported scan source")
	}
	return json.Unmarshal(b, m)
}
