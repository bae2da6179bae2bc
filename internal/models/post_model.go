package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Post struct {
	ID             int64          `db:"id" json:"id"`
	BotID          int64          `db:"bot_id" json:"bot_id"`
	Content        string         `db:"content" json:"content"`
	ContentType    string         `db:"content_type" json:"content_type"`
	MediaID        sql.NullInt64  `db:"media_id" json:"media_id"`
	Platforms      []string       `db:"platforms" json:"platforms"`
	ScheduledAt    *time.Time     `db:"scheduled_at" json:"scheduled_at"`
	Status         string         `db:"status" json:"status"`
	PublishResults PublishResults `db:"publish_results" json:"publish_results"`
	ErrorMessage   string         `db:"error_message" json:"error_message"`
	PublishedAt    *time.Time     `db:"published_at" json:"published_at"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
	PostStatusCancelled  = "cancelled"
)

const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeVideo    = "video"
	ContentTypeCarousel = "carousel"
)

// PlatformResult is the per-platform outcome embedded in a post.
type PlatformResult struct {
	Success    bool   `json:"success"`
	ExternalID string `json:"external_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// PublishResults is persisted as a JSONB map keyed by platform id.
type PublishResults map[string]PlatformResult

func (r PublishResults) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

func (r *PublishResults) Scan(src interface{}) error {
	if src == nil {
		*r = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("publish results: unsupported scan source")
	}
	return json.Unmarshal(b, r)
}
