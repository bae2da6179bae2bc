package models

import "time"

// ActivityRecord is an append-only audit entry, one per platform attempt.
type ActivityRecord struct {
	ID             int64     `db:"id" json:"id"`
	BotID          int64     `db:"bot_id" json:"bot_id"`
	Platform       string    `db:"platform" json:"platform"`
	Action         string    `db:"action" json:"action"`
	ContentSnippet string    `db:"content_snippet" json:"content_snippet"`
	ExternalID     string    `db:"external_id" json:"external_id"`
	Success        bool      `db:"success" json:"success"`
	ErrorMessage   string    `db:"error_message" json:"error_message"`
	CreditsUsed    int       `db:"credits_used" json:"credits_used"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

const (
	ActionPost  = "post"
	ActionReply = "reply"
)
