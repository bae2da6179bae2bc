package models

import "time"

// EngagementRecord holds the latest fetched metrics for one published item.
type EngagementRecord struct {
	ID          int64     `db:"id" json:"id"`
	BotID       int64     `db:"bot_id" json:"bot_id"`
	Platform    string    `db:"platform" json:"platform"`
	ExternalID  string    `db:"external_id" json:"external_id"`
	Likes       int64     `db:"likes" json:"likes"`
	Comments    int64     `db:"comments" json:"comments"`
	Shares      int64     `db:"shares" json:"shares"`
	Score       float64   `db:"score" json:"score"`
	CollectedAt time.Time `db:"collected_at" json:"collected_at"`
}

// DailyEngagement aggregates engagement per (bot, platform, day).
type DailyEngagement struct {
	BotID    int64     `db:"bot_id" json:"bot_id"`
	Platform string    `db:"platform" json:"platform"`
	Day      time.Time `db:"day" json:"day"`
	Likes    int64     `db:"likes" json:"likes"`
	Comments int64     `db:"comments" json:"comments"`
	Shares   int64     `db:"shares" json:"shares"`
	Score    float64   `db:"score" json:"score"`
	Posts    int       `db:"posts" json:"posts"`
}
