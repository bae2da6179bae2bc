package models

import "time"

type Bot struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	BotStatusActive = "active"
	BotStatusPaused = "paused"
)

func (b *Bot) IsActive() bool {
	return b != nil && b.Status == BotStatusActive
}

type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Credits   int64     `db:"credits" json:"credits"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BotDailyStats tracks how many posts a bot published on a given day.
type BotDailyStats struct {
	BotID      int64     `db:"bot_id" json:"bot_id"`
	Day        time.Time `db:"day" json:"day"`
	PostsCount int       `db:"posts_count" json:"posts_count"`
}
