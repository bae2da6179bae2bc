package transfer

// PostCreation is the inbound form for scheduling a post. ScheduledAt is
// optional; when empty the scheduler picks the best upcoming optimal hour.
type PostCreation struct {
	BotID       int64    `json:"bot_id" form:"bot_id"`
	Content     string   `json:"content" form:"content"`
	ContentType string   `json:"content_type" form:"content_type"`
	MediaID     int64    `json:"media_id" form:"media_id"`
	Platforms   []string `json:"platforms" form:"platforms"`
	ScheduledAt string   `json:"scheduled_at" form:"scheduled_at"`
}
