package models

import "time"

type MediaAsset struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	FilePath   string    `db:"file_path" json:"file_path"`
	StorageKey string    `db:"storage_key" json:"storage_key"`
	Type       string    `db:"media_type" json:"media_type"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	FileSize   int64     `db:"file_size" json:"file_size"`
	Width      int       `db:"width" json:"width"`
	Height     int       `db:"height" json:"height"`
	Duration   float64   `db:"duration" json:"duration"`
	FrameRate  float64   `db:"frame_rate" json:"frame_rate"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeGif   = "gif"
)
