package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postpilothq/postpilot/internal/models"
)

type MediaAssetRepository interface {
	GetByID(ctx context.Context, id int64) (*models.MediaAsset, error)
	Create(ctx context.Context, tx *sql.Tx, asset *models.MediaAsset) (int64, error)
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

const mediaColumns = `id, user_id, file_name, file_path, storage_key, media_type, mime_type, file_size, width, height, duration, frame_rate, created_at`

func (r *mediaAssetRepository) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_assets WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var m models.MediaAsset
	err := row.Scan(&m.ID, &m.UserID, &m.FileName, &m.FilePath, &m.StorageKey, &m.Type,
		&m.MimeType, &m.FileSize, &m.Width, &m.Height, &m.Duration, &m.FrameRate, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &m, nil
}

func (r *mediaAssetRepository) Create(ctx context.Context, tx *sql.Tx, asset *models.MediaAsset) (int64, error) {
	query := `
		INSERT INTO media_assets (user_id, file_name, file_path, storage_key, media_type, mime_type, file_size, width, height, duration, frame_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	var err error

	args := []interface{}{asset.UserID, asset.FileName, asset.FilePath, asset.StorageKey, asset.Type,
		asset.MimeType, asset.FileSize, asset.Width, asset.Height, asset.Duration, asset.FrameRate}
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}
