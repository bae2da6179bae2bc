package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postpilothq/postpilot/internal/models"
)

type BotRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Bot, error)
	CheckByUserID(ctx context.Context, botID, userID int64) (bool, error)
}

type botRepository struct {
	db *sql.DB
}

func NewBotRepository(db *sql.DB) BotRepository {
	return &botRepository{db: db}
}

func (r *botRepository) GetByID(ctx context.Context, id int64) (*models.Bot, error) {
	query := `SELECT id, user_id, name, status, created_at, updated_at FROM bots WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var bot models.Bot
	err := row.Scan(&bot.ID, &bot.UserID, &bot.Name, &bot.Status, &bot.CreatedAt, &bot.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &bot, nil
}

func (r *botRepository) CheckByUserID(ctx context.Context, botID, userID int64) (bool, error) {
	query := `SELECT 1 FROM bots WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, botID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
