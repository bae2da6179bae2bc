package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
)

var ErrInsufficientCredits = errors.New("insufficient credits")

type CreditsRepository interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	Deduct(ctx context.Context, userID int64, amount int64) error
}

type creditsRepository struct {
	db *sql.DB
}

func NewCreditsRepository(db *sql.DB) CreditsRepository {
	return &creditsRepository{db: db}
}

func (r *creditsRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT credits FROM users WHERE id = $1`

	var balance int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		slog.Info(err.Error())
		return 0, err
	}

	return balance, nil
}

// Deduct re-checks the balance inside a transaction with a row lock so
// concurrent deductions for the same user can never drive it negative.
func (r *creditsRepository) Deduct(ctx context.Context, userID int64, amount int64) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if balance < amount {
		return ErrInsufficientCredits
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET credits = credits - $1 WHERE id = $2`, amount, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return tx.Commit()
}
