package service

import (
	"context"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
)

// actionCosts is the fixed per-action price list.
var actionCosts = map[string]int64{
	models.ActionPost:  1,
	models.ActionReply: 1,
}

type CreditService interface {
	GetActionCost(action string) int64
	HasEnoughCredits(ctx context.Context, userID int64, action string) (bool, error)
	DeductCredits(ctx context.Context, userID int64, action string) error
}

type creditService struct {
	cr repository.CreditsRepository
}

func NewCreditService(cr repository.CreditsRepository) CreditService {
	return &creditService{cr: cr}
}

func (s *creditService) GetActionCost(action string) int64 {
	return actionCosts[action]
}

func (s *creditService) HasEnoughCredits(ctx context.Context, userID int64, action string) (bool, error) {
	balance, err := s.cr.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance >= actionCosts[action], nil
}

// DeductCredits charges the action cost. The repository re-checks the balance
// under a row lock, so a stale pre-check can never overdraw the account.
func (s *creditService) DeductCredits(ctx context.Context, userID int64, action string) error {
	return s.cr.Deduct(ctx, userID, actionCosts[action])
}
