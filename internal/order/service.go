package order

import (
	"context"
	"fmt"

	"tandyr-pos/internal/validation"
	"tandyr-pos/pkg/logger"
	"tandyr-pos/pkg/models"
)

// Draft is the completed dialogue session content handed to commit. It is
// held by the dialogue and reused as-is on retry.
type Draft struct {
	CashierChatID int64
	Client        validation.ClientInfo
	Items         []models.LineItem
	Payments      []models.Payment
	Total         int64
}

type Repo interface {
	CreateOrder(ctx context.Context, branchID, cashierID int64, draft Draft) (models.Order, error)
}

type UserDirectory interface {
	ByChatID(ctx context.Context, chatID int64) (models.User, error)
}

type Service struct {
	repo   Repo
	users  UserDirectory
	logger *logger.Logger
}

func NewService(repo Repo, users UserDirectory, log *logger.Logger) *Service {
	return &Service{repo: repo, users: users, logger: log}
}

// Commit persists the draft atomically: order, line items and payments all
// land in one transaction or not at all.
func (s *Service) Commit(ctx context.Context, requestID string, draft Draft) (models.Order, error) {
	if len(draft.Items) == 0 {
		return models.Order{}, ErrNoProducts
	}
	if err := validation.ValidateClient(draft.Client); err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", ErrInvalidClient, err)
	}

	var paid int64
	for _, p := range draft.Payments {
		paid += p.Amount
	}
	if paid != draft.Total {
		return models.Order{}, ErrPaymentsIncomplete
	}

	cashier, err := s.users.ByChatID(ctx, draft.CashierChatID)
	if err != nil {
		s.logger.Error(requestID, "cashier_lookup_failed", "Failed to resolve cashier", err)
		return models.Order{}, err
	}
	if cashier.BranchID == nil {
		return models.Order{}, ErrNoBranch
	}

	created, err := s.repo.CreateOrder(ctx, *cashier.BranchID, cashier.ID, draft)
	if err != nil {
		s.logger.Error(requestID, "order_commit_failed", "Failed to persist order", err)
		return models.Order{}, err
	}

	s.logger.Info(requestID, "order_created",
		fmt.Sprintf("Order %s created, total %d", created.Number, created.TotalAmount))
	return created, nil
}
