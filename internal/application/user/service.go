package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tourney-api/internal/domain"
	"github.com/tourney-api/internal/pkg/id"
	"github.com/tourney-api/internal/pkg/retry"
	"github.com/tourney-api/internal/pkg/validate"
)

// Store is the slice of the user repository this service needs.
type Store interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
	AdjustPoints(ctx context.Context, userID string, delta int64) (int64, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

// SessionStore lets account deletion kill the user's sessions.
type SessionStore interface {
	SoftDeleteByUser(ctx context.Context, userID string) error
}

// LedgerStore records points movements.
type LedgerStore interface {
	Put(ctx context.Context, t *domain.Transaction) error
	ListByUser(ctx context.Context, userID string, limit int32) ([]domain.Transaction, error)
}

// NotificationStore is used to tell users about point credits.
type NotificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

type Service struct {
	users         Store
	sessions      SessionStore
	ledger        LedgerStore
	notifications NotificationStore
}

func NewService(users Store, sessions SessionStore, ledger LedgerStore, notifications NotificationStore) *Service {
	return &Service{users: users, sessions: sessions, ledger: ledger, notifications: notifications}
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	var u *domain.User
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.users.Get(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

// Update applies the caller's profile edits. Only the fields present in
// the request are touched.
func (s *Service) Update(ctx context.Context, userID string, req *domain.UpdateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid profile update: %w", domain.ErrBadRequest)
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.GameTag != nil {
		updates["game_tag"] = *req.GameTag
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.users.Update(ctx, userID, updates)
	}); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Delete soft-deletes the account and disables all of its sessions.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.users.SoftDelete(ctx, userID)
	}); err != nil {
		return err
	}
	if err := s.sessions.SoftDeleteByUser(ctx, userID); err != nil {
		slog.Warn("failed to disable sessions for deleted user", "user_id", userID, "err", err)
	}
	return nil
}

func (s *Service) ListTransactions(ctx context.Context, userID string, limit int32) ([]domain.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var txns []domain.Transaction
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		txns, err = s.ledger.ListByUser(ctx, userID, limit)
		return err
	})
	return txns, err
}

// List pages through enabled accounts. Admin only; the router enforces that.
func (s *Service) List(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	users, next, err := s.users.ScanPage(ctx, limit, cursor)
	if err != nil {
		return nil, "", err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, next, nil
}

// CreditPoints adds amount to the user's balance and records the ledger
// entry. Admin only.
func (s *Service) CreditPoints(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive: %w", domain.ErrBadRequest)
	}
	balance, err := s.users.AdjustPoints(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	txn := &domain.Transaction{
		TransactionID: id.New(),
		UserID:        userID,
		Kind:          domain.TxnAdminCredit,
		Amount:        amount,
		BalanceAfter:  balance,
		CreatedAt:     now,
	}
	if reason != "" {
		txn.Reference = &reason
	}
	if err := s.ledger.Put(ctx, txn); err != nil {
		slog.Warn("failed to record credit transaction", "user_id", userID, "err", err)
	}
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		Title:          "Points credited",
		Message:        fmt.Sprintf("%d points were added to your balance.", amount),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.notifications.Put(ctx, n); err != nil {
		slog.Warn("failed to store credit notification", "user_id", userID, "err", err)
	}
	return balance, nil
}
