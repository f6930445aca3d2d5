package tournament

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tourney-api/internal/domain"
	"github.com/tourney-api/internal/pkg/id"
	"github.com/tourney-api/internal/pkg/retry"
	"github.com/tourney-api/internal/pkg/validate"
)

// Store is the slice of the tournament repository this service needs.
type Store interface {
	Put(ctx context.Context, t *domain.Tournament) error
	Get(ctx context.Context, tournamentID string) (*domain.Tournament, error)
	Update(ctx context.Context, tournamentID string, updates map[string]interface{}) error
	ListByStatus(ctx context.Context, status domain.TournamentStatus) ([]domain.Tournament, error)
	Scan(ctx context.Context) ([]domain.Tournament, error)
	ReserveSlot(ctx context.Context, tournamentID string) error
	ReleaseSlot(ctx context.Context, tournamentID string) error
}

// EnrollmentStore persists tournament memberships.
type EnrollmentStore interface {
	Put(ctx context.Context, e *domain.Enrollment) error
	Get(ctx context.Context, tournamentID, userID string) (*domain.Enrollment, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]domain.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error)
	Delete(ctx context.Context, tournamentID, userID string) error
}

// UserStore covers profile reads and the entry fee debit.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	AdjustPoints(ctx context.Context, userID string, delta int64) (int64, error)
}

// LedgerStore records points movements.
type LedgerStore interface {
	Put(ctx context.Context, t *domain.Transaction) error
}

// NotificationStore delivers enrollment confirmations.
type NotificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

// MediaStore holds tournament banners.
type MediaStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

const bannerURLTTL = 15 * time.Minute

type Service struct {
	tournaments   Store
	enrollments   EnrollmentStore
	users         UserStore
	ledger        LedgerStore
	notifications NotificationStore
	media         MediaStore
}

func NewService(tournaments Store, enrollments EnrollmentStore, users UserStore, ledger LedgerStore, notifications NotificationStore, media MediaStore) *Service {
	return &Service{
		tournaments:   tournaments,
		enrollments:   enrollments,
		users:         users,
		ledger:        ledger,
		notifications: notifications,
		media:         media,
	}
}

// List returns tournaments, filtered by status when one is given.
func (s *Service) List(ctx context.Context, status string) ([]domain.Tournament, error) {
	var (
		ts  []domain.Tournament
		err error
	)
	if status != "" {
		if !validStatus(domain.TournamentStatus(status)) {
			return nil, fmt.Errorf("unknown status %q: %w", status, domain.ErrBadRequest)
		}
		err = retry.Do(ctx, func(ctx context.Context) error {
			ts, err = s.tournaments.ListByStatus(ctx, domain.TournamentStatus(status))
			return err
		})
	} else {
		err = retry.Do(ctx, func(ctx context.Context) error {
			ts, err = s.tournaments.Scan(ctx)
			return err
		})
	}
	if err != nil {
		return nil, err
	}
	for i := range ts {
		s.attachBannerURL(ctx, &ts[i])
	}
	return ts, nil
}

func (s *Service) Get(ctx context.Context, tournamentID string) (*domain.Tournament, error) {
	var t *domain.Tournament
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.tournaments.Get(ctx, tournamentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.attachBannerURL(ctx, t)
	return t, nil
}

// Create registers a new tournament in the upcoming state. Admin only.
func (s *Service) Create(ctx context.Context, req *domain.CreateTournamentRequest) (*domain.Tournament, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid tournament: %w", domain.ErrBadRequest)
	}
	regClose, err := time.Parse(time.RFC3339, req.RegCloseAt)
	if err != nil {
		return nil, fmt.Errorf("invalid reg_close_at: %w", domain.ErrBadRequest)
	}
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return nil, fmt.Errorf("invalid start_at: %w", domain.ErrBadRequest)
	}
	if !regClose.Before(startAt) {
		return nil, fmt.Errorf("registration must close before the start: %w", domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	t := &domain.Tournament{
		TournamentID: id.New(),
		Name:         req.Name,
		Game:         req.Game,
		Description:  req.Description,
		EntryFee:     req.EntryFee,
		PrizePool:    req.PrizePool,
		MaxPlayers:   req.MaxPlayers,
		RegCloseAt:   regClose.UTC(),
		StartAt:      startAt.UTC(),
		Status:       domain.StatusUpcoming,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.tournaments.Put(ctx, t)
	}); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies admin edits, validating any status transition against the
// lifecycle: upcoming → registration → live → completed, with canceled
// reachable from every non-terminal state.
func (s *Service) Update(ctx context.Context, tournamentID string, req *domain.UpdateTournamentRequest) (*domain.Tournament, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid tournament update: %w", domain.ErrBadRequest)
	}
	current, err := s.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PrizePool != nil {
		updates["prize_pool"] = *req.PrizePool
	}
	if req.RegCloseAt != nil {
		ts, err := time.Parse(time.RFC3339, *req.RegCloseAt)
		if err != nil {
			return nil, fmt.Errorf("invalid reg_close_at: %w", domain.ErrBadRequest)
		}
		updates["reg_close_at"] = ts.UTC().Format(time.RFC3339)
	}
	if req.StartAt != nil {
		ts, err := time.Parse(time.RFC3339, *req.StartAt)
		if err != nil {
			return nil, fmt.Errorf("invalid start_at: %w", domain.ErrBadRequest)
		}
		updates["start_at"] = ts.UTC().Format(time.RFC3339)
	}
	if req.Status != nil {
		next := domain.TournamentStatus(*req.Status)
		if !validStatus(next) {
			return nil, fmt.Errorf("unknown status %q: %w", *req.Status, domain.ErrBadRequest)
		}
		if !validTransition(current.Status, next) {
			return nil, fmt.Errorf("cannot move %s to %s: %w", current.Status, next, domain.ErrInvalidStatusChange)
		}
		updates["status"] = string(next)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}

	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.tournaments.Update(ctx, tournamentID, updates)
	}); err != nil {
		return nil, err
	}
	return s.Get(ctx, tournamentID)
}

// UploadBanner stores the banner image and links it to the tournament.
// Admin only. A previous banner is removed best-effort.
func (s *Service) UploadBanner(ctx context.Context, tournamentID, filename string, r io.Reader, contentType string) (*domain.Tournament, error) {
	current, err := s.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%s/banner-%s-%s", tournamentID, id.New(), filename)
	if _, err := s.media.Upload(ctx, key, r, contentType); err != nil {
		return nil, fmt.Errorf("upload banner: %w", err)
	}
	if err := retry.Do(ctx, func(ctx context.Context) error {
		return s.tournaments.Update(ctx, tournamentID, map[string]interface{}{"banner_key": key})
	}); err != nil {
		return nil, err
	}
	if current.BannerKey != nil {
		if err := s.media.Delete(ctx, *current.BannerKey); err != nil {
			slog.Warn("failed to delete old banner", "tournament_id", tournamentID, "key", *current.BannerKey, "err", err)
		}
	}
	return s.Get(ctx, tournamentID)
}

// Enroll joins the caller to a tournament: reserve a slot, debit the entry
// fee, write the membership. Each step that fails rolls back the ones
// before it, so a failed enrollment never leaks points or capacity.
func (s *Service) Enroll(ctx context.Context, tournamentID, userID string) (*domain.Enrollment, error) {
	t, err := s.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.StatusRegistration {
		return nil, fmt.Errorf("registration is not open: %w", domain.ErrRegistrationClosed)
	}
	if time.Now().After(t.RegCloseAt) {
		return nil, fmt.Errorf("registration window has closed: %w", domain.ErrRegistrationClosed)
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.GameTag == "" {
		return nil, fmt.Errorf("set a game tag before enrolling: %w", domain.ErrBadRequest)
	}

	if err := s.tournaments.ReserveSlot(ctx, tournamentID); err != nil {
		return nil, err
	}

	balance, err := s.users.AdjustPoints(ctx, userID, -t.EntryFee)
	if err != nil {
		s.releaseSlot(ctx, tournamentID)
		return nil, err
	}

	e := &domain.Enrollment{
		TournamentID: tournamentID,
		UserID:       userID,
		GameTag:      user.GameTag,
		FeePaid:      t.EntryFee,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.enrollments.Put(ctx, e); err != nil {
		if _, refundErr := s.users.AdjustPoints(ctx, userID, t.EntryFee); refundErr != nil {
			slog.Error("failed to refund entry fee after enrollment failure",
				"tournament_id", tournamentID, "user_id", userID, "err", refundErr)
		}
		s.releaseSlot(ctx, tournamentID)
		return nil, err
	}

	s.recordDebit(ctx, userID, tournamentID, t.EntryFee, balance)
	s.confirm(ctx, userID, t.Name)
	e.Tournament = t
	return e, nil
}

// ListMine returns the caller's enrollments with tournaments attached.
func (s *Service) ListMine(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	var es []domain.Enrollment
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		es, err = s.enrollments.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i := range es {
		t, err := s.tournaments.Get(ctx, es[i].TournamentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		s.attachBannerURL(ctx, t)
		es[i].Tournament = t
	}
	return es, nil
}

// ListPlayers returns the roster for a tournament. Admin only.
func (s *Service) ListPlayers(ctx context.Context, tournamentID string) ([]domain.Enrollment, error) {
	if _, err := s.Get(ctx, tournamentID); err != nil {
		return nil, err
	}
	var es []domain.Enrollment
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		es, err = s.enrollments.ListByTournament(ctx, tournamentID)
		return err
	})
	return es, err
}

func (s *Service) releaseSlot(ctx context.Context, tournamentID string) {
	if err := s.tournaments.ReleaseSlot(ctx, tournamentID); err != nil {
		slog.Error("failed to release reserved slot", "tournament_id", tournamentID, "err", err)
	}
}

// recordDebit appends the ledger entry; best-effort because the debit has
// already been applied atomically.
func (s *Service) recordDebit(ctx context.Context, userID, tournamentID string, fee, balance int64) {
	if fee == 0 {
		return
	}
	ref := tournamentID
	txn := &domain.Transaction{
		TransactionID: id.New(),
		UserID:        userID,
		Kind:          domain.TxnEnrollDebit,
		Amount:        -fee,
		BalanceAfter:  balance,
		Reference:     &ref,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.ledger.Put(ctx, txn); err != nil {
		slog.Warn("failed to record enrollment debit", "user_id", userID, "tournament_id", tournamentID, "err", err)
	}
}

func (s *Service) confirm(ctx context.Context, userID, tournamentName string) {
	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		Title:          "You're in!",
		Message:        fmt.Sprintf("Your spot in %s is confirmed.", tournamentName),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.notifications.Put(ctx, n); err != nil {
		slog.Warn("failed to store enrollment notification", "user_id", userID, "err", err)
	}
}

func (s *Service) attachBannerURL(ctx context.Context, t *domain.Tournament) {
	if t.BannerKey == nil || s.media == nil {
		return
	}
	url, err := s.media.PresignedURL(ctx, *t.BannerKey, bannerURLTTL)
	if err != nil {
		slog.Warn("failed to presign banner url", "tournament_id", t.TournamentID, "err", err)
		return
	}
	t.BannerURL = &url
}

func validStatus(s domain.TournamentStatus) bool {
	switch s {
	case domain.StatusUpcoming, domain.StatusRegistration, domain.StatusLive,
		domain.StatusCompleted, domain.StatusCanceled:
		return true
	}
	return false
}

// validTransition encodes the lifecycle; terminal states accept nothing.
func validTransition(from, to domain.TournamentStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case domain.StatusUpcoming:
		return to == domain.StatusRegistration || to == domain.StatusCanceled
	case domain.StatusRegistration:
		return to == domain.StatusLive || to == domain.StatusCanceled
	case domain.StatusLive:
		return to == domain.StatusCompleted || to == domain.StatusCanceled
	}
	return false
}
