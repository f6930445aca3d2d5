package tournament

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tourney-api/internal/domain"
)

type mockTournaments struct{ mock.Mock }

func (m *mockTournaments) Put(ctx context.Context, t *domain.Tournament) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTournaments) Get(ctx context.Context, tournamentID string) (*domain.Tournament, error) {
	args := m.Called(ctx, tournamentID)
	t, _ := args.Get(0).(*domain.Tournament)
	return t, args.Error(1)
}
func (m *mockTournaments) Update(ctx context.Context, tournamentID string, updates map[string]interface{}) error {
	return m.Called(ctx, tournamentID, updates).Error(0)
}
func (m *mockTournaments) ListByStatus(ctx context.Context, status domain.TournamentStatus) ([]domain.Tournament, error) {
	args := m.Called(ctx, status)
	ts, _ := args.Get(0).([]domain.Tournament)
	return ts, args.Error(1)
}
func (m *mockTournaments) Scan(ctx context.Context) ([]domain.Tournament, error) {
	args := m.Called(ctx)
	ts, _ := args.Get(0).([]domain.Tournament)
	return ts, args.Error(1)
}
func (m *mockTournaments) ReserveSlot(ctx context.Context, tournamentID string) error {
	return m.Called(ctx, tournamentID).Error(0)
}
func (m *mockTournaments) ReleaseSlot(ctx context.Context, tournamentID string) error {
	return m.Called(ctx, tournamentID).Error(0)
}

type mockEnrollments struct{ mock.Mock }

func (m *mockEnrollments) Put(ctx context.Context, e *domain.Enrollment) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockEnrollments) Get(ctx context.Context, tournamentID, userID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, tournamentID, userID)
	e, _ := args.Get(0).(*domain.Enrollment)
	return e, args.Error(1)
}
func (m *mockEnrollments) ListByTournament(ctx context.Context, tournamentID string) ([]domain.Enrollment, error) {
	args := m.Called(ctx, tournamentID)
	es, _ := args.Get(0).([]domain.Enrollment)
	return es, args.Error(1)
}
func (m *mockEnrollments) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	args := m.Called(ctx, userID)
	es, _ := args.Get(0).([]domain.Enrollment)
	return es, args.Error(1)
}
func (m *mockEnrollments) Delete(ctx context.Context, tournamentID, userID string) error {
	return m.Called(ctx, tournamentID, userID).Error(0)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}
func (m *mockUsers) AdjustPoints(ctx context.Context, userID string, delta int64) (int64, error) {
	args := m.Called(ctx, userID, delta)
	return int64(args.Int(0)), args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Put(ctx context.Context, t *domain.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

type mockNotifications struct{ mock.Mock }

func (m *mockNotifications) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type mockMedia struct{ mock.Mock }

func (m *mockMedia) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}
func (m *mockMedia) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
func (m *mockMedia) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type deps struct {
	tournaments   *mockTournaments
	enrollments   *mockEnrollments
	users         *mockUsers
	ledger        *mockLedger
	notifications *mockNotifications
	media         *mockMedia
	svc           *Service
}

func newDeps() *deps {
	d := &deps{
		tournaments:   &mockTournaments{},
		enrollments:   &mockEnrollments{},
		users:         &mockUsers{},
		ledger:        &mockLedger{},
		notifications: &mockNotifications{},
		media:         &mockMedia{},
	}
	d.svc = NewService(d.tournaments, d.enrollments, d.users, d.ledger, d.notifications, d.media)
	return d
}

const (
	tournamentID = "t-1"
	userID       = "u-1"
)

func openTournament() *domain.Tournament {
	return &domain.Tournament{
		TournamentID: tournamentID,
		Name:         "Friday Clash",
		Game:         "valorant",
		EntryFee:     100,
		MaxPlayers:   16,
		RegCloseAt:   time.Now().Add(time.Hour),
		StartAt:      time.Now().Add(2 * time.Hour),
		Status:       domain.StatusRegistration,
	}
}

func player() *domain.User {
	return &domain.User{UserID: userID, GameTag: "ace#1234", Points: 500, Enable: true}
}

func TestEnroll_HappyPath(t *testing.T) {
	d := newDeps()
	d.tournaments.On("Get", mock.Anything, tournamentID).Return(openTournament(), nil)
	d.users.On("Get", mock.Anything, userID).Return(player(), nil)
	d.tournaments.On("ReserveSlot", mock.Anything, tournamentID).Return(nil)
	d.users.On("AdjustPoints", mock.Anything, userID, int64(-100)).Return(400, nil)
	d.enrollments.On("Put", mock.Anything, mock.MatchedBy(func(e *domain.Enrollment) bool {
		return e.TournamentID == tournamentID && e.UserID == userID &&
			e.GameTag == "ace#1234" && e.FeePaid == 100
	})).Return(nil)
	d.ledger.On("Put", mock.Anything, mock.MatchedBy(func(txn *domain.Transaction) bool {
		return txn.Kind == domain.TxnEnrollDebit && txn.Amount == -100 && txn.BalanceAfter == 400
	})).Return(nil)
	d.notifications.On("Put", mock.Anything, mock.Anything).Return(nil)

	e, err := d.svc.Enroll(context.Background(), tournamentID, userID)
	require.NoError(t, err)
	assert.Equal(t, "ace#1234", e.GameTag)
	require.NotNil(t, e.Tournament)
	d.tournaments.AssertNotCalled(t, "ReleaseSlot", mock.Anything, mock.Anything)
}

func TestEnroll_RegistrationNotOpen(t *testing.T) {
	d := newDeps()
	tourney := openTournament()
	tourney.Status = domain.StatusUpcoming
	d.tournaments.On("Get", mock.Anything, tournamentID).Return(tourney, nil)

	_, err := d.svc.Enroll(context.Background(), tournamentID, userID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRegistrationClosed))
	d.tournaments.AssertNotCalled(t, "ReserveSlot", mock.Anything, mock.Anything)
}

func TestEnroll_RegistrationWindowClosed(t *testing.T) {
	d := newDeps()
	tourney := openTournament()
	tourney.RegCloseAt = time.Now().Add(-time.Minute)
	d.tournaments.On("Get", mock.Anything, tournamentID).Return(tourney, nil)

	_, err := d.svc.Enroll(context.Background(), tournamentID, userID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRegistrationClosed))
}

func TestEnroll_MissingGameTag(t *testing.T) {
	d := newDeps()
	d.tournaments.On("Get", mock.Anything, tournamentID).Return(openTournament(), nil)
	noTag := player()
	noTag.GameTag = ""
	d.users.On("Get", mock.Anything, userID).Return(noTag, nil)

	_, err := d.svc.Enroll(context.Background(), tournamentID, userID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	d.tournaments.AssertNotCalled(t, "ReserveSlot", mock.Anything, mock.Anything)
}

func TestEnroll_TournamentFull(t *testing.T) {
	d := newDeps()
	d.tournaments.On("Get", mock.Anything, tournamentID).Return(openTournament(), nil)
	d.users.On("Get", mock.Anything, userID).Return(player(), nil)
	d.tournaments.On("ReserveSlot", mock.Anything, tournamentID).
		Return(fmt.Errorf("no slots left: %w", domain.ErrTournamentFull))

	_, err := d.svc.Enroll(context.Background(), tournamentID, userID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTournamentFull))
	d.users.AssertNotCalled(t, "AdjustPoints", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnroll_InsufficientPoints_ReleasesSlot(t *testing.T) {
	d := newDeps()
	d.tournaments.On("Get", mock.Anything, tournamentID).Return(openTournament(), nil)
	d.users.On("Get", mock.Anything, userID).Return(player(), nil)
	d.tournaments.On("ReserveSlot", mock.Anything, tournamentID).Return(nil)
	d.users.On("AdjustPoints", mock.Anything, userID, int64(-100)).
		Return(0, fmt.Errorf("balance too low: %w", domain.ErrInsufficientPoints))
	d.tournaments.On("ReleaseSlot", mock.Anything, tournamentID).Return(nil)

	_, err := d.svc.Enroll(context.Background(), tournamentID, userID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientPoints))
	d.tournaments.AssertCalled(t, "ReleaseSlot", mock.Anything, tournamentID)
	d.enrollments.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestEnroll_DuplicateRefundsAndReleases(t *testing.T) {
	d := newDeps()
	d.tournaments.On("Get", mock.Anything, tournamentID).Return(openTournament(), nil)
	d.users.On("Get", mock.Anything, userID).Return(player(), nil)
	d.tournaments.On("ReserveSlot", mock.Anything, tournamentID).Return(nil)
	d.users.On("AdjustPoints", mock.Anything, userID, int64(-100)).Return(400, nil)
	d.enrollments.On("Put", mock.Anything, mock.Anything).
		Return(fmt.Errorf("exists: %w", domain.ErrAlreadyEnrolled))
	d.users.On("AdjustPoints", mock.Anything, userID, int64(100)).Return(500, nil)
	d.tournaments.On("ReleaseSlot", mock.Anything, tournamentID).Return(nil)

	_, err := d.svc.Enroll(context.Background(), tournamentID, userID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyEnrolled))
	d.users.AssertCalled(t, "AdjustPoints", mock.Anything, userID, int64(100))
	d.tournaments.AssertCalled(t, "ReleaseSlot", mock.Anything, tournamentID)
}

func TestCreate_RegMustCloseBeforeStart(t *testing.T) {
	d := newDeps()
	start := time.Now().Add(time.Hour)
	req := &domain.CreateTournamentRequest{
		Name:       "Friday Clash",
		Game:       "valorant",
		MaxPlayers: 16,
		RegCloseAt: start.Add(time.Minute).Format(time.RFC3339),
		StartAt:    start.Format(time.RFC3339),
	}
	_, err := d.svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	d.tournaments.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_StartsUpcoming(t *testing.T) {
	d := newDeps()
	d.tournaments.On("Put", mock.Anything, mock.MatchedBy(func(tr *domain.Tournament) bool {
		return tr.Status == domain.StatusUpcoming && tr.TournamentID != ""
	})).Return(nil)

	start := time.Now().Add(2 * time.Hour)
	req := &domain.CreateTournamentRequest{
		Name:       "Friday Clash",
		Game:       "valorant",
		MaxPlayers: 16,
		RegCloseAt: start.Add(-time.Hour).Format(time.RFC3339),
		StartAt:    start.Format(time.RFC3339),
	}
	tr, err := d.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUpcoming, tr.Status)
}

func TestUpdate_StatusTransitions(t *testing.T) {
	cases := []struct {
		from, to domain.TournamentStatus
		ok       bool
	}{
		{domain.StatusUpcoming, domain.StatusRegistration, true},
		{domain.StatusRegistration, domain.StatusLive, true},
		{domain.StatusLive, domain.StatusCompleted, true},
		{domain.StatusUpcoming, domain.StatusCanceled, true},
		{domain.StatusRegistration, domain.StatusCanceled, true},
		{domain.StatusLive, domain.StatusCanceled, true},
		{domain.StatusUpcoming, domain.StatusLive, false},
		{domain.StatusCompleted, domain.StatusLive, false},
		{domain.StatusCanceled, domain.StatusRegistration, false},
		{domain.StatusCompleted, domain.StatusCanceled, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_to_%s", tc.from, tc.to), func(t *testing.T) {
			d := newDeps()
			tourney := openTournament()
			tourney.Status = tc.from
			d.tournaments.On("Get", mock.Anything, tournamentID).Return(tourney, nil)
			if tc.ok {
				d.tournaments.On("Update", mock.Anything, tournamentID, mock.Anything).Return(nil)
			}

			status := string(tc.to)
			_, err := d.svc.Update(context.Background(), tournamentID, &domain.UpdateTournamentRequest{Status: &status})
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidStatusChange))
			}
		})
	}
}

func TestList_AttachesBannerURLs(t *testing.T) {
	d := newDeps()
	key := "tournaments/t-1/banner.png"
	tourney := *openTournament()
	tourney.BannerKey = &key
	d.tournaments.On("Scan", mock.Anything).Return([]domain.Tournament{tourney}, nil)
	d.media.On("PresignedURL", mock.Anything, key, mock.Anything).Return("https://cdn.example/banner.png", nil)

	ts, err := d.svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, ts, 1)
	require.NotNil(t, ts[0].BannerURL)
	assert.Equal(t, "https://cdn.example/banner.png", *ts[0].BannerURL)
}

func TestList_UnknownStatusRejected(t *testing.T) {
	d := newDeps()
	_, err := d.svc.List(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	d.tournaments.AssertNotCalled(t, "ListByStatus", mock.Anything, mock.Anything)
}
