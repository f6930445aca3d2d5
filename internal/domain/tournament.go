package domain

import "time"

// TournamentStatus is a closed enum; transitions are validated in the
// tournament service (upcoming → registration → live → completed, any
// non-terminal state → canceled).
type TournamentStatus string

const (
	StatusUpcoming     TournamentStatus = "upcoming"
	StatusRegistration TournamentStatus = "registration"
	StatusLive         TournamentStatus = "live"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

type Tournament struct {
	TournamentID  string           `json:"id" dynamodbav:"tournament_id"`
	Name          string           `json:"name" dynamodbav:"name"`
	Game          string           `json:"game" dynamodbav:"game"`
	Description   *string          `json:"description,omitempty" dynamodbav:"description"`
	EntryFee      int64            `json:"entry_fee" dynamodbav:"entry_fee"` // points debited on enroll
	PrizePool     int64            `json:"prize_pool" dynamodbav:"prize_pool"`
	MaxPlayers    int              `json:"max_players" dynamodbav:"max_players"`
	EnrolledCount int              `json:"enrolled_count" dynamodbav:"enrolled_count"`
	RegCloseAt    time.Time        `json:"reg_close_at" dynamodbav:"reg_close_at"`
	StartAt       time.Time        `json:"start_at" dynamodbav:"start_at"`
	Status        TournamentStatus `json:"status" dynamodbav:"status"`
	BannerKey     *string          `json:"-" dynamodbav:"banner_key"`
	BannerURL     *string          `json:"banner_url,omitempty" dynamodbav:"-"`
	CreatedAt     time.Time        `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time        `json:"updated" dynamodbav:"updated_at"`
}

type CreateTournamentRequest struct {
	Name        string  `json:"name" validate:"required"`
	Game        string  `json:"game" validate:"required"`
	Description *string `json:"description"`
	EntryFee    int64   `json:"entry_fee" validate:"gte=0"`
	PrizePool   int64   `json:"prize_pool" validate:"gte=0"`
	MaxPlayers  int     `json:"max_players" validate:"required,gt=0"`
	RegCloseAt  string  `json:"reg_close_at" validate:"required"` // RFC 3339
	StartAt     string  `json:"start_at" validate:"required"`     // RFC 3339
}

type UpdateTournamentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PrizePool   *int64  `json:"prize_pool" validate:"omitempty,gte=0"`
	RegCloseAt  *string `json:"reg_close_at"`
	StartAt     *string `json:"start_at"`
	Status      *string `json:"status"`
}
