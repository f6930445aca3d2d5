package domain

import "time"

// Enrollment ties a user to a tournament.
// PK: tournament_id, SK: user_id — the composite key makes duplicate
// enrollment a conditional-write conflict rather than a read-then-check race.
type Enrollment struct {
	TournamentID string    `json:"tournament_id" dynamodbav:"tournament_id"`
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	GameTag      string    `json:"game_tag" dynamodbav:"game_tag"` // snapshot at enroll time
	FeePaid      int64     `json:"fee_paid" dynamodbav:"fee_paid"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`

	Tournament *Tournament `json:"tournament,omitempty" dynamodbav:"-"`
}
