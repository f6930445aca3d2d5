package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Phone        *string    `json:"phone,omitempty" dynamodbav:"phone"`
	Email        *string    `json:"email,omitempty" dynamodbav:"email"`
	Name         string     `json:"name" dynamodbav:"name"`
	GameTag      string     `json:"game_tag" dynamodbav:"game_tag"` // in-game player id shown on brackets
	Points       int64      `json:"points" dynamodbav:"points"`
	Role         string     `json:"role" dynamodbav:"role"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"` // set for admin accounts only
	Enable       bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type UpdateUserRequest struct {
	Name    *string `json:"name"`
	GameTag *string `json:"game_tag"`
	Email   *string `json:"email" validate:"omitempty,email"`
}
