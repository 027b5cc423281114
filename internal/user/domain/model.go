package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// User is owned locally but keyed by the identity provider's opaque id.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	Email     string    `json:"email" gorm:"type:text;not null;index"`
	Name      string    `json:"name" gorm:"type:text"`
	AvatarURL string    `json:"avatar_url" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (User) TableName() string { return "users" }

var (
	ErrUserNotFound = errors.New("user_not_found")
	ErrInvalidUser  = errors.New("invalid_user")
)

type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, u *User) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*User, error)
	Update(ctx context.Context, db *gorm.DB, u *User) error
	Delete(ctx context.Context, db *gorm.DB, id string) error
}

type Service interface {
	EnsureUser(ctx context.Context, u User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error)
	DeleteAccount(ctx context.Context, id string) error
}
