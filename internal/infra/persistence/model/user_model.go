package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table.
type UserModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex:users_email_key;not null"`
	Username      string    `gorm:"type:varchar(50);uniqueIndex:users_username_key;not null"`
	PasswordHash  string    `gorm:"type:varchar(255);not null"`
	FirstName     *string   `gorm:"type:varchar(100)"`
	LastName      *string   `gorm:"type:varchar(100)"`
	AvatarURL     *string   `gorm:"type:text"`
	Bio           *string   `gorm:"type:text"`
	Role          string    `gorm:"type:varchar(20);not null;default:user"`
	Status        string    `gorm:"type:varchar(20);not null;default:active"`
	EmailVerified bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   *time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
