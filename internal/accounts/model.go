package accounts

import (
	"strings"
	"time"
)

// Role values assignable to an account.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account holds the profile record keyed by the identity-provider user id.
type Account struct {
	UserID       string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:190;not null"`
	DisplayName  string    `gorm:"column:display_name;size:320"`
	Company      string    `gorm:"column:company;size:320"`
	Phone        string    `gorm:"column:phone;size:64"`
	Role         string    `gorm:"column:role;size:32;not null;default:user"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing account profiles.
func (Account) TableName() string {
	return "accounts"
}

// ProfileUpdate carries the self-service editable profile fields.
type ProfileUpdate struct {
	DisplayName string
	Company     string
	Phone       string
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
