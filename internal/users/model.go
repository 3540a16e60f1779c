package users

import (
	"strings"
	"time"
)

// User is one local account. Identity is scoped per provider: the same email
// under two providers would be two distinct rows, except that signup under a
// second provider is rejected as a conflict before the row is ever created.
type User struct {
	ID           string    `gorm:"column:id;primaryKey;size:190;not null"`
	Provider     string    `gorm:"column:provider;size:32;not null;uniqueIndex:idx_users_email_provider,priority:2"`
	Email        string    `gorm:"column:email;size:320;not null;index:idx_users_email;uniqueIndex:idx_users_email_provider,priority:1"`
	Nickname     string    `gorm:"column:nickname;size:320;not null;default:''"`
	UserImage    string    `gorm:"column:user_image;size:512;not null;default:''"`
	UserMemo     string    `gorm:"column:user_memo;type:text;not null;default:''"`
	AccessToken  string    `gorm:"column:access_token;type:text;not null;default:''"`
	RefreshToken string    `gorm:"column:refresh_token;type:text;not null;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName exposes the table backing local accounts.
func (User) TableName() string {
	return "users"
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
