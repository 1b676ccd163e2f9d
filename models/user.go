package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an author/reader account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	Email        string    `gorm:"size:255" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Provider     string    `gorm:"size:32" json:"-"`
	ProviderID   string    `gorm:"size:255;index" json:"-"`
	AvatarURL    string    `gorm:"size:512" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName returns the full name when set, otherwise the username.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// BeforeDelete removes everything the user owns: comments they wrote or that
// hang off their posts, their posts, and follow edges on both sides. It runs
// inside the delete transaction.
func (u *User) BeforeDelete(tx *gorm.DB) error {
	if u.ID == 0 {
		return nil
	}
	ownPosts := tx.Model(&Post{}).Select("id").Where("author_id = ?", u.ID)
	if err := tx.Where("author_id = ? OR post_id IN (?)", u.ID, ownPosts).Delete(&Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("author_id = ?", u.ID).Delete(&Post{}).Error; err != nil {
		return err
	}
	return tx.Where("user_id = ? OR author_id = ?", u.ID, u.ID).Delete(&Follow{}).Error
}
