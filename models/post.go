package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a blog entry written by a user, optionally published into a group.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"pub_date"`
	UpdatedAt time.Time `json:"-"`
	AuthorID  uint      `gorm:"index;not null" json:"-"`
	Author    User      `json:"author"`
	GroupID   *uint     `gorm:"index" json:"-"`
	Group     *Group    `json:"group,omitempty"`
	Image     string    `gorm:"size:255" json:"image,omitempty"`
	Comments  []Comment `json:"-"`
}

// Excerpt returns the first 15 characters of the text.
func (p Post) Excerpt() string {
	r := []rune(p.Text)
	if len(r) > 15 {
		return string(r[:15])
	}
	return p.Text
}

// BeforeDelete removes the post's comments in the same transaction.
func (p *Post) BeforeDelete(tx *gorm.DB) error {
	if p.ID == 0 {
		return nil
	}
	return tx.Where("post_id = ?", p.ID).Delete(&Comment{}).Error
}
