package models

import "time"

// CommentMaxLength bounds comment text, in characters.
const CommentMaxLength = 300

// Comment is a reply to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	Text      string    `gorm:"size:300;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created"`
	UpdatedAt time.Time `json:"-"`
	AuthorID  uint      `gorm:"index;not null" json:"-"`
	Author    User      `json:"author"`
}
