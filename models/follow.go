package models

import "time"

// Follow is a directed edge: User follows Author. The pair is unique.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"user_id"`
	User      User      `json:"-"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"author_id"`
	Author    User      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
