package models

import "time"

// PageView is the number of successful GETs of one path on one calendar day.
type PageView struct {
	Day       time.Time `gorm:"primaryKey;type:date" json:"day"`
	Path      string    `gorm:"primaryKey;size:255" json:"path"`
	Views     int64     `gorm:"not null;default:0" json:"views"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Today truncates t to local midnight, the key page views are counted under.
func Today(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
