// internal/models/calendar.go
package models

import "time"

// Holiday is a calendar date on which business-day counting does not
// advance, regardless of weekday.
type Holiday struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// WeekendConfig is the active company-info record naming the weekday
// names (e.g. "saturday", "sunday") excluded from business-day counting.
type WeekendConfig struct {
	ID   string   `json:"id"`
	Days []string `json:"days"`
}
