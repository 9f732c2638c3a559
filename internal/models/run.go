// internal/models/run.go
package models

import "time"

// Run statuses
const (
	RunStatusNoDelays   = "no_delays"
	RunStatusSent       = "sent"
	RunStatusMailFailed = "mail_failed"
)

// NotificationRun is the audit row written after every delay run.
type NotificationRun struct {
	ID           string    `json:"id"`
	RunAt        time.Time `json:"runAt"`
	Customers    int       `json:"customers"`
	Branches     int       `json:"branches"`
	Applications int       `json:"applications"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
}
