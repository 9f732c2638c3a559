// internal/models/application.go
package models

import "time"

// Application is a background-verification case raised for a customer branch.
// ReportDate stays nil until the verification report goes out; only such
// pending applications are candidates for delay evaluation.
type Application struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"createdAt"`
	CustomerID string     `json:"customerId"`
	BranchID   string     `json:"branchId"`
	ReportDate *time.Time `json:"reportDate,omitempty"`
}

// PendingApplication is one row of the applications+customers+branches join
// the delay run computes over. TATDays is carried as raw text from the
// customer contract; parsing and range checks happen in the aggregator.
type PendingApplication struct {
	ApplicationID   string
	ApplicationName string
	CreatedAt       time.Time
	Customer        Customer
	Branch          Branch
	TATDays         string
}
