// internal/models/customer.go
package models

// Customer is a client company with a contractual turnaround time.
type Customer struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Emails   []string `json:"emails"`
	UniqueID string   `json:"uniqueId"`
	Mobile   string   `json:"mobile"`
}

// Branch belongs to exactly one customer.
type Branch struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile"`
	CustomerID string `json:"customerId"`
}
