// internal/models/admin.go
package models

// AdminUser is one recipient on the active admin roster.
type AdminUser struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile,omitempty"`
}
