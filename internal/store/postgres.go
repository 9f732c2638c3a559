// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"bgverify-jobs/internal/models"
)

// Store runs the read queries the delay job needs plus the run audit
// insert. The *sql.DB handle is passed in explicitly and scoped to the
// process lifetime; there is no package-level connection.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// PendingApplications fetches every application without a report date,
// joined with its customer contract and branch fields. Row order drives
// the grouping order of the delay hierarchy.
func (s *Store) PendingApplications(ctx context.Context) ([]models.PendingApplication, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.created_at,
		       c.id, c.name, c.emails, c.unique_id, COALESCE(c.mobile, ''), COALESCE(c.tat_days, ''),
		       b.id, b.name, COALESCE(b.email, ''), COALESCE(b.mobile, '')
		FROM applications a
		JOIN customers c ON c.id = a.customer_id
		JOIN branches b ON b.id = a.branch_id
		WHERE a.report_date IS NULL
		ORDER BY c.id, b.id, a.created_at`)
	if err != nil {
		return nil, fmt.Errorf("query pending applications: %w", err)
	}
	defer rows.Close()

	var result []models.PendingApplication
	for rows.Next() {
		var (
			row    models.PendingApplication
			emails pq.StringArray
		)
		err := rows.Scan(
			&row.ApplicationID, &row.ApplicationName, &row.CreatedAt,
			&row.Customer.ID, &row.Customer.Name, &emails, &row.Customer.UniqueID,
			&row.Customer.Mobile, &row.TATDays,
			&row.Branch.ID, &row.Branch.Name, &row.Branch.Email, &row.Branch.Mobile,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pending application: %w", err)
		}
		row.Customer.Emails = emails
		row.Branch.CustomerID = row.Customer.ID
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending applications: %w", err)
	}

	return result, nil
}

// Holidays fetches all holiday records.
func (s *Store) Holidays(ctx context.Context) ([]models.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, holiday_date
		FROM holidays
		ORDER BY holiday_date`)
	if err != nil {
		return nil, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	var result []models.Holiday
	for rows.Next() {
		var h models.Holiday
		if err := rows.Scan(&h.ID, &h.Title, &h.Date); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holidays: %w", err)
	}

	return result, nil
}

// ActiveWeekendConfig fetches the single active company-info record.
// No active record returns (nil, nil); the caller treats every weekday
// as a business day.
func (s *Store) ActiveWeekendConfig(ctx context.Context) (*models.WeekendConfig, error) {
	var (
		cfg  models.WeekendConfig
		days pq.StringArray
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, weekend_days
		FROM company_info
		WHERE status = 'active'
		LIMIT 1`).Scan(&cfg.ID, &days)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query weekend configuration: %w", err)
	}
	cfg.Days = days

	return &cfg, nil
}

// ActiveAdmins fetches the active users holding role, the roster the
// delay report goes to.
func (s *Store) ActiveAdmins(ctx context.Context, role string) ([]models.AdminUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, email, COALESCE(mobile, '')
		FROM users
		WHERE role = $1 AND status = 'active'
		ORDER BY name`, role)
	if err != nil {
		return nil, fmt.Errorf("query active admins: %w", err)
	}
	defer rows.Close()

	var result []models.AdminUser
	for rows.Next() {
		var u models.AdminUser
		if err := rows.Scan(&u.Name, &u.Email, &u.Mobile); err != nil {
			return nil, fmt.Errorf("scan admin user: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active admins: %w", err)
	}

	return result, nil
}

// RecordRun writes the audit row for a completed delay run.
func (s *Store) RecordRun(ctx context.Context, run models.NotificationRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tat_notification_runs (id, run_at, customers, branches, applications, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.RunAt, run.Customers, run.Branches, run.Applications, run.Status, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert notification run: %w", err)
	}
	return nil
}
