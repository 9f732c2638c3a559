// internal/notify/mailer.go
package notify

import "context"

// Mailer delivers a rendered HTML body to a recipient list. The delay run
// never retries a rejected send; the next scheduled run recomputes from
// live data.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

// SMSSender delivers the short escalation text to one mobile number.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}
