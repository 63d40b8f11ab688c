package periods

import "time"

// PeriodState enumerates valid period states.
type PeriodState string

const (
	PeriodStateOpen   PeriodState = "OPEN"
	PeriodStateClosed PeriodState = "CLOSED"
)

// Period represents a calendar-month accounting window.
type Period struct {
	ID        int64
	Year      int
	Month     int
	Name      string
	StartDate time.Time
	EndDate   time.Time
	State     PeriodState
	ClosedAt  *time.Time
	ClosedBy  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers reports whether the supplied date falls inside the period window.
// Dates compare at day precision; the end date is inclusive, so a timestamp
// late on the period's last day still counts.
func (p Period) Covers(date time.Time) bool {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(p.StartDate) && !day.After(p.EndDate)
}
