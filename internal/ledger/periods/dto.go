package periods

import "errors"

// CreatePeriodInput groups fields required to create a period.
type CreatePeriodInput struct {
	Year  int
	Month int
	Name  string
}

// Validate ensures the input describes a real calendar month.
func (in CreatePeriodInput) Validate() error {
	if in.Year < 1900 || in.Year > 9999 {
		return errors.New("periods: year out of range")
	}
	if in.Month < 1 || in.Month > 12 {
		return errors.New("periods: month must be 1-12")
	}
	return nil
}

// ListFilter narrows period listings.
type ListFilter struct {
	Year  *int
	State *PeriodState
}
