package core

import (
	"fmt"
	"time"
)

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// String returns the "YYYY-MM" key.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// First returns midnight UTC of the first day.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns midnight UTC of the last day.
func (m Month) LastDay() time.Time {
	return m.First().AddDate(0, 1, -1)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.LastDay().Day()
}

// LastDayKey returns the YYYY-MM-DD key of the last day of the month.
func (m Month) LastDayKey() string {
	return m.LastDay().Format(time.DateOnly)
}

// Contains reports whether a YYYY-MM-DD key falls in the month.
func (m Month) Contains(dateKey string) bool {
	return len(dateKey) >= 7 && dateKey[:7] == m.String()
}

func (m Month) Next() Month { return MonthOf(m.First().AddDate(0, 1, 0)) }
func (m Month) Prev() Month { return MonthOf(m.First().AddDate(0, -1, 0)) }
