// Package schedule answers market-day and session questions for the NYSE.
package schedule

import (
	"time"

	"github.com/scmhub/calendar"
)

// Regular session bounds in exchange time.
const (
	openHour, openMinute   = 9, 30
	closeHour, closeMinute = 16, 0
)

// Session checks market days and regular trading hours.
type Session struct {
	location *time.Location
	nyse     *calendar.Calendar
}

// New creates a Session evaluated in timezone; an unknown zone falls back to
// America/New_York, then UTC.
func New(timezone string) *Session {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc, err = time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
	}
	return &Session{
		location: loc,
		nyse:     calendar.XNYS(),
	}
}

// IsMarketDay checks if the given date is a trading day (not weekend/holiday)
func (s *Session) IsMarketDay(dateStr string) bool {
	// Parse as noon in the configured timezone to ensure correct date matching
	t, err := time.ParseInLocation("2006-01-02 15:04:05", dateStr+" 12:00:00", s.location)
	if err != nil {
		return false
	}
	return s.nyse.IsBusinessDay(t)
}

// IsOpen reports whether t falls inside a regular session on a market day.
func (s *Session) IsOpen(t time.Time) bool {
	local := t.In(s.location)
	if !s.nyse.IsBusinessDay(local) {
		return false
	}
	open := time.Date(local.Year(), local.Month(), local.Day(), openHour, openMinute, 0, 0, s.location)
	closing := time.Date(local.Year(), local.Month(), local.Day(), closeHour, closeMinute, 0, 0, s.location)
	return !local.Before(open) && local.Before(closing)
}

// PreviousMarketDay returns the last market day strictly before dateStr.
func (s *Session) PreviousMarketDay(dateStr string) (string, bool) {
	t, err := time.ParseInLocation("2006-01-02", dateStr, s.location)
	if err != nil {
		return "", false
	}
	for i := 0; i < 10; i++ {
		t = t.AddDate(0, 0, -1)
		d := t.Format("2006-01-02")
		if s.IsMarketDay(d) {
			return d, true
		}
	}
	return "", false
}

// TodayDate returns today's date in YYYY-MM-DD format in the session timezone
func (s *Session) TodayDate() string {
	return time.Now().In(s.location).Format("2006-01-02")
}

// Location returns the session timezone.
func (s *Session) Location() *time.Location {
	return s.location
}
