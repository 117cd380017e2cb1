// Package tradingcal converts snapshot dates into elapsed time and checks
// them against the NYSE trading calendar.
package tradingcal

import (
	"errors"
	"fmt"
	"time"

	"github.com/scmhub/calendar"
)

const DateLayout = "2006-01-02"

var ErrNegativeInterval = errors.New("end date is before start date")

// Calendar answers trading-day questions in exchange-local time.
type Calendar struct {
	location *time.Location
	nyse     *calendar.Calendar
}

// New returns an NYSE calendar. Dates are evaluated at noon New York time;
// if the zone database is unavailable UTC is used.
func New() *Calendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &Calendar{location: loc, nyse: calendar.XNYS()}
}

// ParseDate parses YYYY-MM-DD as noon in the calendar's zone so the date
// never shifts across a day boundary.
func (c *Calendar) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s+" 12:00:00", c.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// IsTradingDay reports whether the date is an NYSE session (not a weekend or holiday).
func (c *Calendar) IsTradingDay(date string) (bool, error) {
	t, err := c.ParseDate(date)
	if err != nil {
		return false, err
	}
	return c.nyse.IsBusinessDay(t), nil
}

// ElapsedDays returns calendar days between two dates, the unit used by
// P&L attribution.
func (c *Calendar) ElapsedDays(from, to string) (float64, error) {
	a, b, err := c.parsePair(from, to)
	if err != nil {
		return 0, err
	}
	return float64(daysBetween(a, b)), nil
}

// TradingDaysBetween counts sessions in (from, to].
func (c *Calendar) TradingDaysBetween(from, to string) (int, error) {
	a, b, err := c.parsePair(from, to)
	if err != nil {
		return 0, err
	}

	n := 0
	for d := a.AddDate(0, 0, 1); !d.After(b); d = d.AddDate(0, 0, 1) {
		if c.nyse.IsBusinessDay(d) {
			n++
		}
	}
	return n, nil
}

func (c *Calendar) parsePair(from, to string) (time.Time, time.Time, error) {
	a, err := c.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	b, err := c.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if b.Before(a) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s < %s", ErrNegativeInterval, to, from)
	}
	return a, b, nil
}

// daysBetween counts date steps, so DST transitions do not produce fractions.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
