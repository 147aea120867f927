package orderfilter

import (
	"fmt"
	"strings"
	"time"
)

// Selection is the dashboard filter state: the active mode plus both reference
// values. Only the one the mode reads matters, but both are kept so switching
// modes does not lose the other picker's value.
type Selection struct {
	Mode       Mode
	Day        Daily
	MonthYear  int
	MonthValue time.Month
}

// Filter builds the predicate for the active mode.
func (s Selection) Filter() Filter {
	switch s.Mode {
	case ModeMonthly:
		return Monthly{Year: s.MonthYear, Month: s.MonthValue}
	case ModeYearly:
		return Yearly{Year: s.Day.Year}
	default:
		return s.Day
	}
}

func (s Selection) DateKey() string { return s.Day.Period() }

func (s Selection) MonthKey() string { return MonthKey(s.MonthYear, s.MonthValue) }

// Parse reads the query values of the dashboard. Blank mode means daily; blank
// date and month default to the day and month of now.
func Parse(mode, date, month string, now time.Time) (Selection, error) {
	sel := Selection{
		Mode:       ModeDaily,
		Day:        DailyOf(now),
		MonthYear:  now.Year(),
		MonthValue: now.Month(),
	}

	switch Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case "", ModeDaily:
		sel.Mode = ModeDaily
	case ModeMonthly:
		sel.Mode = ModeMonthly
	case ModeYearly:
		sel.Mode = ModeYearly
	default:
		return Selection{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	if value := strings.TrimSpace(date); value != "" {
		day, err := parseDay(value, now.Location())
		if err != nil {
			return Selection{}, err
		}
		sel.Day = day
	}

	if value := strings.TrimSpace(month); value != "" {
		year, m, err := ParseMonthKey(value)
		if err != nil {
			return Selection{}, err
		}
		sel.MonthYear = year
		sel.MonthValue = m
	}

	return sel, nil
}

// parseDay accepts YYYY-MM-DD, RFC3339 (converted to loc first) or a bare year,
// which yearly mode uses.
func parseDay(value string, loc *time.Location) (Daily, error) {
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return DailyOf(parsed), nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return DailyOf(parsed.In(loc)), nil
	}
	if parsed, err := time.Parse("2006", value); err == nil {
		return DailyOf(parsed), nil
	}
	return Daily{}, fmt.Errorf("%w: date %q", ErrInvalidReference, value)
}
