// Package orderfilter narrows an order list to one day, month or year and
// labels the result for the dashboard summary card.
package orderfilter

import (
	"fmt"
	"strconv"
	"time"
)

type Mode string

const (
	ModeDaily   Mode = "daily"
	ModeMonthly Mode = "monthly"
	ModeYearly  Mode = "yearly"
)

const DailyLabel = "Bugungi Buyurtmalar"

// Dated is anything with a timestamp the filters can test.
type Dated interface {
	At() time.Time
}

// Filter is one of Daily, Monthly or Yearly.
type Filter interface {
	Mode() Mode
	// Match reports whether t, already converted to the portal location, is inside the filter.
	Match(t time.Time) bool
	Label() string
	Period() string
	sealed()
}

type Daily struct {
	Year  int
	Month time.Month
	Day   int
}

// DailyOf takes the calendar date of t in t's own location.
func DailyOf(t time.Time) Daily {
	y, m, d := t.Date()
	return Daily{Year: y, Month: m, Day: d}
}

func (f Daily) Mode() Mode { return ModeDaily }

func (f Daily) Match(t time.Time) bool {
	y, m, d := t.Date()
	return y == f.Year && m == f.Month && d == f.Day
}

func (f Daily) Label() string { return DailyLabel }

func (f Daily) Period() string {
	return fmt.Sprintf("%04d-%02d-%02d", f.Year, int(f.Month), f.Day)
}

func (Daily) sealed() {}

type Monthly struct {
	Year  int
	Month time.Month
}

func (f Monthly) Mode() Mode { return ModeMonthly }

func (f Monthly) Match(t time.Time) bool {
	return t.Year() == f.Year && t.Month() == f.Month
}

func (f Monthly) Label() string { return MonthName(f.Month) + " Buyurtmalari" }

func (f Monthly) Period() string { return MonthName(f.Month) + " " + strconv.Itoa(f.Year) }

func (Monthly) sealed() {}

type Yearly struct {
	Year int
}

func (f Yearly) Mode() Mode { return ModeYearly }

func (f Yearly) Match(t time.Time) bool { return t.Year() == f.Year }

func (f Yearly) Label() string { return strconv.Itoa(f.Year) + " Yil Buyurtmalari" }

func (f Yearly) Period() string { return strconv.Itoa(f.Year) }

func (Yearly) sealed() {}

// Result is the filtered subset plus the summary card. Items is never nil.
type Result[T any] struct {
	Mode   Mode
	Label  string
	Period string
	Count  int
	Items  []T
}

// Apply keeps the items whose timestamp, seen in loc, matches f. Input order is kept.
func Apply[T Dated](items []T, f Filter, loc *time.Location) Result[T] {
	if loc == nil {
		loc = time.UTC
	}
	matched := make([]T, 0)
	for _, item := range items {
		at := item.At()
		if at.IsZero() {
			continue
		}
		if f.Match(at.In(loc)) {
			matched = append(matched, item)
		}
	}
	return Result[T]{
		Mode:   f.Mode(),
		Label:  f.Label(),
		Period: f.Period(),
		Count:  len(matched),
		Items:  matched,
	}
}
