package orderfilter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var monthNames = [12]string{
	"Yanvar", "Fevral", "Mart", "Aprel", "May", "Iyun",
	"Iyul", "Avgust", "Sentyabr", "Oktyabr", "Noyabr", "Dekabr",
}

// MonthName returns the Uzbek name of m, or "" when m is out of range.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// MonthKey formats a month the way the dashboard month picker does: "2024-3".
func MonthKey(year int, month time.Month) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(int(month))
}

// ParseMonthKey accepts "2024-3" and "2024-03".
func ParseMonthKey(value string) (int, time.Month, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: month %q", ErrInvalidReference, value)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return 0, 0, fmt.Errorf("%w: month %q", ErrInvalidReference, value)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 || len(parts[1]) > 2 {
		return 0, 0, fmt.Errorf("%w: month %q", ErrInvalidReference, value)
	}
	return year, time.Month(month), nil
}

// MonthOption is one entry of the month picker.
type MonthOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// AvailableMonths lists the distinct months that have at least one order,
// oldest first, evaluated in loc.
func AvailableMonths[T Dated](items []T, loc *time.Location) []MonthOption {
	type ym struct {
		year  int
		month time.Month
	}
	seen := map[ym]struct{}{}
	var months []ym
	for _, item := range items {
		at := item.At()
		if at.IsZero() {
			continue
		}
		at = at.In(loc)
		key := ym{at.Year(), at.Month()}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, key)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})
	out := make([]MonthOption, 0, len(months))
	for _, m := range months {
		out = append(out, MonthOption{Key: MonthKey(m.year, m.month), Label: MonthName(m.month) + " " + strconv.Itoa(m.year)})
	}
	return out
}
