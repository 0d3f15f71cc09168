package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// RoleFilter restricts visible quotes to one attribution.
type RoleFilter string

const (
	RoleFilterAll     RoleFilter = "All"
	RoleFilterTeacher RoleFilter = "Teacher"
	RoleFilterStudent RoleFilter = "Student"
)

// TimeFilter restricts visible quotes to a trailing window ending now.
type TimeFilter string

const (
	TimeFilterAll   TimeFilter = "All"
	TimeFilterWeek  TimeFilter = "7 Days"
	TimeFilterMonth TimeFilter = "Month"
	TimeFilterYear  TimeFilter = "Year"
)

// ParseRoleFilter accepts the exact filter labels; empty means All.
func ParseRoleFilter(s string) (RoleFilter, error) {
	switch f := RoleFilter(s); f {
	case "":
		return RoleFilterAll, nil
	case RoleFilterAll, RoleFilterTeacher, RoleFilterStudent:
		return f, nil
	}

	return "", NewValidationError("role", fmt.Sprintf("must be one of: %s, %s, %s",
		RoleFilterAll, RoleFilterTeacher, RoleFilterStudent))
}

// ParseTimeFilter accepts the exact filter labels; empty means All.
func ParseTimeFilter(s string) (TimeFilter, error) {
	switch f := TimeFilter(s); f {
	case "":
		return TimeFilterAll, nil
	case TimeFilterAll, TimeFilterWeek, TimeFilterMonth, TimeFilterYear:
		return f, nil
	}

	return "", NewValidationError("time", fmt.Sprintf("must be one of: %s, %s, %s, %s",
		TimeFilterAll, TimeFilterWeek, TimeFilterMonth, TimeFilterYear))
}

// Filters is the conjunction of predicates applied to the collection.
// The zero value matches everything.
type Filters struct {
	Search string
	Role   RoleFilter
	Time   TimeFilter
}

// VisibleQuotes is VisibleQuotesAt evaluated against the wall clock.
func VisibleQuotes(all []Quote, f Filters) []Quote {
	return VisibleQuotesAt(all, f, time.Now())
}

// VisibleQuotesAt returns the quotes matching every predicate in f, newest
// first. Quotes with equal timestamps keep their input order. The input
// slice is not modified.
func VisibleQuotesAt(all []Quote, f Filters, now time.Time) []Quote {
	needle := strings.ToLower(f.Search)
	cutoff, windowed := windowStart(f.Time, now)

	out := make([]Quote, 0, len(all))
	for _, q := range all {
		if f.Role != "" && f.Role != RoleFilterAll && string(q.Type) != string(f.Role) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(q.Name), needle) &&
			!strings.Contains(strings.ToLower(q.Text), needle) {
			continue
		}
		if windowed && q.Timestamp <= cutoff {
			continue
		}

		out = append(out, q)
	}

	slices.SortStableFunc(out, func(a, b Quote) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	return out
}

// windowStart returns the exclusive lower bound in epoch milliseconds.
func windowStart(f TimeFilter, now time.Time) (int64, bool) {
	switch f {
	case TimeFilterWeek:
		return now.AddDate(0, 0, -7).UnixMilli(), true
	case TimeFilterMonth:
		return subMonths(now, 1).UnixMilli(), true
	case TimeFilterYear:
		return subMonths(now, 12).UnixMilli(), true
	}

	return 0, false
}

// subMonths moves t back n calendar months, clamping the day to the last
// day of the target month (Mar 31 - 1 month = Feb 28 or 29).
func subMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()

	first := time.Date(y, m-time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()

	return first.AddDate(0, 0, min(d, last)-1)
}
