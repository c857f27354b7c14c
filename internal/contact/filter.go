package contact

import (
	"sort"
	"time"
)

// InMonth returns the contacts whose birthday falls in month, sorted by
// day of month.
func InMonth(contacts []Contact, month time.Month) []Contact {
	var out []Contact
	for _, c := range contacts {
		if c.IsBirthdayInMonth(month) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Birthday.Day() != out[j].Birthday.Day() {
			return out[i].Birthday.Day() < out[j].Birthday.Day()
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// OnDate returns the contacts whose birthday is exactly on date's
// (month, day).
func OnDate(contacts []Contact, date time.Time) []Contact {
	var out []Contact
	for _, c := range contacts {
		if c.IsBirthdayOn(date) {
			out = append(out, c)
		}
	}
	return out
}

// Upcoming returns the contacts whose next occurrence lies in the half-open
// window (from, from+days], sorted by proximity.
func Upcoming(contacts []Contact, from time.Time, days int) []Contact {
	var out []Contact
	for _, c := range contacts {
		until := c.DaysUntilNext(from)
		if until > 0 && until <= days {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntilNext(from) < out[j].DaysUntilNext(from)
	})
	return out
}

// ByLabel returns the contacts carrying the given label.
func ByLabel(contacts []Contact, label string) []Contact {
	var out []Contact
	for _, c := range contacts {
		for _, l := range c.Labels {
			if l == label {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// WithoutLabels returns the contacts carrying no label at all.
func WithoutLabels(contacts []Contact) []Contact {
	var out []Contact
	for _, c := range contacts {
		if len(c.Labels) == 0 {
			out = append(out, c)
		}
	}
	return out
}

// SortByMonthDay orders contacts ascending by (month, day), ignoring years.
// Ingestion applies this so monthly grouping and upcoming scans can rely on
// stable ordering.
func SortByMonthDay(contacts []Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := contacts[i].Birthday, contacts[j].Birthday
		if a.Month() != b.Month() {
			return a.Month() < b.Month()
		}
		return a.Day() < b.Day()
	})
}
