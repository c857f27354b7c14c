// Package contact holds the birthday domain model: the Contact entity and
// the pure date computations derived from it. Everything here is free of
// provider I/O so the reconcilers and digests can be tested with fixed
// clocks and in-memory data.
package contact

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tartampluch/birthday-sync/internal/config"
)

// ErrUnknownYear is returned when an age is requested for a contact whose
// birthday carries no birth year. It is never silently coerced to zero.
var ErrUnknownYear = errors.New(config.ErrUnknownYear)

// Contact is one address-book entry with calendar-relevant facts.
//
// Birthday always carries a meaningful month and day. Its year is meaningful
// only when YearKnown is true; otherwise the year is a leap-year sentinel
// (config.DefaultLeapYear) that keeps Feb 29 representable. YearKnown is set
// once at ingestion and never re-derived by comparison with "now".
type Contact struct {
	Name      string
	Birthday  time.Time
	YearKnown bool

	Labels        []string
	Email         string
	City          string
	Phone         string
	SocialHandles []string
}

// New validates and constructs a Contact. Name and birthday are required.
func New(name string, birthday time.Time, yearKnown bool) (Contact, error) {
	if strings.TrimSpace(name) == "" {
		return Contact{}, errors.New(config.ErrContactName)
	}
	if birthday.IsZero() {
		return Contact{}, errors.New(config.ErrContactBirthday)
	}
	return Contact{Name: name, Birthday: birthday, YearKnown: yearKnown}, nil
}

// HasKnownYear reports whether the source data included a birth year.
func (c Contact) HasKnownYear() bool {
	return c.YearKnown
}

// AgeTurningThisYear is the age the contact turns in today's calendar year,
// regardless of whether the birthday has already passed.
func (c Contact) AgeTurningThisYear(today time.Time) (int, error) {
	if !c.YearKnown {
		return 0, ErrUnknownYear
	}
	return today.Year() - c.Birthday.Year(), nil
}

// Age is the contact's age as of today: the turning age, minus one if
// today's (month, day) precedes the birthday's.
func (c Contact) Age(today time.Time) (int, error) {
	age, err := c.AgeTurningThisYear(today)
	if err != nil {
		return 0, err
	}
	if today.Month() < c.Birthday.Month() ||
		(today.Month() == c.Birthday.Month() && today.Day() < c.Birthday.Day()) {
		age--
	}
	return age, nil
}

// IsBirthdayOn reports whether the birthday falls on date, year-independent.
func (c Contact) IsBirthdayOn(date time.Time) bool {
	return c.Birthday.Month() == date.Month() && c.Birthday.Day() == date.Day()
}

// IsBirthdayInMonth reports whether the birthday falls in month.
func (c Contact) IsBirthdayInMonth(month time.Month) bool {
	return c.Birthday.Month() == month
}

// NextOccurrence returns the soonest date on or after from with the
// birthday's (month, day). Feb 29 normalizes to Mar 1 in non-leap years
// through time.Date.
func (c Contact) NextOccurrence(from time.Time) time.Time {
	loc := from.Location()
	dayStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)

	candidate := time.Date(from.Year(), c.Birthday.Month(), c.Birthday.Day(), 0, 0, 0, 0, loc)
	if candidate.Before(dayStart) {
		candidate = time.Date(from.Year()+1, c.Birthday.Month(), c.Birthday.Day(), 0, 0, 0, 0, loc)
	}
	return candidate
}

// NextOccurrenceIn restricts NextOccurrence to the half-open window
// [start, end). Only the two candidate years touching the window are
// considered. The second return value is false when neither falls inside.
func (c Contact) NextOccurrenceIn(start, end time.Time) (time.Time, bool) {
	loc := start.Location()
	for _, y := range []int{start.Year(), start.Year() + 1} {
		candidate := time.Date(y, c.Birthday.Month(), c.Birthday.Day(), 0, 0, 0, 0, loc)
		if !candidate.Before(start) && candidate.Before(end) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// DaysUntilNext is the rounded number of days from from to the next
// occurrence of the birthday.
func (c Contact) DaysUntilNext(from time.Time) int {
	next := c.NextOccurrence(from)
	return int(math.Round(next.Sub(from).Hours() / 24))
}

// WasBirthdayThisYear reports whether this year's occurrence lies strictly
// before from.
func (c Contact) WasBirthdayThisYear(from time.Time) bool {
	occurrence := time.Date(from.Year(), c.Birthday.Month(), c.Birthday.Day(), 0, 0, 0, 0, from.Location())
	return from.After(occurrence) && !c.IsBirthdayOn(from)
}

// AgeInDays is the contact's age in whole days. Requires a known year.
func (c Contact) AgeInDays(today time.Time) (int, error) {
	if !c.YearKnown {
		return 0, ErrUnknownYear
	}
	return int(math.Floor(today.Sub(c.Birthday).Hours() / 24)), nil
}

// ShortDate renders the birthday as "DD.MM.".
func (c Contact) ShortDate() string {
	return fmt.Sprintf("%02d.%02d.", c.Birthday.Day(), int(c.Birthday.Month()))
}

// LongDate renders the birthday as "DD.MM.YYYY", falling back to the short
// form when the year is unknown.
func (c Contact) LongDate() string {
	if !c.YearKnown {
		return c.ShortDate()
	}
	return fmt.Sprintf("%02d.%02d.%d", c.Birthday.Day(), int(c.Birthday.Month()), c.Birthday.Year())
}

// WhatsAppLink builds a wa.me link from the phone number, or "" when the
// number has no digits.
func (c Contact) WhatsAppLink() string {
	var digits strings.Builder
	for _, r := range c.Phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return config.WhatsAppBaseURL + digits.String()
}

// InstagramLink builds a profile URL from a handle like "@name" or "name".
func InstagramLink(handle string) string {
	handle = strings.TrimPrefix(handle, config.NotePrefixAt)
	if handle == "" {
		return ""
	}
	return config.InstagramBaseURL + handle
}
