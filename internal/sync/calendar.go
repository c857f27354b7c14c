// Package sync reconciles derived birthday facts against a calendar. It
// never blindly recreates events: existing ones are found by exact title in
// the day span, compared field by field and patched only on difference, so
// repeated runs with unchanged inputs leave the calendar untouched.
package sync

import (
	"context"
	"time"
)

// Reminders describes the notification attached to an event. Method "none"
// means no reminder at all.
type Reminders struct {
	Method  string
	Minutes int
}

// None reports whether the reminder is disabled.
func (r Reminders) None() bool {
	return r.Method == "" || r.Method == "none"
}

// Equal treats all disabled reminders as interchangeable; minutes only
// matter when a reminder actually fires.
func (r Reminders) Equal(other Reminders) bool {
	if r.None() && other.None() {
		return true
	}
	return r == other
}

// Event is a handle on one stored calendar event.
type Event interface {
	ID() string
	Title() string
	Description() string
	Reminders() Reminders

	SetDescription(ctx context.Context, desc string) error
	SetReminders(ctx context.Context, r Reminders) error
	Delete(ctx context.Context) error
}

// Calendar is the event store port.
type Calendar interface {
	// CreateAllDayEvent inserts a new all-day event on the given day.
	CreateAllDayEvent(ctx context.Context, title string, day time.Time, description string, reminders Reminders) (Event, error)

	// Events returns all events overlapping the half-open range [start, end).
	Events(ctx context.Context, start, end time.Time) ([]Event, error)
}

// Purger is an optional calendar capability used by the purge job.
type Purger interface {
	// DeleteEventsByTitle removes events in [start, end) whose title
	// contains the given substring and returns how many were deleted.
	DeleteEventsByTitle(ctx context.Context, titleSubstring string, start, end time.Time) (int, error)
}

// findByTitle picks the first event with the exact title out of a day span
// listing, or nil.
func findByTitle(events []Event, title string) Event {
	for _, ev := range events {
		if ev.Title() == title {
			return ev
		}
	}
	return nil
}
