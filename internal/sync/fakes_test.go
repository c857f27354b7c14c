package sync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/birthday-sync/internal/contact"
)

// stubTranslator renders message ids with their data in a fixed shape so
// tests can assert on output without loading locale files.
type stubTranslator struct{}

func (stubTranslator) T(id string, data map[string]any) string {
	switch id {
	case "event_title":
		return fmt.Sprintf("🎂 %v hat Geburtstag", data["Name"])
	case "summary_title":
		return "🎉🎂 GEBURTSTAGE 🎂🎉"
	case "event_line_age":
		return fmt.Sprintf("%v wird %v Jahre alt!", data["Name"], data["Age"])
	case "event_line_birthday":
		return fmt.Sprintf("Geburtstag: %v", data["Date"])
	case "event_line_no_year":
		return fmt.Sprintf("%v hat Geburtstag!", data["Name"])
	case "summary_header":
		return fmt.Sprintf("Geburtstage im %v:", data["Month"])
	case "turns_years":
		return fmt.Sprintf("wird %v", data["Age"])
	default:
		return id
	}
}

func (stubTranslator) Lang() string { return "de" }

func testRenderer() *contact.Renderer {
	return &contact.Renderer{T: stubTranslator{}}
}

// fakeEvent is a mutable in-memory event.
type fakeEvent struct {
	cal         *fakeCalendar
	id          string
	title       string
	day         time.Time
	description string
	reminders   Reminders
}

func (e *fakeEvent) ID() string           { return e.id }
func (e *fakeEvent) Title() string        { return e.title }
func (e *fakeEvent) Description() string  { return e.description }
func (e *fakeEvent) Reminders() Reminders { return e.reminders }

func (e *fakeEvent) SetDescription(_ context.Context, desc string) error {
	if err := e.cal.nextErr(); err != nil {
		return err
	}
	e.description = desc
	e.cal.patches++
	return nil
}

func (e *fakeEvent) SetReminders(_ context.Context, r Reminders) error {
	if err := e.cal.nextErr(); err != nil {
		return err
	}
	e.reminders = r
	e.cal.patches++
	return nil
}

func (e *fakeEvent) Delete(_ context.Context) error {
	for i, ev := range e.cal.events {
		if ev == e {
			e.cal.events = append(e.cal.events[:i], e.cal.events[i+1:]...)
			return nil
		}
	}
	return nil
}

// fakeCalendar stores events in memory and can inject errors into the next
// N mutating or listing calls.
type fakeCalendar struct {
	events  []*fakeEvent
	nextID  int
	creates int
	patches int

	errQueue []error
}

func (c *fakeCalendar) nextErr() error {
	if len(c.errQueue) == 0 {
		return nil
	}
	err := c.errQueue[0]
	c.errQueue = c.errQueue[1:]
	return err
}

func (c *fakeCalendar) CreateAllDayEvent(_ context.Context, title string, day time.Time, description string, reminders Reminders) (Event, error) {
	if err := c.nextErr(); err != nil {
		return nil, err
	}
	c.nextID++
	ev := &fakeEvent{
		cal:         c,
		id:          strconv.Itoa(c.nextID),
		title:       title,
		day:         day,
		description: description,
		reminders:   reminders,
	}
	c.events = append(c.events, ev)
	c.creates++
	return ev, nil
}

func (c *fakeCalendar) Events(_ context.Context, start, end time.Time) ([]Event, error) {
	if err := c.nextErr(); err != nil {
		return nil, err
	}
	var out []Event
	for _, ev := range c.events {
		if !ev.day.Before(start) && ev.day.Before(end) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (c *fakeCalendar) DeleteEventsByTitle(_ context.Context, titleSubstring string, start, end time.Time) (int, error) {
	var kept []*fakeEvent
	deleted := 0
	for _, ev := range c.events {
		inRange := !ev.day.Before(start) && ev.day.Before(end)
		if inRange && strings.Contains(ev.title, titleSubstring) {
			deleted++
			continue
		}
		kept = append(kept, ev)
	}
	c.events = kept
	return deleted, nil
}

func (c *fakeCalendar) titled(title string) *fakeEvent {
	for _, ev := range c.events {
		if ev.title == title {
			return ev
		}
	}
	return nil
}

func mustContact(name string, year int, month time.Month, day int) contact.Contact {
	yearKnown := year != 0
	if year == 0 {
		year = 2000
	}
	c, err := contact.New(name, time.Date(year, month, day, 0, 0, 0, 0, time.Local), yearKnown)
	if err != nil {
		panic(err)
	}
	return c
}
