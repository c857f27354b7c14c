package google

import (
	"context"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/sync"
)

// Calendar adapts one Google calendar to the sync ports.
type Calendar struct {
	svc        *calendar.Service
	calendarID string
}

// NewCalendar builds a Calendar adapter for the given calendar id.
func NewCalendar(ctx context.Context, credentialsFile, calendarID string) (*Calendar, error) {
	opt, err := clientOption(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}
	svc, err := calendar.NewService(ctx, opt)
	if err != nil {
		return nil, err
	}
	return &Calendar{svc: svc, calendarID: calendarID}, nil
}

func (c *Calendar) CreateAllDayEvent(ctx context.Context, title string, day time.Time, description string, reminders sync.Reminders) (sync.Event, error) {
	ev := &calendar.Event{
		Summary:     title,
		Description: description,
		Start:       &calendar.EventDateTime{Date: day.Format(config.DateFormatAllDay)},
		End:         &calendar.EventDateTime{Date: day.AddDate(0, 0, 1).Format(config.DateFormatAllDay)},
		Reminders:   toEventReminders(reminders),
	}
	created, err := c.svc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	return &calendarEvent{cal: c, ev: created}, nil
}

func (c *Calendar) Events(ctx context.Context, start, end time.Time) ([]sync.Event, error) {
	var out []sync.Event
	pageToken := ""
	for {
		call := c.svc.Events.List(c.calendarID).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			SingleEvents(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, classify(err)
		}
		for _, ev := range resp.Items {
			out = append(out, &calendarEvent{cal: c, ev: ev})
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

// DeleteEventsByTitle implements the purge job against the live calendar.
func (c *Calendar) DeleteEventsByTitle(ctx context.Context, titleSubstring string, start, end time.Time) (int, error) {
	events, err := c.Events(ctx, start, end)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, ev := range events {
		if !strings.Contains(ev.Title(), titleSubstring) {
			continue
		}
		if err := ev.Delete(ctx); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

type calendarEvent struct {
	cal *Calendar
	ev  *calendar.Event
}

func (e *calendarEvent) ID() string          { return e.ev.Id }
func (e *calendarEvent) Title() string       { return e.ev.Summary }
func (e *calendarEvent) Description() string { return e.ev.Description }

func (e *calendarEvent) Reminders() sync.Reminders {
	r := e.ev.Reminders
	if r == nil || r.UseDefault || len(r.Overrides) == 0 {
		return sync.Reminders{Method: config.ReminderMethodNone}
	}
	o := r.Overrides[0]
	return sync.Reminders{Method: o.Method, Minutes: int(o.Minutes)}
}

func (e *calendarEvent) SetDescription(ctx context.Context, desc string) error {
	patched, err := e.cal.svc.Events.Patch(e.cal.calendarID, e.ev.Id, &calendar.Event{
		Description: desc,
	}).Context(ctx).Do()
	if err != nil {
		return classify(err)
	}
	e.ev = patched
	return nil
}

func (e *calendarEvent) SetReminders(ctx context.Context, r sync.Reminders) error {
	patched, err := e.cal.svc.Events.Patch(e.cal.calendarID, e.ev.Id, &calendar.Event{
		Reminders: toEventReminders(r),
	}).Context(ctx).Do()
	if err != nil {
		return classify(err)
	}
	e.ev = patched
	return nil
}

func (e *calendarEvent) Delete(ctx context.Context) error {
	if err := e.cal.svc.Events.Delete(e.cal.calendarID, e.ev.Id).Context(ctx).Do(); err != nil {
		return classify(err)
	}
	return nil
}

func toEventReminders(r sync.Reminders) *calendar.EventReminders {
	if r.None() {
		return &calendar.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		}
	}
	return &calendar.EventReminders{
		UseDefault: false,
		Overrides: []*calendar.EventReminder{
			{Method: r.Method, Minutes: int64(r.Minutes)},
		},
		ForceSendFields: []string{"UseDefault"},
	}
}
