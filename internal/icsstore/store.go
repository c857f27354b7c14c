// Package icsstore is a file-backed calendar: events live in a single .ics
// file on disk. It serves two purposes, a Google-free backend for the
// reconcilers and the data source for the publish server.
package icsstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	gosync "sync"
	"time"

	"github.com/emersion/go-ical"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/sync"
)

const eventComponent = "VEVENT"

// Store holds the calendar in memory and persists it after every mutation.
// All methods are safe for concurrent use.
type Store struct {
	mu   gosync.Mutex
	path string
	cal  *ical.Calendar
}

// Open loads the calendar file at path, creating an empty calendar when
// the file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		s.cal = newCalendar()
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	cal, err := ical.NewDecoder(f).Decode()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", config.ErrICalDecode, err)
	}
	if cal == nil {
		cal = newCalendar()
	}
	s.cal = cal
	return s, nil
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)
	return cal
}

func (s *Store) CreateAllDayEvent(_ context.Context, title string, day time.Time, description string, reminders sync.Reminders) (sync.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comp := ical.NewComponent(eventComponent)
	comp.Props.SetText(config.PropUID, eventUID(title, day))
	comp.Props.SetText(config.PropSummary, title)
	comp.Props.SetText(config.PropDescription, description)

	dtStamp := ical.NewProp(config.PropDTStamp)
	dtStamp.SetDateTime(time.Now().UTC())
	comp.Props.Set(dtStamp)

	dtStart := ical.NewProp(config.PropDTStart)
	dtStart.SetDate(day)
	comp.Props.Set(dtStart)

	dtEnd := ical.NewProp(config.PropDTEnd)
	dtEnd.SetDate(day.AddDate(0, 0, 1))
	comp.Props.Set(dtEnd)

	if !reminders.None() {
		comp.Children = append(comp.Children, newAlarm(reminders, title))
	}

	s.cal.Children = append(s.cal.Children, comp)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return &storeEvent{store: s, comp: comp}, nil
}

func (s *Store) Events(_ context.Context, start, end time.Time) ([]sync.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []sync.Event
	for _, comp := range s.cal.Children {
		if comp.Name != eventComponent {
			continue
		}
		day, ok := eventDay(comp)
		if !ok {
			continue
		}
		if !day.Before(start) && day.Before(end) {
			out = append(out, &storeEvent{store: s, comp: comp})
		}
	}
	return out, nil
}

// DeleteEventsByTitle removes every event in [start, end) whose summary
// contains the given substring.
func (s *Store) DeleteEventsByTitle(_ context.Context, titleSubstring string, start, end time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.cal.Children[:0]
	deleted := 0
	for _, comp := range s.cal.Children {
		if comp.Name == eventComponent {
			day, ok := eventDay(comp)
			if ok && !day.Before(start) && day.Before(end) &&
				strings.Contains(propValue(comp, config.PropSummary), titleSubstring) {
				deleted++
				continue
			}
		}
		kept = append(kept, comp)
	}
	s.cal.Children = kept

	if deleted == 0 {
		return 0, nil
	}
	if err := s.persist(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// Bytes encodes the current calendar, for publishing over HTTP.
func (s *Store) Bytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encode()
}

func (s *Store) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(s.cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// persist writes the calendar atomically, temp file then rename. Callers
// hold the mutex.
func (s *Store) persist() error {
	data, err := s.encode()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".calendar-*.ics")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, config.FilePermUserRW); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	slog.Debug(config.MsgStorePersisted,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyFile, s.path,
		config.LogKeySizeBytes, len(data),
	)
	return nil
}

// eventUID derives a stable identifier from the event's identity, title
// plus day, so re-created events keep their UID.
func eventUID(title string, day time.Time) string {
	input := fmt.Sprintf(config.FormatHashInput, title, day.Format(config.DateFormatAllDay), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), config.ICalDomain)
}

func eventDay(comp *ical.Component) (time.Time, bool) {
	prop := comp.Props.Get(config.PropDTStart)
	if prop == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(config.DateFormatFullBasic, prop.Value, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func propValue(comp *ical.Component, name string) string {
	if prop := comp.Props.Get(name); prop != nil {
		return prop.Value
	}
	return ""
}

func newAlarm(r sync.Reminders, description string) *ical.Component {
	alarm := ical.NewComponent(config.ICalComponent)
	action := config.ICalActionDisplay
	if r.Method == config.SummaryReminderMethod {
		action = config.ICalActionEmail
	}
	alarm.Props.SetText(config.PropAction, action)
	alarm.Props.SetText(config.PropDescription, description)

	trigger := ical.NewProp(config.PropTrigger)
	trigger.Value = fmt.Sprintf("-PT%dM", r.Minutes)
	alarm.Props.Set(trigger)
	return alarm
}

// alarmReminders reads the first VALARM back into the port representation.
func alarmReminders(comp *ical.Component) sync.Reminders {
	for _, child := range comp.Children {
		if child.Name != config.ICalComponent {
			continue
		}
		method := config.DefaultReminderMethod
		if propValue(child, config.PropAction) == config.ICalActionEmail {
			method = config.SummaryReminderMethod
		}
		minutes := 0
		trigger := propValue(child, config.PropTrigger)
		if v, ok := strings.CutPrefix(trigger, "-PT"); ok {
			if v, ok = strings.CutSuffix(v, "M"); ok {
				if n, err := strconv.Atoi(v); err == nil {
					minutes = n
				}
			}
		}
		return sync.Reminders{Method: method, Minutes: minutes}
	}
	return sync.Reminders{Method: config.ReminderMethodNone}
}

type storeEvent struct {
	store *Store
	comp  *ical.Component
}

func (e *storeEvent) ID() string          { return propValue(e.comp, config.PropUID) }
func (e *storeEvent) Title() string       { return propValue(e.comp, config.PropSummary) }
func (e *storeEvent) Description() string { return propValue(e.comp, config.PropDescription) }

func (e *storeEvent) Reminders() sync.Reminders {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return alarmReminders(e.comp)
}

func (e *storeEvent) SetDescription(_ context.Context, desc string) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.comp.Props.SetText(config.PropDescription, desc)
	return e.store.persist()
}

func (e *storeEvent) SetReminders(_ context.Context, r sync.Reminders) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	kept := e.comp.Children[:0]
	for _, child := range e.comp.Children {
		if child.Name != config.ICalComponent {
			kept = append(kept, child)
		}
	}
	e.comp.Children = kept
	if !r.None() {
		e.comp.Children = append(e.comp.Children, newAlarm(r, e.Title()))
	}
	return e.store.persist()
}

func (e *storeEvent) Delete(_ context.Context) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	for i, comp := range e.store.cal.Children {
		if comp == e.comp {
			e.store.cal.Children = append(e.store.cal.Children[:i], e.store.cal.Children[i+1:]...)
			return e.store.persist()
		}
	}
	return nil
}
