package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/contact"
	"github.com/tartampluch/birthday-sync/internal/provider"
)

// IndividualReconciler keeps one all-day event per contact for the next
// occurrence of their birthday within the look-ahead window.
type IndividualReconciler struct {
	Calendar Calendar
	Clock    contact.Clock
	Renderer *contact.Renderer

	LookAheadMonths int
	Reminder        Reminders

	// PauseEvery and Sleep throttle bursts of calendar writes; zero
	// PauseEvery disables throttling, nil Sleep means time.Sleep.
	PauseEvery int
	Pause      time.Duration
	Sleep      func(time.Duration)
}

// Reconcile walks the contact list and converges each individual birthday
// event. Per-contact failures are counted and logged but do not stop the
// pass; fatal calendar errors abort immediately.
func (r *IndividualReconciler) Reconcile(ctx context.Context, contacts []contact.Contact) (Section, error) {
	log := slog.With(config.LogKeyComponent, config.CompSync)

	today := startOfDay(r.Clock.Now())
	windowEnd := today.AddDate(0, r.LookAheadMonths, 0)

	var section Section
	processed := 0

	for _, c := range contacts {
		if err := ctx.Err(); err != nil {
			return section, err
		}

		occurrence, ok := c.NextOccurrenceIn(today, windowEnd)
		if !ok {
			section.Skipped++
			continue
		}

		if err := r.reconcileOne(ctx, c, occurrence, &section); err != nil {
			if provider.IsFatal(err) {
				return section, err
			}
			section.Failed++
			log.Warn(config.MsgEventFailed,
				config.LogKeyName, c.Name,
				config.LogKeyError, err,
			)
		}

		processed++
		if r.PauseEvery > 0 && processed%r.PauseEvery == 0 {
			r.sleep(r.Pause)
		}
	}

	log.Info(config.MsgSyncSection,
		config.LogKeyCreated, len(section.Created),
		config.LogKeyUpdated, len(section.Updated),
		config.LogKeyUnchanged, section.Unchanged,
		config.LogKeySkipped, section.Skipped,
		config.LogKeyFailed, section.Failed,
	)
	return section, nil
}

func (r *IndividualReconciler) reconcileOne(ctx context.Context, c contact.Contact, occurrence time.Time, section *Section) error {
	log := slog.With(config.LogKeyComponent, config.CompSync, config.LogKeyName, c.Name)

	title := r.Renderer.EventTitle(c)
	description := r.Renderer.EventDescription(c, occurrence)

	dayEnd := occurrence.AddDate(0, 0, 1)
	existing, err := r.Calendar.Events(ctx, occurrence, dayEnd)
	if err != nil {
		return err
	}

	event := findByTitle(existing, title)
	if event == nil {
		if _, err := r.Calendar.CreateAllDayEvent(ctx, title, occurrence, description, r.Reminder); err != nil {
			return err
		}
		section.created(title)
		log.Info(config.MsgEventCreated, config.LogKeyDate, occurrence.Format(config.DateFormatAllDay))
		return nil
	}

	changed := false
	if event.Description() != description {
		if err := event.SetDescription(ctx, description); err != nil {
			return err
		}
		changed = true
	}
	if !event.Reminders().Equal(r.Reminder) {
		if err := event.SetReminders(ctx, r.Reminder); err != nil {
			return err
		}
		changed = true
	}

	if changed {
		section.updated(title)
		log.Info(config.MsgEventUpdated, config.LogKeyDate, occurrence.Format(config.DateFormatAllDay))
	} else {
		section.Unchanged++
		log.Debug(config.MsgEventUnchanged)
	}
	return nil
}

func (r *IndividualReconciler) sleep(d time.Duration) {
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
