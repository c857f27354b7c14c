package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/contact"
	"github.com/tartampluch/birthday-sync/internal/provider"
)

// MonthlyReconciler keeps one roll-up event on the first of every month in
// the look-ahead window listing that month's birthdays. Summary events
// always carry a fixed email reminder four days ahead so the overview mail
// arrives before the month starts.
type MonthlyReconciler struct {
	Calendar Calendar
	Clock    contact.Clock
	Renderer *contact.Renderer

	LookAheadMonths int
}

// Reconcile converges the summary events for every month in the window.
// Months without birthdays get no event; existing summaries for such months
// are left alone and counted as skipped.
func (r *MonthlyReconciler) Reconcile(ctx context.Context, contacts []contact.Contact) (Section, error) {
	log := slog.With(config.LogKeyComponent, config.CompSync)

	now := r.Clock.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	title := r.Renderer.SummaryTitle()
	reminder := Reminders{Method: config.SummaryReminderMethod, Minutes: config.SummaryReminderMinutes}

	var section Section

	for i := 0; i < r.LookAheadMonths; i++ {
		if err := ctx.Err(); err != nil {
			return section, err
		}

		monthStart := firstOfMonth.AddDate(0, i, 0)
		inMonth := contact.InMonth(contacts, monthStart.Month())
		if len(inMonth) == 0 {
			section.Skipped++
			log.Debug(config.MsgMonthSkipped, config.LogKeyMonth, int(monthStart.Month()))
			continue
		}

		description := r.Renderer.MonthlyDescription(monthStart.Month(), monthStart.Year(), inMonth)

		if err := r.reconcileMonth(ctx, title, monthStart, description, reminder, &section); err != nil {
			if provider.IsFatal(err) {
				return section, err
			}
			section.Failed++
			log.Warn(config.MsgEventFailed,
				config.LogKeyMonth, int(monthStart.Month()),
				config.LogKeyYear, monthStart.Year(),
				config.LogKeyError, err,
			)
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

func (r *MonthlyReconciler) reconcileMonth(ctx context.Context, title string, day time.Time, description string, reminder Reminders, section *Section) error {
	existing, err := r.Calendar.Events(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return err
	}

	label := day.Format(config.DateFormatAllDay)

	event := findByTitle(existing, title)
	if event == nil {
		if _, err := r.Calendar.CreateAllDayEvent(ctx, title, day, description, reminder); err != nil {
			return err
		}
		section.created(title + " " + label)
		slog.Info(config.MsgEventCreated,
			config.LogKeyComponent, config.CompSync,
			config.LogKeyDate, label,
		)
		return nil
	}

	// Reminders are fixed at creation; only the listing can drift.
	if event.Description() == description {
		section.Unchanged++
		return nil
	}
	if err := event.SetDescription(ctx, description); err != nil {
		return err
	}
	section.updated(title + " " + label)
	slog.Info(config.MsgEventUpdated,
		config.LogKeyComponent, config.CompSync,
		config.LogKeyDate, label,
	)
	return nil
}
