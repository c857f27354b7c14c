package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/contact"
	"github.com/tartampluch/birthday-sync/internal/provider"
)

func newMonthly(cal Calendar) *MonthlyReconciler {
	return &MonthlyReconciler{
		Calendar:        cal,
		Clock:           contact.FixedClock{Time: testNow},
		Renderer:        testRenderer(),
		LookAheadMonths: 12,
	}
}

func TestMonthlyCreatesSummaryPerPopulatedMonth(t *testing.T) {
	cal := &fakeCalendar{}
	contacts := []contact.Contact{
		mustContact("Anna Schmidt", 1985, time.July, 10),
		mustContact("Ben Weber", 1990, time.July, 5),
		mustContact("Cleo Fischer", 0, time.December, 24),
	}
	contact.SortByMonthDay(contacts)

	section, err := newMonthly(cal).Reconcile(context.Background(), contacts)

	require.NoError(t, err)
	assert.Len(t, section.Created, 2)
	assert.Equal(t, 10, section.Skipped)
	require.Len(t, cal.events, 2)

	july := cal.events[0]
	assert.Equal(t, "🎉🎂 GEBURTSTAGE 🎂🎉", july.title)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.Local), july.day)
	assert.Equal(t, "Geburtstage im Juli:\n\n05. Jul: Ben Weber (34)\n10. Jul: Anna Schmidt (39)", july.description)
	assert.Equal(t, Reminders{Method: config.SummaryReminderMethod, Minutes: config.SummaryReminderMinutes}, july.reminders)

	december := cal.events[1]
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.Local), december.day)
	assert.Equal(t, "Geburtstage im Dezember:\n\n24. Dez: Cleo Fischer", december.description)
}

func TestMonthlySecondRunIsNoop(t *testing.T) {
	cal := &fakeCalendar{}
	contacts := []contact.Contact{mustContact("Anna Schmidt", 1985, time.July, 10)}
	r := newMonthly(cal)

	_, err := r.Reconcile(context.Background(), contacts)
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background(), contacts)
	require.NoError(t, err)

	assert.False(t, second.Changed())
	assert.Equal(t, 1, second.Unchanged)
	assert.Equal(t, 1, cal.creates)
	assert.Zero(t, cal.patches)
}

func TestMonthlyUpdatesDriftedListing(t *testing.T) {
	cal := &fakeCalendar{}
	r := newMonthly(cal)

	_, err := r.Reconcile(context.Background(), []contact.Contact{mustContact("Anna Schmidt", 1985, time.July, 10)})
	require.NoError(t, err)

	// A new contact joins the same month: the listing must be rewritten.
	contacts := []contact.Contact{
		mustContact("Ben Weber", 1990, time.July, 5),
		mustContact("Anna Schmidt", 1985, time.July, 10),
	}
	section, err := r.Reconcile(context.Background(), contacts)
	require.NoError(t, err)

	assert.Len(t, section.Updated, 1)
	assert.Len(t, cal.events, 1)
	assert.Contains(t, cal.events[0].description, "Ben Weber")
}

func TestMonthlyWindowSpansYearBoundary(t *testing.T) {
	cal := &fakeCalendar{}
	contacts := []contact.Contact{mustContact("Anna Schmidt", 1985, time.March, 10)}

	_, err := newMonthly(cal).Reconcile(context.Background(), contacts)

	require.NoError(t, err)
	require.Len(t, cal.events, 1)
	// Run date 2024-06-01: the March summary falls in 2025 and its ages
	// must be computed against 2025.
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.Local), cal.events[0].day)
	assert.Contains(t, cal.events[0].description, "Anna Schmidt (40)")
}

func TestMonthlyNoBirthdaysNoEvents(t *testing.T) {
	cal := &fakeCalendar{}

	section, err := newMonthly(cal).Reconcile(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 12, section.Skipped)
	assert.Empty(t, cal.events)
}

func TestMonthlyTransientFailureIsolatedPerMonth(t *testing.T) {
	cal := &fakeCalendar{}
	cal.errQueue = []error{provider.Transient(errors.New("503"))}
	contacts := []contact.Contact{
		mustContact("Anna Schmidt", 1985, time.July, 10),
		mustContact("Cleo Fischer", 1992, time.December, 24),
	}

	section, err := newMonthly(cal).Reconcile(context.Background(), contacts)

	require.NoError(t, err)
	assert.Equal(t, 1, section.Failed)
	assert.Len(t, section.Created, 1)
}

func TestMonthlyFatalAborts(t *testing.T) {
	cal := &fakeCalendar{}
	cal.errQueue = []error{provider.Fatal(errors.New("404"))}
	contacts := []contact.Contact{mustContact("Anna Schmidt", 1985, time.July, 10)}

	_, err := newMonthly(cal).Reconcile(context.Background(), contacts)

	require.Error(t, err)
	assert.True(t, provider.IsFatal(err))
}

func TestReportHasChanges(t *testing.T) {
	assert.False(t, Report{}.HasChanges())
	assert.True(t, Report{Individual: Section{Created: []string{"x"}}}.HasChanges())
	assert.True(t, Report{Summary: Section{Updated: []string{"y"}}}.HasChanges())
	assert.False(t, Report{Individual: Section{Unchanged: 5, Skipped: 2, Failed: 1}}.HasChanges())
}
