package contact

import (
	"fmt"
	"strings"
	"time"
)

// Translator resolves a message ID to a localized string. Satisfied by
// internal/i18n; tests may plug in their own.
type Translator interface {
	T(id string, data map[string]any) string
	Lang() string
}

// Fixed 12-entry month-name tables per supported language. The reconcilers
// diff on the rendered output, so these must stay byte-stable.
var monthNamesShort = map[string][12]string{
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	"de": {"Jan", "Feb", "Mär", "Apr", "Mai", "Jun", "Jul", "Aug", "Sep", "Okt", "Nov", "Dez"},
}

var monthNamesLong = map[string][12]string{
	"en": {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
	"de": {"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
}

// MonthShort returns the abbreviated month name for lang, falling back to
// English for unknown languages.
func MonthShort(lang string, m time.Month) string {
	table, ok := monthNamesShort[lang]
	if !ok {
		table = monthNamesShort["en"]
	}
	return table[int(m)-1]
}

// MonthLong returns the full month name for lang.
func MonthLong(lang string, m time.Month) string {
	table, ok := monthNamesLong[lang]
	if !ok {
		table = monthNamesLong["en"]
	}
	return table[int(m)-1]
}

// Renderer produces the deterministic strings that become event titles,
// event descriptions and mail lines. String stability is a correctness
// requirement: the reconcilers use exact equality on this output as their
// idempotency check.
type Renderer struct {
	T Translator
}

// EventTitle is the identity string of an individual birthday event.
func (r *Renderer) EventTitle(c Contact) string {
	return r.T.T("event_title", map[string]any{"Name": c.Name})
}

// SummaryTitle is the fixed identity string of every monthly summary event.
func (r *Renderer) SummaryTitle() string {
	return r.T.T("summary_title", nil)
}

// EventDescription renders the body of an individual birthday event for an
// occurrence on the given date. The age line appears only for known years;
// contact-channel lines and the label list follow.
func (r *Renderer) EventDescription(c Contact, occurrence time.Time) string {
	var b strings.Builder

	if c.YearKnown {
		age := occurrence.Year() - c.Birthday.Year()
		b.WriteString(r.T.T("event_line_age", map[string]any{"Name": c.Name, "Age": age}))
		b.WriteString("\n")
		b.WriteString(r.T.T("event_line_birthday", map[string]any{"Date": c.LongDate()}))
		b.WriteString("\n\n")
	} else {
		b.WriteString(r.T.T("event_line_no_year", map[string]any{"Name": c.Name}))
		b.WriteString("\n\n")
	}

	hasChannels := false
	if wa := c.WhatsAppLink(); wa != "" {
		b.WriteString("WhatsApp: " + wa + "\n")
		hasChannels = true
	}
	for _, handle := range c.SocialHandles {
		if link := InstagramLink(handle); link != "" {
			b.WriteString("Instagram: " + link + "\n")
			hasChannels = true
		}
	}

	if len(c.Labels) > 0 {
		if hasChannels {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(c.Labels, ", ") + "\n")
	}

	return b.String()
}

// SummaryLine is one contact's line inside a monthly summary event:
// "DD. MMM: Name (age)". The age is the age turning in year.
func (r *Renderer) SummaryLine(c Contact, year int) string {
	line := fmt.Sprintf("%02d. %s: %s",
		c.Birthday.Day(), MonthShort(r.T.Lang(), c.Birthday.Month()), c.Name)
	if c.YearKnown {
		line += fmt.Sprintf(" (%d)", year-c.Birthday.Year())
	}
	return line
}

// MonthlyDescription renders the whole description of a monthly summary
// event: a header naming the month, then one line per contact in day order.
func (r *Renderer) MonthlyDescription(month time.Month, year int, contacts []Contact) string {
	var b strings.Builder
	b.WriteString(r.T.T("summary_header", map[string]any{
		"Month": MonthLong(r.T.Lang(), month),
	}))
	b.WriteString("\n\n")
	for i, c := range contacts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.SummaryLine(c, year))
	}
	return b.String()
}

// SummaryMailLine is one contact's HTML line in the monthly digest mail.
func (r *Renderer) SummaryMailLine(c Contact, year int) string {
	line := fmt.Sprintf("<b>%02d. %s</b>: 🎂 %s",
		c.Birthday.Day(), MonthLong(r.T.Lang(), c.Birthday.Month()), c.Name)
	if c.YearKnown {
		line += " (" + r.T.T("turns_years", map[string]any{"Age": year - c.Birthday.Year()}) + ")"
	}
	return line
}
