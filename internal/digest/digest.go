// Package digest composes the HTML mails: the daily birthday digest, the
// monthly overview and the change notification after a sync run. Composers
// return nil when there is nothing to say, so callers can simply skip the
// send.
package digest

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/tartampluch/birthday-sync/internal/contact"
	"github.com/tartampluch/birthday-sync/internal/sync"
)

// Mail is a fully composed message, ready for a Mailer.
type Mail struct {
	Subject string
	HTML    string
}

// Mailer delivers a composed mail. Addressing is the adapter's concern.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// Composer builds the mail bodies. All output is deterministic for a given
// contact list and clock reading.
type Composer struct {
	T        contact.Translator
	Renderer *contact.Renderer
	Clock    contact.Clock

	// PreviewDays is the look-ahead of the daily digest's upcoming section.
	PreviewDays int

	// Footer links, empty to omit.
	CalendarURL string
	ContactsURL string
}

type dailyEntry struct {
	Line      string
	WhatsApp  string
	Instagram []string
	City      string
}

type upcomingEntry struct {
	Line string
	In   int
}

var dailyTmpl = template.Must(template.New("daily").Parse(`<html><body style="font-family:Arial,sans-serif;color:#333">
<p>{{.Greeting}},</p>
<p>{{.Intro}}</p>
<h3>{{.TodayHeader}}</h3>
<ul>
{{- range .Today}}
<li>{{.Line}}{{if .City}}, {{.City}}{{end}}
{{- if .WhatsApp}} <a href="{{.WhatsApp}}">WhatsApp</a>{{end}}
{{- range .Instagram}} <a href="{{.}}">Instagram</a>{{end}}</li>
{{- end}}
</ul>
{{- if .Upcoming}}
<h3>{{.UpcomingHeader}}</h3>
<p>{{.UpcomingIntro}}</p>
<ul>
{{- range .Upcoming}}
<li>{{.Line}}</li>
{{- end}}
</ul>
{{- end}}
{{- template "footer" .Footer}}
</body></html>
`))

var monthlyTmpl = template.Must(template.New("monthly").Parse(`<html><body style="font-family:Arial,sans-serif;color:#333">
<h2>{{.Header}}</h2>
<p>{{.Greeting}}, {{.Intro}}</p>
<p>{{.CountLine}}</p>
<ul>
{{- range .Lines}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- template "footer" .Footer}}
</body></html>
`))

var changesTmpl = template.Must(template.New("changes").Parse(`<html><body style="font-family:Arial,sans-serif;color:#333">
<h2>{{.Header}}</h2>
<p>{{.Greeting}}, {{.Intro}}</p>
{{- range .Sections}}
<h3>{{.Name}}</h3>
{{- if .Created}}
<p>{{$.CreatedLabel}}</p>
<ul>
{{- range .Created}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Updated}}
<p>{{$.UpdatedLabel}}</p>
<ul>
{{- range .Updated}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- end}}
{{- template "footer" .Footer}}
</body></html>
`))

type footerData struct {
	CalendarURL   string
	CalendarLabel string
	ContactsURL   string
	ContactsLabel string
}

func init() {
	const footer = `{{define "footer"}}
{{- if or .CalendarURL .ContactsURL}}
<p style="font-size:small;color:#888">
{{- if .CalendarURL}}<a href="{{.CalendarURL}}">{{.CalendarLabel}}</a>{{end}}
{{- if and .CalendarURL .ContactsURL}} | {{end}}
{{- if .ContactsURL}}<a href="{{.ContactsURL}}">{{.ContactsLabel}}</a>{{end}}
</p>
{{- end}}
{{end}}`
	template.Must(dailyTmpl.Parse(footer))
	template.Must(monthlyTmpl.Parse(footer))
	template.Must(changesTmpl.Parse(footer))
}

func (c *Composer) footer() footerData {
	return footerData{
		CalendarURL:   c.CalendarURL,
		CalendarLabel: c.T.T("mail_footer_calendar", nil),
		ContactsURL:   c.ContactsURL,
		ContactsLabel: c.T.T("mail_footer_contacts", nil),
	}
}

// ComposeDaily builds the daily digest, or returns nil when nobody has a
// birthday today.
func (c *Composer) ComposeDaily(contacts []contact.Contact) (*Mail, error) {
	now := c.Clock.Now()
	today := contact.OnDate(contacts, now)
	if len(today) == 0 {
		return nil, nil
	}

	entries := make([]dailyEntry, 0, len(today))
	for _, person := range today {
		line := person.Name
		if age, err := person.AgeTurningThisYear(now); err == nil {
			line += fmt.Sprintf(" (%s)", c.T.T("turns_years", map[string]any{"Age": age}))
		}
		entry := dailyEntry{Line: line, WhatsApp: person.WhatsAppLink(), City: person.City}
		for _, h := range person.SocialHandles {
			if link := contact.InstagramLink(h); link != "" {
				entry.Instagram = append(entry.Instagram, link)
			}
		}
		entries = append(entries, entry)
	}

	var upcoming []upcomingEntry
	var upcomingIntro string
	if c.PreviewDays > 0 {
		next := contact.Upcoming(contacts, now, c.PreviewDays)
		for _, person := range next {
			occ := person.NextOccurrence(now)
			line := fmt.Sprintf("%s %s", person.ShortDate(), person.Name)
			if person.YearKnown {
				line += fmt.Sprintf(" (%s)", c.T.T("turns_years", map[string]any{"Age": occ.Year() - person.Birthday.Year()}))
			}
			upcoming = append(upcoming, upcomingEntry{Line: line, In: person.DaysUntilNext(now)})
		}
		if len(upcoming) > 0 {
			upcomingIntro = c.T.T("mail_daily_upcoming_intro", map[string]any{
				"Days": c.PreviewDays, "Count": len(upcoming),
			})
		}
	}

	data := struct {
		Greeting       string
		Intro          string
		TodayHeader    string
		Today          []dailyEntry
		UpcomingHeader string
		UpcomingIntro  string
		Upcoming       []upcomingEntry
		Footer         footerData
	}{
		Greeting:       c.T.T("mail_greeting", nil),
		Intro:          c.T.T("mail_daily_intro", map[string]any{"Count": len(today)}),
		TodayHeader:    c.T.T("mail_daily_today", nil),
		Today:          entries,
		UpcomingHeader: c.T.T("mail_daily_upcoming", nil),
		UpcomingIntro:  upcomingIntro,
		Upcoming:       upcoming,
		Footer:         c.footer(),
	}

	var b strings.Builder
	if err := dailyTmpl.Execute(&b, data); err != nil {
		return nil, err
	}
	return &Mail{Subject: c.T.T("subject_daily", nil), HTML: b.String()}, nil
}

// ComposeMonthly builds the overview mail for the month containing day, or
// returns nil when that month has no birthdays.
func (c *Composer) ComposeMonthly(contacts []contact.Contact, day time.Time) (*Mail, error) {
	inMonth := contact.InMonth(contacts, day.Month())
	if len(inMonth) == 0 {
		return nil, nil
	}

	lang := c.T.Lang()
	monthName := contact.MonthLong(lang, day.Month())
	lines := make([]template.HTML, 0, len(inMonth))
	for _, person := range inMonth {
		// SummaryMailLine emits vetted markup only.
		lines = append(lines, template.HTML(c.Renderer.SummaryMailLine(person, day.Year())))
	}

	data := struct {
		Header    string
		Greeting  string
		Intro     string
		CountLine string
		Lines     []template.HTML
		Footer    footerData
	}{
		Header:    c.T.T("mail_monthly_header", map[string]any{"Month": monthName}),
		Greeting:  c.T.T("mail_greeting", nil),
		Intro:     c.T.T("mail_monthly_intro", map[string]any{"Month": monthName, "Year": day.Year()}),
		CountLine: c.T.T("mail_monthly_count", map[string]any{"Count": len(inMonth)}),
		Lines:     lines,
		Footer:    c.footer(),
	}

	var b strings.Builder
	if err := monthlyTmpl.Execute(&b, data); err != nil {
		return nil, err
	}
	return &Mail{Subject: c.T.T("subject_monthly", nil), HTML: b.String()}, nil
}

// ComposeChangeReport builds the notification about events a sync run
// created or updated, or returns nil when the run changed nothing.
func (c *Composer) ComposeChangeReport(report sync.Report) (*Mail, error) {
	if !report.HasChanges() {
		return nil, nil
	}

	type mailSection struct {
		Name    string
		Created []string
		Updated []string
	}
	var sections []mailSection
	if report.Individual.Changed() {
		sections = append(sections, mailSection{
			Name:    c.T.T("mail_changes_individual", nil),
			Created: report.Individual.Created,
			Updated: report.Individual.Updated,
		})
	}
	if report.Summary.Changed() {
		sections = append(sections, mailSection{
			Name:    c.T.T("mail_changes_summary", nil),
			Created: report.Summary.Created,
			Updated: report.Summary.Updated,
		})
	}

	data := struct {
		Header       string
		Greeting     string
		Intro        string
		CreatedLabel string
		UpdatedLabel string
		Sections     []mailSection
		Footer       footerData
	}{
		Header:       c.T.T("mail_changes_header", nil),
		Greeting:     c.T.T("mail_greeting", nil),
		Intro:        c.T.T("mail_changes_intro", nil),
		CreatedLabel: c.T.T("mail_changes_created", nil),
		UpdatedLabel: c.T.T("mail_changes_updated", nil),
		Sections:     sections,
		Footer:       c.footer(),
	}

	var b strings.Builder
	if err := changesTmpl.Execute(&b, data); err != nil {
		return nil, err
	}
	return &Mail{Subject: c.T.T("subject_changes", nil), HTML: b.String()}, nil
}
