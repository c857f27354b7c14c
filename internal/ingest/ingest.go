// Package ingest turns raw directory records into validated Contact values.
// It pages through the directory provider, resolves label names, applies the
// label filter and retries transient page failures with backoff. A run
// either yields the complete contact list or fails outright: a partial list
// would risk skipping legitimate birthdays downstream.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/contact"
	"github.com/tartampluch/birthday-sync/internal/provider"
)

// Date is a provider-reported calendar date. Year 0 means the source did
// not report a birth year.
type Date struct {
	Day   int
	Month int
	Year  int
}

// Membership tags a record with one contact-group identifier.
type Membership struct {
	GroupID string
}

// Record is one raw directory entry, shaped after what the provider
// actually returns.
type Record struct {
	DisplayName string
	Birthday    *Date
	Memberships []Membership
	Email       string
	Phone       string
	City        string
	Notes       string
}

// Page is one slice of the paged directory listing. An empty NextPageToken
// marks the last page.
type Page struct {
	Records       []Record
	NextPageToken string
}

// Directory is the paged contact listing port.
type Directory interface {
	ListContacts(ctx context.Context, pageToken string) (*Page, error)
}

// LabelResolver maps opaque group identifiers to human label names,
// silently dropping unknown or system ids.
type LabelResolver interface {
	ResolveNames(ctx context.Context, ids []string) ([]string, error)
}

// Filter is the contact-selection policy from the configuration.
type Filter struct {
	// UseLabelFilter disables all label matching when false: every contact
	// passes regardless of LabelFilter.
	UseLabelFilter bool
	LabelFilter    []string
}

// matches implements the selection rule: filtering disabled, empty filter
// set, or a non-empty intersection between contact labels and the filter.
func (f Filter) matches(labels []string) bool {
	if !f.UseLabelFilter || len(f.LabelFilter) == 0 {
		return true
	}
	for _, l := range labels {
		for _, want := range f.LabelFilter {
			if l == want {
				return true
			}
		}
	}
	return false
}

// Ingestor fetches and maps contacts.
type Ingestor struct {
	Directory Directory
	Labels    LabelResolver

	// MaxRetries bounds how often one failing page is retried.
	MaxRetries int

	// Sleep and Rand are injectable for tests; nil means time.Sleep and
	// math/rand.
	Sleep func(time.Duration)
	Rand  func() float64
}

// Fetch pages through the directory until exhaustion and returns the
// complete contact list sorted ascending by (month, day).
func (in *Ingestor) Fetch(ctx context.Context, filter Filter) ([]contact.Contact, error) {
	log := slog.With(config.LogKeyComponent, config.CompIngest)
	log.Info(config.MsgIngestStarted)

	var contacts []contact.Contact
	pageToken := ""
	pageNum := 0

	for {
		page, err := in.listWithRetry(ctx, pageToken, pageNum)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrIngestAborted, err)
		}

		for _, rec := range page.Records {
			c, ok := in.mapRecord(ctx, rec, filter)
			if !ok {
				continue
			}
			contacts = append(contacts, c)
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
		pageNum++
	}

	contact.SortByMonthDay(contacts)

	log.Info(config.MsgIngestFinished, config.LogKeyCount, len(contacts))
	return contacts, nil
}

// listWithRetry fetches one page, retrying the same page on transient
// errors with exponential backoff plus jitter (2^attempt seconds + up to
// one second). Fatal errors and exhausted retries surface immediately.
func (in *Ingestor) listWithRetry(ctx context.Context, pageToken string, pageNum int) (*Page, error) {
	var lastErr error
	for attempt := 0; attempt <= in.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := in.Directory.ListContacts(ctx, pageToken)
		if err == nil {
			return page, nil
		}
		if provider.IsFatal(err) {
			return nil, err
		}
		lastErr = err

		if attempt == in.MaxRetries {
			break
		}

		delay := in.backoff(attempt)
		slog.Warn(config.MsgIngestRetry,
			config.LogKeyComponent, config.CompIngest,
			config.LogKeyPage, pageNum,
			config.LogKeyAttempt, attempt+1,
			config.LogKeyDelay, delay.Milliseconds(),
			config.LogKeyError, err,
		)
		in.sleep(delay)
	}
	return nil, fmt.Errorf("%s: %w", config.ErrRetriesExhausted, lastErr)
}

func (in *Ingestor) backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	jitter := time.Duration(in.random() * float64(config.BackoffJitterMax))
	return base + jitter
}

func (in *Ingestor) sleep(d time.Duration) {
	if in.Sleep != nil {
		in.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (in *Ingestor) random() float64 {
	if in.Rand != nil {
		return in.Rand()
	}
	return rand.Float64()
}

// mapRecord converts one raw record into a Contact, applying the label
// filter. Records without a birthday are dropped. The bool return is false
// when the record does not make it into the run.
func (in *Ingestor) mapRecord(ctx context.Context, rec Record, filter Filter) (contact.Contact, bool) {
	log := slog.With(config.LogKeyComponent, config.CompIngest, config.LogKeyName, rec.DisplayName)

	if rec.Birthday == nil {
		log.Debug(config.MsgSkippedNoBday)
		return contact.Contact{}, false
	}

	labels := in.resolveLabels(ctx, rec.Memberships)
	if !filter.matches(labels) {
		return contact.Contact{}, false
	}

	// Year presence is decided here, once, from the provider data.
	yearKnown := rec.Birthday.Year != 0
	year := rec.Birthday.Year
	if !yearKnown {
		year = config.DefaultLeapYear
	}
	birthday := time.Date(year, time.Month(rec.Birthday.Month), rec.Birthday.Day, 0, 0, 0, 0, time.Local)

	name := rec.DisplayName
	if name == "" {
		name = config.FallbackName
	}

	c, err := contact.New(name, birthday, yearKnown)
	if err != nil {
		log.Warn(config.MsgSkippedCard, config.LogKeyError, err)
		return contact.Contact{}, false
	}

	c.Labels = labels
	c.Email = rec.Email
	c.Phone = rec.Phone
	c.City = rec.City
	c.SocialHandles = ExtractSocialHandles(rec.Notes)

	return c, true
}

// resolveLabels maps the record's group memberships to label names. A
// resolver failure degrades to "no labels" rather than failing the record;
// name resolution is display data, not identity.
func (in *Ingestor) resolveLabels(ctx context.Context, memberships []Membership) []string {
	if in.Labels == nil || len(memberships) == 0 {
		return nil
	}
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if m.GroupID != "" {
			ids = append(ids, m.GroupID)
		}
	}
	names, err := in.Labels.ResolveNames(ctx, ids)
	if err != nil {
		slog.Warn(config.MsgGroupUnresolved,
			config.LogKeyComponent, config.CompIngest,
			config.LogKeyError, err,
		)
		return nil
	}
	return names
}

// ExtractSocialHandles scans free-text notes for social handles. Notes are
// split on ". "; a sentence starting with "Instagram: " or "@" yields one
// handle, normalized to the "@name" form.
func ExtractSocialHandles(notes string) []string {
	if notes == "" {
		return nil
	}
	var handles []string
	for _, part := range strings.Split(notes, config.NoteSeparator) {
		part = strings.TrimSpace(part)
		var handle string
		switch {
		case strings.HasPrefix(part, config.NotePrefixInstagram):
			handle = strings.TrimSpace(strings.TrimPrefix(part, config.NotePrefixInstagram))
		case strings.HasPrefix(part, config.NotePrefixAt):
			handle = part
		default:
			continue
		}
		handle = strings.TrimPrefix(handle, config.NotePrefixAt)
		if handle != "" {
			handles = append(handles, config.NotePrefixAt+handle)
		}
	}
	return handles
}
