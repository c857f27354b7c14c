// Package vdir reads contacts from a vCard source, either a local .vcf
// file or a CardDAV address book export over HTTP. It adapts the stream to
// the ingest ports, so the rest of the pipeline does not care whether
// contacts came from here or from a cloud directory.
package vdir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-vcard"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/ingest"
)

// Directory reads a whole vCard stream as a single page. vCard sources
// have no server-side paging; the stream is bounded by the fetcher's size
// limit instead.
type Directory struct {
	// Mode selects between config.SourceModeLocal and config.SourceModeCardDAV.
	Mode string

	// Path is the local .vcf file for local mode.
	Path string

	// URL, User and Pass describe the CardDAV endpoint.
	URL  string
	User string
	Pass string

	Fetcher VCardFetcher
}

func (d *Directory) ListContacts(ctx context.Context, pageToken string) (*ingest.Page, error) {
	if pageToken != "" {
		// Single-page source; any token is a caller bug.
		return nil, fmt.Errorf("unexpected page token %q", pageToken)
	}

	reader, err := d.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	return decodeCards(ctx, reader)
}

func (d *Directory) open(ctx context.Context) (io.ReadCloser, error) {
	switch d.Mode {
	case config.SourceModeLocal:
		if d.Path == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(d.Path)
	case config.SourceModeCardDAV:
		if d.URL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if d.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return d.Fetcher.Fetch(ctx, d.URL, d.User, d.Pass)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrSourceUnsupport, d.Mode)
	}
}

func decodeCards(ctx context.Context, r io.Reader) (*ingest.Page, error) {
	decoder := vcard.NewDecoder(r)
	page := &ingest.Page{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Keep going; one broken card should not sink the address book.
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompVDir,
				config.LogKeyError, err)
			continue
		}
		page.Records = append(page.Records, toRecord(card))
	}

	return page, nil
}

// toRecord flattens one vCard into a directory record. Categories become
// group ids directly; StaticLabels resolves them by identity.
func toRecord(card vcard.Card) ingest.Record {
	rec := ingest.Record{}

	if fn := card.Get(config.VCardFN); fn != nil {
		rec.DisplayName = fn.Value
	} else if n := card.Get(config.VCardN); n != nil {
		rec.DisplayName = n.Value
	}

	if bday := card.Get(config.VCardBDAY); bday != nil && bday.Value != "" {
		if date, yearKnown, err := parseDate(bday.Value); err == nil {
			year := 0
			if yearKnown {
				year = date.Year()
			}
			rec.Birthday = &ingest.Date{Day: date.Day(), Month: int(date.Month()), Year: year}
		} else {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompVDir,
				config.LogKeyName, rec.DisplayName,
				config.LogKeyValue, bday.Value)
		}
	}

	if tel := card.Get(config.VCardTEL); tel != nil {
		rec.Phone = tel.Value
	}
	if email := card.Get(config.VCardEMAIL); email != nil {
		rec.Email = email.Value
	}
	if adr := card.Get(config.VCardADR); adr != nil {
		// ADR is structured: pobox;ext;street;locality;region;code;country.
		parts := strings.Split(adr.Value, ";")
		if len(parts) > 3 {
			rec.City = parts[3]
		}
	}
	if note := card.Get(config.VCardNOTE); note != nil {
		rec.Notes = note.Value
	}

	for _, cats := range card.Values(config.VCardCATEGORIES) {
		for _, cat := range strings.Split(cats, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				rec.Memberships = append(rec.Memberships, ingest.Membership{GroupID: cat})
			}
		}
	}

	return rec
}

// parseDate handles the vCard BDAY formats, full and truncated. Truncated
// dates land in the leap-year sentinel so Feb 29 stays representable.
func parseDate(value string) (time.Time, bool, error) {
	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return t, true, nil
		}
	}

	formatsWithoutYear := []string{config.DateFormatNoYearD, config.DateFormatNoYearB}
	for _, f := range formatsWithoutYear {
		if t, err := time.Parse(f, value); err == nil {
			safeDate := time.Date(config.DefaultLeapYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return safeDate, false, nil
		}
	}

	return time.Time{}, false, errors.New(config.ErrDateParse)
}

// StaticLabels resolves group ids to themselves. vCard categories are
// already human-readable names.
type StaticLabels struct{}

func (StaticLabels) ResolveNames(_ context.Context, ids []string) ([]string, error) {
	return ids, nil
}
