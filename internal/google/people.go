package google

import (
	"context"
	"strings"

	"google.golang.org/api/people/v1"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/ingest"
)

const (
	connectionsResource = "people/me"
	personFields        = "names,birthdays,memberships,emailAddresses,phoneNumbers,addresses,biographies"
	groupResourcePrefix = "contactGroups/"
	systemGroupType     = "SYSTEM_CONTACT_GROUP"
)

// Directory lists the authenticated user's contacts via the People API.
// It implements both ingest.Directory and ingest.LabelResolver.
type Directory struct {
	svc      *people.Service
	pageSize int64
}

// NewDirectory builds a Directory from an OAuth credentials file.
func NewDirectory(ctx context.Context, credentialsFile string) (*Directory, error) {
	opt, err := clientOption(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}
	svc, err := people.NewService(ctx, opt)
	if err != nil {
		return nil, err
	}
	return &Directory{svc: svc, pageSize: config.DefaultPageSize}, nil
}

func (d *Directory) ListContacts(ctx context.Context, pageToken string) (*ingest.Page, error) {
	call := d.svc.People.Connections.List(connectionsResource).
		PersonFields(personFields).
		PageSize(d.pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, classify(err)
	}

	page := &ingest.Page{NextPageToken: resp.NextPageToken}
	for _, person := range resp.Connections {
		page.Records = append(page.Records, toRecord(person))
	}
	return page, nil
}

// ResolveNames resolves contact group ids to display names, dropping
// system groups like "myContacts" and "starred".
func (d *Directory) ResolveNames(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	resourceNames := make([]string, 0, len(ids))
	for _, id := range ids {
		resourceNames = append(resourceNames, groupResourcePrefix+id)
	}
	resp, err := d.svc.ContactGroups.BatchGet().
		ResourceNames(resourceNames...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}

	var names []string
	for _, r := range resp.Responses {
		if r.ContactGroup == nil || r.ContactGroup.GroupType == systemGroupType {
			continue
		}
		if r.ContactGroup.Name != "" {
			names = append(names, r.ContactGroup.Name)
		}
	}
	return names, nil
}

func toRecord(p *people.Person) ingest.Record {
	rec := ingest.Record{}

	if len(p.Names) > 0 {
		rec.DisplayName = p.Names[0].DisplayName
	}
	for _, b := range p.Birthdays {
		if b.Date == nil {
			continue
		}
		rec.Birthday = &ingest.Date{
			Day:   int(b.Date.Day),
			Month: int(b.Date.Month),
			Year:  int(b.Date.Year),
		}
		break
	}
	for _, m := range p.Memberships {
		if m.ContactGroupMembership != nil {
			rec.Memberships = append(rec.Memberships, ingest.Membership{
				GroupID: m.ContactGroupMembership.ContactGroupId,
			})
		}
	}
	if len(p.EmailAddresses) > 0 {
		rec.Email = p.EmailAddresses[0].Value
	}
	if len(p.PhoneNumbers) > 0 {
		rec.Phone = p.PhoneNumbers[0].Value
	}
	if len(p.Addresses) > 0 {
		rec.City = p.Addresses[0].City
	}
	var notes []string
	for _, bio := range p.Biographies {
		if v := strings.TrimSpace(bio.Value); v != "" {
			notes = append(notes, v)
		}
	}
	rec.Notes = strings.Join(notes, config.NoteSeparator)

	return rec
}
