package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/provider"
)

type fakeDirectory struct {
	pages map[string]*Page
	errs  map[string][]error
	calls int
}

func (d *fakeDirectory) ListContacts(_ context.Context, pageToken string) (*Page, error) {
	d.calls++
	if queue := d.errs[pageToken]; len(queue) > 0 {
		err := queue[0]
		d.errs[pageToken] = queue[1:]
		return nil, err
	}
	page, ok := d.pages[pageToken]
	if !ok {
		return &Page{}, nil
	}
	return page, nil
}

type fakeResolver struct {
	names map[string]string
	err   error
}

func (r *fakeResolver) ResolveNames(_ context.Context, ids []string) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []string
	for _, id := range ids {
		if name, ok := r.names[id]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func rec(name string, day, month, year int) Record {
	return Record{DisplayName: name, Birthday: &Date{Day: day, Month: month, Year: year}}
}

func newIngestor(dir Directory, labels LabelResolver) *Ingestor {
	return &Ingestor{
		Directory:  dir,
		Labels:     labels,
		MaxRetries: config.DefaultMaxRetries,
		Sleep:      func(time.Duration) {},
		Rand:       func() float64 { return 0 },
	}
}

func TestFetchPagesUntilExhaustion(t *testing.T) {
	dir := &fakeDirectory{pages: map[string]*Page{
		"":   {Records: []Record{rec("Zoe", 24, 12, 1990)}, NextPageToken: "p2"},
		"p2": {Records: []Record{rec("Anna", 3, 2, 1985)}},
	}}

	contacts, err := newIngestor(dir, nil).Fetch(context.Background(), Filter{})

	require.NoError(t, err)
	require.Len(t, contacts, 2)
	// Sorted by (month, day), not by page order.
	assert.Equal(t, "Anna", contacts[0].Name)
	assert.Equal(t, "Zoe", contacts[1].Name)
}

func TestFetchRetriesTransientPage(t *testing.T) {
	dir := &fakeDirectory{
		pages: map[string]*Page{"": {Records: []Record{rec("Anna", 3, 2, 1985)}}},
		errs:  map[string][]error{"": {provider.Transient(errors.New("503"))}},
	}

	contacts, err := newIngestor(dir, nil).Fetch(context.Background(), Filter{})

	require.NoError(t, err)
	assert.Len(t, contacts, 1)
	assert.Equal(t, 2, dir.calls)
}

func TestFetchAbortsOnFatal(t *testing.T) {
	dir := &fakeDirectory{errs: map[string][]error{"": {provider.Fatal(errors.New("401"))}}}

	_, err := newIngestor(dir, nil).Fetch(context.Background(), Filter{})

	require.Error(t, err)
	assert.Equal(t, 1, dir.calls)
}

func TestFetchAbortsAfterRetriesExhausted(t *testing.T) {
	boom := provider.Transient(errors.New("503"))
	dir := &fakeDirectory{errs: map[string][]error{"": {boom, boom, boom, boom}}}

	_, err := newIngestor(dir, nil).Fetch(context.Background(), Filter{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrRetriesExhausted)
	assert.Equal(t, config.DefaultMaxRetries+1, dir.calls)
}

func TestFetchSkipsRecordsWithoutBirthday(t *testing.T) {
	dir := &fakeDirectory{pages: map[string]*Page{
		"": {Records: []Record{{DisplayName: "No Birthday"}, rec("Anna", 3, 2, 1985)}},
	}}

	contacts, err := newIngestor(dir, nil).Fetch(context.Background(), Filter{})

	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Anna", contacts[0].Name)
}

func TestFetchUnknownYearContact(t *testing.T) {
	dir := &fakeDirectory{pages: map[string]*Page{
		"": {Records: []Record{rec("Mia", 29, 2, 0)}},
	}}

	contacts, err := newIngestor(dir, nil).Fetch(context.Background(), Filter{})

	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.False(t, contacts[0].YearKnown)
	assert.Equal(t, config.DefaultLeapYear, contacts[0].Birthday.Year())
	assert.Equal(t, time.February, contacts[0].Birthday.Month())
	assert.Equal(t, 29, contacts[0].Birthday.Day())
}

func TestFetchFallbackNameForEmptyDisplayName(t *testing.T) {
	dir := &fakeDirectory{pages: map[string]*Page{
		"": {Records: []Record{rec("", 3, 2, 1985)}},
	}}

	contacts, err := newIngestor(dir, nil).Fetch(context.Background(), Filter{})

	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, config.FallbackName, contacts[0].Name)
}

func TestFetchLabelFilter(t *testing.T) {
	friends := Record{
		DisplayName: "Anna",
		Birthday:    &Date{Day: 3, Month: 2, Year: 1985},
		Memberships: []Membership{{GroupID: "g1"}},
	}
	work := Record{
		DisplayName: "Ben",
		Birthday:    &Date{Day: 5, Month: 6, Year: 1990},
		Memberships: []Membership{{GroupID: "g2"}},
	}
	unlabeled := rec("Cleo", 7, 8, 1992)

	resolver := &fakeResolver{names: map[string]string{"g1": "Friends", "g2": "Work"}}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"filter disabled", Filter{}, []string{"Anna", "Ben", "Cleo"}},
		{"empty filter set", Filter{UseLabelFilter: true}, []string{"Anna", "Ben", "Cleo"}},
		{"single label", Filter{UseLabelFilter: true, LabelFilter: []string{"Friends"}}, []string{"Anna"}},
		{"no match", Filter{UseLabelFilter: true, LabelFilter: []string{"Family"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &fakeDirectory{pages: map[string]*Page{
				"": {Records: []Record{friends, work, unlabeled}},
			}}

			contacts, err := newIngestor(dir, resolver).Fetch(context.Background(), tt.filter)

			require.NoError(t, err)
			var names []string
			for _, c := range contacts {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFetchResolverFailureDegradesToNoLabels(t *testing.T) {
	dir := &fakeDirectory{pages: map[string]*Page{
		"": {Records: []Record{{
			DisplayName: "Anna",
			Birthday:    &Date{Day: 3, Month: 2, Year: 1985},
			Memberships: []Membership{{GroupID: "g1"}},
		}}},
	}}
	resolver := &fakeResolver{err: errors.New("batch get failed")}

	contacts, err := newIngestor(dir, resolver).Fetch(context.Background(), Filter{})

	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Empty(t, contacts[0].Labels)
}

func TestExtractSocialHandles(t *testing.T) {
	tests := []struct {
		name  string
		notes string
		want  []string
	}{
		{"empty", "", nil},
		{"instagram prefix", "Instagram: anna_b", []string{"@anna_b"}},
		{"at prefix", "@anna_b", []string{"@anna_b"}},
		{"mixed sentences", "Met at work. Instagram: anna_b. @ben99. Likes cake", []string{"@anna_b", "@ben99"}},
		{"no handles", "Met at work. Likes cake", nil},
		{"bare prefix", "Instagram: ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSocialHandles(tt.notes))
		})
	}
}
