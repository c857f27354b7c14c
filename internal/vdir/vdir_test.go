package vdir_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/vdir"
)

const sampleVCF = `BEGIN:VCARD
VERSION:3.0
FN:Anna Schmidt
BDAY:1985-03-10
TEL:+49 151 2345678
EMAIL:anna@example.com
ADR:;;Hauptstr. 1;Berlin;;10115;Germany
NOTE:Instagram: anna_b. Met at the climbing gym
CATEGORIES:Friends,Sports
END:VCARD
BEGIN:VCARD
VERSION:3.0
FN:Ben Weber
BDAY:--0805
END:VCARD
BEGIN:VCARD
VERSION:3.0
FN:No Birthday
END:VCARD
`

func writeVCF(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.vcf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLocalDirectoryDecodesCards(t *testing.T) {
	dir := &vdir.Directory{
		Mode: config.SourceModeLocal,
		Path: writeVCF(t, sampleVCF),
	}

	page, err := dir.ListContacts(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, page.NextPageToken)
	require.Len(t, page.Records, 3)

	anna := page.Records[0]
	assert.Equal(t, "Anna Schmidt", anna.DisplayName)
	require.NotNil(t, anna.Birthday)
	assert.Equal(t, 1985, anna.Birthday.Year)
	assert.Equal(t, 3, anna.Birthday.Month)
	assert.Equal(t, 10, anna.Birthday.Day)
	assert.Equal(t, "+49 151 2345678", anna.Phone)
	assert.Equal(t, "anna@example.com", anna.Email)
	assert.Equal(t, "Berlin", anna.City)
	assert.Contains(t, anna.Notes, "Instagram: anna_b")
	require.Len(t, anna.Memberships, 2)
	assert.Equal(t, "Friends", anna.Memberships[0].GroupID)
	assert.Equal(t, "Sports", anna.Memberships[1].GroupID)

	ben := page.Records[1]
	require.NotNil(t, ben.Birthday)
	assert.Zero(t, ben.Birthday.Year)
	assert.Equal(t, 8, ben.Birthday.Month)
	assert.Equal(t, 5, ben.Birthday.Day)

	assert.Nil(t, page.Records[2].Birthday)
}

func TestLocalDirectoryRejectsPageToken(t *testing.T) {
	dir := &vdir.Directory{Mode: config.SourceModeLocal, Path: writeVCF(t, sampleVCF)}

	_, err := dir.ListContacts(context.Background(), "bogus")

	require.Error(t, err)
}

func TestLocalDirectoryRequiresPath(t *testing.T) {
	dir := &vdir.Directory{Mode: config.SourceModeLocal}

	_, err := dir.ListContacts(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrLocalPathEmpty)
}

func TestCardDAVDirectoryFetchesOverHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "carol", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, config.UserAgent, r.Header.Get("User-Agent"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sampleVCF))
	}))
	defer ts.Close()

	dir := &vdir.Directory{
		Mode:    config.SourceModeCardDAV,
		URL:     ts.URL,
		User:    "carol",
		Pass:    "secret",
		Fetcher: vdir.NewHTTPFetcher(),
	}

	page, err := dir.ListContacts(context.Background(), "")

	require.NoError(t, err)
	assert.Len(t, page.Records, 3)
}

func TestCardDAVDirectoryRequiresURLAndFetcher(t *testing.T) {
	_, err := (&vdir.Directory{Mode: config.SourceModeCardDAV}).ListContacts(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrWebURLEmpty)

	_, err = (&vdir.Directory{Mode: config.SourceModeCardDAV, URL: "https://dav.example.com"}).ListContacts(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrFetcherMissing)
}

func TestDirectoryRejectsUnknownMode(t *testing.T) {
	_, err := (&vdir.Directory{Mode: "imap"}).ListContacts(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrSourceUnsupport)
}

func TestFetcherErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    string
	}{
		{"NotFound", http.StatusNotFound, "404"},
		{"ServerError", http.StatusInternalServerError, "500"},
		{"Unauthorized", http.StatusUnauthorized, "401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer ts.Close()

			fetcher := vdir.NewHTTPFetcher()
			rc, err := fetcher.Fetch(context.Background(), ts.URL, "", "")

			assert.Error(t, err)
			assert.Nil(t, rc)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFetcherTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := vdir.NewHTTPFetcher().Fetch(ctx, ts.URL, "", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetcherRejectsBadURLs(t *testing.T) {
	fetcher := vdir.NewHTTPFetcher()

	_, err := fetcher.Fetch(context.Background(), string([]byte{0x7f}), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrInvalidURL)

	_, err = fetcher.Fetch(context.Background(), "ftp://example.com/file.vcf", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrProtocol)
}

func TestStaticLabelsIdentity(t *testing.T) {
	names, err := vdir.StaticLabels{}.ResolveNames(context.Background(), []string{"Friends", "Work"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Friends", "Work"}, names)
}

func TestFetcherBodyIntegrity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sampleVCF))
	}))
	defer ts.Close()

	rc, err := vdir.NewHTTPFetcher().Fetch(context.Background(), ts.URL, "", "")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, sampleVCF, string(body))
}
