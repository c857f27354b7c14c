package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/birthday-sync/internal/config"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "birthday-sync.yaml")

	opts, err := config.Load(path)
	require.NoError(t, err)
	require.NotNil(t, opts)

	assert.Equal(t, config.DefaultOptions(), opts)

	info, err := os.Stat(path)
	require.NoError(t, err, "first run should persist the default config")
	assert.Equal(t, config.FilePermUserRW, info.Mode().Perm())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "birthday-sync.yaml")
	content := `
look_ahead_months: 6
language: en
source:
  mode: local
  path: /data/addressbook.vcf
`
	require.NoError(t, os.WriteFile(path, []byte(content), config.FilePermUserRW))

	opts, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6, opts.LookAheadMonths)
	assert.Equal(t, "en", opts.Language)
	assert.Equal(t, "/data/addressbook.vcf", opts.Source.Path)

	// Keys absent from the file keep their defaults, including booleans
	// that default to true.
	assert.True(t, opts.CreateIndividualEvents)
	assert.True(t, opts.CreateMonthlySummaries)
	assert.Equal(t, config.DefaultReminderMethod, opts.ReminderMethod)
	assert.Equal(t, config.DefaultSyncCron, opts.Daemon.SyncCron)
}

func TestLoad_ExplicitFalseIsRespected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "birthday-sync.yaml")
	content := `
create_individual_events: false
create_monthly_summaries: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), config.FilePermUserRW))

	opts, err := config.Load(path)
	require.NoError(t, err)

	assert.False(t, opts.CreateIndividualEvents)
	assert.False(t, opts.CreateMonthlySummaries)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "birthday-sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("look_ahead_months: [oops"), config.FilePermUserRW))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := config.Load("")
	assert.EqualError(t, err, config.ErrConfigPathEmpty)
}

func TestLoad_CardDAVPasswordFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "birthday-sync.yaml")
	content := `
source:
  mode: carddav
  url: https://dav.example.com/contacts.vcf
  user: anna
  pass: s3cret
`
	require.NoError(t, os.WriteFile(path, []byte(content), config.FilePermUserRW))

	opts, err := config.Load(path)
	require.NoError(t, err)

	// A password given in the file wins; the keyring is not consulted.
	assert.Equal(t, "s3cret", opts.Source.Pass)
}

func TestNormalize_FillsZeroValues(t *testing.T) {
	opts := &config.Options{ReminderMethod: "carrier-pigeon"}
	opts.Normalize()

	assert.Equal(t, config.DefaultLookAheadMonths, opts.LookAheadMonths)
	assert.Equal(t, config.DefaultReminderMethod, opts.ReminderMethod)
	assert.Equal(t, config.DefaultReminderMinutes, opts.ReminderMinutes)
	assert.Equal(t, config.DefaultPreviewDays, opts.DailyPreviewDays)
	assert.Equal(t, config.DefaultLanguage, opts.Language)
	assert.Equal(t, config.SourceModeLocal, opts.Source.Mode)
	assert.Equal(t, config.CalendarModeICS, opts.Calendar.Mode)
	assert.Equal(t, config.DefaultICSPath, opts.Calendar.Path)
	assert.Equal(t, config.MailModeNone, opts.Mail.Mode)
	assert.Equal(t, config.AppName, opts.Mail.SenderName)
	assert.Equal(t, config.DefaultMonthlyCron, opts.Daemon.MonthlyCron)
	assert.NotNil(t, opts.LabelFilter)
}

func TestNormalize_KeepsValidValues(t *testing.T) {
	opts := config.DefaultOptions()
	opts.ReminderMethod = "email"
	opts.LookAheadMonths = 12
	opts.Calendar.Path = "other.ics"

	opts.Normalize()

	assert.Equal(t, "email", opts.ReminderMethod)
	assert.Equal(t, 12, opts.LookAheadMonths)
	assert.Equal(t, "other.ics", opts.Calendar.Path)
}

func TestSave_Errors(t *testing.T) {
	err := config.Save("", config.DefaultOptions())
	assert.EqualError(t, err, config.ErrConfigPathEmpty)

	err = config.Save(filepath.Join(t.TempDir(), "c.yaml"), nil)
	assert.EqualError(t, err, config.ErrConfigNil)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "birthday-sync.yaml")

	want := config.DefaultOptions()
	want.Language = "de"
	want.UseLabelFilter = true
	want.LabelFilter = []string{"Friends", "Family"}
	want.Mail = config.MailOptions{
		Mode:       config.MailModeGmail,
		To:         "anna@example.com",
		From:       "bot@example.com",
		SenderName: "Birthday Bot",
	}

	require.NoError(t, config.Save(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, config.FilePermUserRW, info.Mode().Perm())

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// No stray temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
