package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// SourceOptions selects and parameterizes the contact directory provider.
type SourceOptions struct {
	// Mode is one of SourceModeGoogle, SourceModeCardDAV or SourceModeLocal.
	Mode string `yaml:"mode"`

	// Path is the local .vcf file (SourceModeLocal).
	Path string `yaml:"path,omitempty"`

	// URL / User / Pass address a CardDAV or WebDAV endpoint
	// (SourceModeCardDAV). An empty Pass is resolved from the OS keyring
	// under KeyringService and User.
	URL  string `yaml:"url,omitempty"`
	User string `yaml:"user,omitempty"`
	Pass string `yaml:"pass,omitempty"`
}

// CalendarOptions selects the calendar backend that stores the events.
type CalendarOptions struct {
	// Mode is CalendarModeGoogle or CalendarModeICS.
	Mode string `yaml:"mode"`

	// ID is the Google calendar identifier (CalendarModeGoogle).
	ID string `yaml:"id,omitempty"`

	// Path is the .ics file location (CalendarModeICS).
	Path string `yaml:"path,omitempty"`
}

// MailOptions configures the notification transport and addressing.
type MailOptions struct {
	Mode       string `yaml:"mode"` // MailModeGmail or MailModeNone
	To         string `yaml:"to,omitempty"`
	From       string `yaml:"from,omitempty"`
	SenderName string `yaml:"sender_name,omitempty"`
}

// DaemonOptions configures the long-running scheduler mode.
type DaemonOptions struct {
	SyncCron    string `yaml:"sync_cron"`
	DailyCron   string `yaml:"daily_cron"`
	MonthlyCron string `yaml:"monthly_cron"`

	// ServePort, if non-empty, publishes the ICS calendar snapshot over
	// HTTP on 127.0.0.1:<port> (ICS backend only).
	ServePort string `yaml:"serve_port,omitempty"`
}

// Options is the explicit configuration value object handed to ingestion,
// the reconcilers and the digest composer. No component reads configuration
// from anywhere else.
type Options struct {
	LookAheadMonths        int      `yaml:"look_ahead_months"`
	ReminderMethod         string   `yaml:"reminder_method"` // none, email or popup
	ReminderMinutes        int      `yaml:"reminder_minutes"`
	CreateIndividualEvents bool     `yaml:"create_individual_events"`
	CreateMonthlySummaries bool     `yaml:"create_monthly_summaries"`
	UseLabelFilter         bool     `yaml:"use_label_filter"`
	LabelFilter            []string `yaml:"label_filter"`
	DailyPreviewDays       int      `yaml:"daily_preview_days"`
	Language               string   `yaml:"language"`
	MaxRetries             int      `yaml:"max_retries"`

	// CredentialsFile points at the Google OAuth credentials JSON used by
	// the google source/calendar/mail adapters.
	CredentialsFile string `yaml:"credentials_file,omitempty"`

	Source   SourceOptions   `yaml:"source"`
	Calendar CalendarOptions `yaml:"calendar"`
	Mail     MailOptions     `yaml:"mail"`
	Daemon   DaemonOptions   `yaml:"daemon"`
}

// DefaultOptions returns the in-memory default configuration.
func DefaultOptions() *Options {
	return &Options{
		LookAheadMonths:        DefaultLookAheadMonths,
		ReminderMethod:         DefaultReminderMethod,
		ReminderMinutes:        DefaultReminderMinutes,
		CreateIndividualEvents: true,
		CreateMonthlySummaries: true,
		UseLabelFilter:         false,
		LabelFilter:            []string{},
		DailyPreviewDays:       DefaultPreviewDays,
		Language:               DefaultLanguage,
		MaxRetries:             DefaultMaxRetries,
		Source: SourceOptions{
			Mode: SourceModeLocal,
			Path: "contacts.vcf",
		},
		Calendar: CalendarOptions{
			Mode: CalendarModeICS,
			Path: DefaultICSPath,
		},
		Mail: MailOptions{
			Mode:       MailModeNone,
			SenderName: AppName,
		},
		Daemon: DaemonOptions{
			SyncCron:    DefaultSyncCron,
			DailyCron:   DefaultDailyCron,
			MonthlyCron: DefaultMonthlyCron,
			ServePort:   DefaultServePort,
		},
	}
}

// Normalize fills missing or zero values with defaults so partially filled
// config files keep behaving.
func (o *Options) Normalize() {
	if o.LookAheadMonths <= 0 {
		o.LookAheadMonths = DefaultLookAheadMonths
	}
	switch o.ReminderMethod {
	case "none", "email", "popup":
	default:
		o.ReminderMethod = DefaultReminderMethod
	}
	if o.ReminderMinutes <= 0 {
		o.ReminderMinutes = DefaultReminderMinutes
	}
	if o.DailyPreviewDays <= 0 {
		o.DailyPreviewDays = DefaultPreviewDays
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.LabelFilter == nil {
		o.LabelFilter = []string{}
	}
	if o.Source.Mode == "" {
		o.Source.Mode = SourceModeLocal
	}
	if o.Calendar.Mode == "" {
		o.Calendar.Mode = CalendarModeICS
	}
	if o.Calendar.Mode == CalendarModeICS && o.Calendar.Path == "" {
		o.Calendar.Path = DefaultICSPath
	}
	if o.Mail.Mode == "" {
		o.Mail.Mode = MailModeNone
	}
	if o.Mail.SenderName == "" {
		o.Mail.SenderName = AppName
	}
	if o.Daemon.SyncCron == "" {
		o.Daemon.SyncCron = DefaultSyncCron
	}
	if o.Daemon.DailyCron == "" {
		o.Daemon.DailyCron = DefaultDailyCron
	}
	if o.Daemon.MonthlyCron == "" {
		o.Daemon.MonthlyCron = DefaultMonthlyCron
	}
}

// Load reads the YAML configuration at path. A missing file is a first run:
// the defaults are written there and returned. CardDAV passwords left empty
// in the file are resolved from the OS keyring.
func Load(path string) (*Options, error) {
	if path == "" {
		return nil, errors.New(ErrConfigPathEmpty)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			opts := DefaultOptions()
			if err := Save(path, opts); err != nil {
				return opts, err
			}
			return opts, nil
		}
		return nil, err
	}

	// Unmarshal over the defaults: keys absent from the file keep their
	// default value, including booleans that default to true.
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, err
	}
	opts.Normalize()
	opts.resolveKeyring()

	return opts, nil
}

// resolveKeyring fills Source.Pass from the OS keyring when the config file
// leaves it empty. Failure is not fatal; the endpoint may be unauthenticated.
func (o *Options) resolveKeyring() {
	if o.Source.Mode != SourceModeCardDAV || o.Source.Pass != "" || o.Source.User == "" {
		return
	}
	pass, err := keyring.Get(KeyringService, o.Source.User)
	if err != nil {
		slog.Debug(MsgKeyringMiss,
			LogKeyComponent, CompConfig,
			LogKeyError, err,
		)
		return
	}
	o.Source.Pass = pass
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions. Keyring-resolved passwords are not written back.
func Save(path string, opts *Options) error {
	if path == "" {
		return errors.New(ErrConfigPathEmpty)
	}
	if opts == nil {
		return errors.New(ErrConfigNil)
	}

	opts.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return err
	}

	data, err := yaml.Marshal(opts)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".birthday-sync-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, FilePermUserRW); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
