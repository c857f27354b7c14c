package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tartampluch/birthday-sync/internal/config"
	"github.com/tartampluch/birthday-sync/internal/contact"
	"github.com/tartampluch/birthday-sync/internal/digest"
	"github.com/tartampluch/birthday-sync/internal/google"
	"github.com/tartampluch/birthday-sync/internal/i18n"
	"github.com/tartampluch/birthday-sync/internal/icsstore"
	"github.com/tartampluch/birthday-sync/internal/ingest"
	"github.com/tartampluch/birthday-sync/internal/server"
	syncpkg "github.com/tartampluch/birthday-sync/internal/sync"
	"github.com/tartampluch/birthday-sync/internal/vdir"
)

// app holds the wired dependency graph for one process.
type app struct {
	opts     *config.Options
	clock    contact.Clock
	renderer *contact.Renderer
	composer *digest.Composer

	ingestor *ingest.Ingestor
	calendar syncpkg.Calendar
	purger   syncpkg.Purger
	mailer   digest.Mailer

	store   *icsstore.Store
	publish *server.PublishServer
}

// buildApp resolves the configured source, backend and transport into a
// ready-to-run application.
func buildApp(ctx context.Context, opts *config.Options) (*app, error) {
	translator, err := i18n.New(opts.Language)
	if err != nil {
		return nil, err
	}

	a := &app{
		opts:     opts,
		clock:    contact.RealClock{},
		renderer: &contact.Renderer{T: translator},
	}
	a.composer = &digest.Composer{
		T:           translator,
		Renderer:    a.renderer,
		Clock:       a.clock,
		PreviewDays: opts.DailyPreviewDays,
	}

	directory, labels, err := buildSource(ctx, opts)
	if err != nil {
		return nil, err
	}
	a.ingestor = &ingest.Ingestor{
		Directory:  directory,
		Labels:     labels,
		MaxRetries: opts.MaxRetries,
	}

	switch opts.Calendar.Mode {
	case config.CalendarModeGoogle:
		cal, err := google.NewCalendar(ctx, opts.CredentialsFile, opts.Calendar.ID)
		if err != nil {
			return nil, err
		}
		a.calendar = cal
		a.purger = cal
		a.composer.CalendarURL = config.GoogleCalendarURL
		a.composer.ContactsURL = config.GoogleContactsURL
	case config.CalendarModeICS:
		store, err := icsstore.Open(opts.Calendar.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
		a.calendar = store
		a.purger = store
		if opts.Daemon.ServePort != "" {
			a.publish = server.New(store, opts.Daemon.ServePort)
		}
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrBackendUnsupport, opts.Calendar.Mode)
	}

	switch opts.Mail.Mode {
	case config.MailModeGmail:
		mailer, err := google.NewMailer(ctx, opts.CredentialsFile, opts.Mail.To, opts.Mail.From, opts.Mail.SenderName)
		if err != nil {
			return nil, err
		}
		a.mailer = mailer
	case config.MailModeNone:
		// Digests are composed but never sent.
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrMailUnsupport, opts.Mail.Mode)
	}

	return a, nil
}

func buildSource(ctx context.Context, opts *config.Options) (ingest.Directory, ingest.LabelResolver, error) {
	switch opts.Source.Mode {
	case config.SourceModeGoogle:
		dir, err := google.NewDirectory(ctx, opts.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return dir, dir, nil
	case config.SourceModeCardDAV:
		return &vdir.Directory{
			Mode:    config.SourceModeCardDAV,
			URL:     opts.Source.URL,
			User:    opts.Source.User,
			Pass:    opts.Source.Pass,
			Fetcher: vdir.NewHTTPFetcher(),
		}, vdir.StaticLabels{}, nil
	case config.SourceModeLocal:
		return &vdir.Directory{
			Mode: config.SourceModeLocal,
			Path: opts.Source.Path,
		}, vdir.StaticLabels{}, nil
	default:
		return nil, nil, fmt.Errorf("%s: %q", config.ErrSourceUnsupport, opts.Source.Mode)
	}
}

func (a *app) runJob(ctx context.Context, jobName, purgeTitle string) error {
	switch jobName {
	case config.JobSync:
		return a.runSync(ctx)
	case config.JobDailyMail:
		return a.runDailyMail(ctx)
	case config.JobMonthlyMail:
		return a.runMonthlyMail(ctx)
	case config.JobPurge:
		return a.runPurge(ctx, purgeTitle)
	default:
		return fmt.Errorf("%s: %q", config.ErrJobUnknown, jobName)
	}
}

// runSync executes the full pipeline: ingest, reconcile both event kinds,
// then the change-notification mail when anything was written.
func (a *app) runSync(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompMain, config.LogKeyJob, config.JobSync)
	log.Info(config.MsgRunStarted)
	start := time.Now()

	contacts, err := a.fetchContacts(ctx)
	if err != nil {
		return err
	}

	var report syncpkg.Report

	if a.opts.CreateIndividualEvents {
		individual := &syncpkg.IndividualReconciler{
			Calendar:        a.calendar,
			Clock:           a.clock,
			Renderer:        a.renderer,
			LookAheadMonths: a.opts.LookAheadMonths,
			Reminder: syncpkg.Reminders{
				Method:  a.opts.ReminderMethod,
				Minutes: a.opts.ReminderMinutes,
			},
			PauseEvery: config.PauseEveryContacts,
			Pause:      config.PauseDuration,
		}
		report.Individual, err = individual.Reconcile(ctx, contacts)
		if err != nil {
			return err
		}
	}

	if a.opts.CreateMonthlySummaries {
		monthly := &syncpkg.MonthlyReconciler{
			Calendar:        a.calendar,
			Clock:           a.clock,
			Renderer:        a.renderer,
			LookAheadMonths: a.opts.LookAheadMonths,
		}
		report.Summary, err = monthly.Reconcile(ctx, contacts)
		if err != nil {
			return err
		}
	}

	failures := report.Individual.Failed + report.Summary.Failed
	if failures > 0 && !report.HasChanges() {
		log.Warn(config.MsgRunErrors, config.LogKeyFailed, failures)
	}

	if a.publish != nil {
		if err := a.publish.Refresh(); err != nil {
			return err
		}
	}

	if report.HasChanges() && a.mailer != nil {
		mail, err := a.composer.ComposeChangeReport(report)
		if err != nil {
			return fmt.Errorf("%s: %w", config.ErrMailCompose, err)
		}
		if mail != nil {
			if err := a.mailer.Send(ctx, *mail); err != nil {
				return err
			}
			log.Info(config.MsgChangesMailed)
		}
	}

	log.Info(config.MsgRunFinished,
		config.LogKeyCount, len(contacts),
		config.LogKeyCreated, len(report.Individual.Created)+len(report.Summary.Created),
		config.LogKeyUpdated, len(report.Individual.Updated)+len(report.Summary.Updated),
		config.LogKeyFailed, failures,
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return nil
}

func (a *app) runDailyMail(ctx context.Context) error {
	contacts, err := a.fetchContacts(ctx)
	if err != nil {
		return err
	}
	mail, err := a.composer.ComposeDaily(contacts)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrMailCompose, err)
	}
	return a.send(ctx, mail)
}

// runMonthlyMail announces the upcoming month, matching the summary event
// reminder that fires a few days before the month starts.
func (a *app) runMonthlyMail(ctx context.Context) error {
	contacts, err := a.fetchContacts(ctx)
	if err != nil {
		return err
	}
	now := a.clock.Now()
	nextMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	mail, err := a.composer.ComposeMonthly(contacts, nextMonth)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrMailCompose, err)
	}
	return a.send(ctx, mail)
}

func (a *app) runPurge(ctx context.Context, purgeTitle string) error {
	if purgeTitle == "" {
		return errors.New(config.ErrPurgeTitleEmpty)
	}

	now := a.clock.Now()
	start := now.AddDate(-1, 0, 0)
	end := now.AddDate(0, a.opts.LookAheadMonths, 0).AddDate(0, 1, 0)

	deleted, err := a.purger.DeleteEventsByTitle(ctx, purgeTitle, start, end)
	if err != nil {
		return err
	}
	slog.Info(config.MsgPurgeDone,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyTitle, purgeTitle,
		config.LogKeyCount, deleted,
	)

	if a.publish != nil {
		return a.publish.Refresh()
	}
	return nil
}

func (a *app) fetchContacts(ctx context.Context) ([]contact.Contact, error) {
	return a.ingestor.Fetch(ctx, ingest.Filter{
		UseLabelFilter: a.opts.UseLabelFilter,
		LabelFilter:    a.opts.LabelFilter,
	})
}

func (a *app) send(ctx context.Context, mail *digest.Mail) error {
	if mail == nil || a.mailer == nil {
		slog.Info(config.MsgMailSkipped, config.LogKeyComponent, config.CompDigest)
		return nil
	}
	return a.mailer.Send(ctx, *mail)
}

// runDaemon schedules the jobs with cron and blocks until the context is
// cancelled. With an ICS backend and a serve port the publish server runs
// alongside.
func (a *app) runDaemon(ctx context.Context) error {
	scheduler := cron.New()

	jobs := []struct {
		spec string
		name string
		fn   func(context.Context) error
	}{
		{a.opts.Daemon.SyncCron, config.JobSync, a.runSync},
		{a.opts.Daemon.DailyCron, config.JobDailyMail, a.runDailyMail},
		{a.opts.Daemon.MonthlyCron, config.JobMonthlyMail, a.runMonthlyMail},
	}
	for _, job := range jobs {
		job := job
		_, err := scheduler.AddFunc(job.spec, func() {
			if err := job.fn(ctx); err != nil {
				slog.Error(config.ErrAppFailed,
					config.LogKeyComponent, config.CompSchedule,
					config.LogKeyJob, job.name,
					config.LogKeyError, err,
				)
			}
		})
		if err != nil {
			return err
		}
		slog.Info(config.MsgDaemonSchedule,
			config.LogKeyComponent, config.CompSchedule,
			config.LogKeyJob, job.name,
			config.LogKeyValue, job.spec,
		)
	}

	// Run one sync immediately so a fresh daemon serves current data.
	if err := a.runSync(ctx); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompSchedule,
			config.LogKeyJob, config.JobSync,
			config.LogKeyError, err,
		)
	}

	scheduler.Start()
	defer func() {
		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
	}()

	if a.publish != nil {
		return a.publish.Start(ctx)
	}

	<-ctx.Done()
	slog.Info(config.MsgDaemonStop, config.LogKeyComponent, config.CompSchedule)
	return nil
}
