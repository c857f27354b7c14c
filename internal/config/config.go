package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Birthday-Sync/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Birthday Sync"
	AppID             = "com.github.tartampluch.birthday-sync"
	KeyringService    = "com.github.tartampluch.birthday-sync"
	LocalhostBindAddr = "127.0.0.1"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion     = "version"
	FlagDebug       = "debug"
	FlagConfig      = "config"
	FlagJob         = "job"
	FlagDaemon      = "daemon"
	FlagPurgeTitle  = "purge-title"
	FlagDescVersion = "Show application version and exit"
	FlagDescDebug   = "Enable debug logging"
	FlagDescConfig  = "Path to the YAML configuration file"
	FlagDescJob     = "Job to run: sync, daily-mail, monthly-mail or purge"
	FlagDescDaemon  = "Keep running and execute jobs on their cron schedules"
	FlagDescPurge   = "Title substring for the purge job"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// Job names accepted by the -job flag.
const (
	JobSync        = "sync"
	JobDailyMail   = "daily-mail"
	JobMonthlyMail = "monthly-mail"
	JobPurge       = "purge"
)

// -----------------------------------------------------------------------------
// Source / Backend Modes
// -----------------------------------------------------------------------------

const (
	// Contact sources.
	SourceModeGoogle  = "google"
	SourceModeCardDAV = "carddav"
	SourceModeLocal   = "local"

	// Calendar backends.
	CalendarModeGoogle = "google"
	CalendarModeICS    = "ics"

	// Mail transports.
	MailModeGmail = "gmail"
	MailModeNone  = "none"
)

// -----------------------------------------------------------------------------
// Defaults & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultLookAheadMonths = 12
	DefaultReminderMethod  = "popup"
	ReminderMethodNone     = "none"
	DefaultReminderMinutes = 12 * 60
	DefaultPreviewDays     = 5
	DefaultLanguage        = "de"
	DefaultMaxRetries      = 3
	DefaultPageSize        = int64(100)
	DefaultLeapYear        = 2000 // Leap year fallback for year-less birthdays (keeps Feb 29 representable)
	DefaultICSPath         = "birthdays.ics"
	DefaultConfigFile      = "birthday-sync.yaml"
	LogFileName            = "birthday-sync.log"
	TokenFileName          = "token.json"
	DefaultServePort       = "18080"
	DefaultSyncCron        = "0 4 * * *"
	DefaultDailyCron       = "0 7 * * *"
	DefaultMonthlyCron     = "0 7 1 * *"

	// SummaryReminderMinutes is the fixed reminder policy for monthly summary
	// events: an email four days ahead.
	SummaryReminderMinutes = 4 * 24 * 60
	SummaryReminderMethod  = "email"

	// PauseEveryContacts throttles reconciliation against provider rate limits.
	PauseEveryContacts = 20
	PauseDuration      = 2 * time.Second

	// BackoffJitterMax caps the random jitter added to each retry delay.
	BackoffJitterMax = time.Second

	FallbackName = "Unnamed Contact"

	UIDSalt = "birthday-sync-v1-"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	ICalVersion   = "2.0"
	ICalProdid    = "-//Birthday Sync//Reconciler//EN"
	ICalCalName   = "Birthdays"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalDomain    = "birthdaysync"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropDTStart     = "DTSTART"
	PropDTEnd       = "DTEND"
	PropDTStamp     = "DTSTAMP"
	PropAction      = "ACTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	ICalActionDisplay = "DISPLAY"
	ICalActionEmail   = "EMAIL"

	VCardBDAY       = "BDAY"
	VCardFN         = "FN"
	VCardN          = "N"
	VCardTEL        = "TEL"
	VCardEMAIL      = "EMAIL"
	VCardADR        = "ADR"
	VCardNOTE       = "NOTE"
	VCardCATEGORIES = "CATEGORIES"
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	// Date layouts used for parsing vCard BDAY fields.
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"

	// DateFormatAllDay is the wire format for all-day event boundaries.
	DateFormatAllDay = "2006-01-02"

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s@%s"

	// WhatsApp / Instagram link bases.
	WhatsAppBaseURL  = "https://wa.me/"
	InstagramBaseURL = "https://www.instagram.com/"

	// Digest footer links for the Google backend.
	GoogleCalendarURL = "https://calendar.google.com/"
	GoogleContactsURL = "https://contacts.google.com/"

	// Free-text note prefixes recognized as social handles.
	NotePrefixInstagram = "Instagram: "
	NotePrefixAt        = "@"
	NoteSeparator       = ". "
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	ChannelBufferSize   = 1
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = int64(256 * 1024 * 1024) // 256MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	AddrSeparator       = ":"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrConfigPathEmpty  = "configuration error: config path is empty"
	ErrConfigNil        = "configuration error: options are nil"
	ErrSourceUnsupport  = "configuration error: unsupported contact source"
	ErrBackendUnsupport = "configuration error: unsupported calendar backend"
	ErrMailUnsupport    = "configuration error: unsupported mail transport"
	ErrJobUnknown       = "unknown job"
	ErrPurgeTitleEmpty  = "purge job requires -purge-title"
	ErrContactName      = "contact validation: name is empty"
	ErrContactBirthday  = "contact validation: birthday is missing"
	ErrUnknownYear      = "birth year is unknown"
	ErrIngestAborted    = "contact ingestion aborted"
	ErrRetriesExhausted = "provider retries exhausted"
	ErrLocalPathEmpty   = "local source requires a file path"
	ErrWebURLEmpty      = "carddav source requires a URL"
	ErrFetcherMissing   = "carddav source requires a fetcher"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrDateParse        = "unable to parse date"
	ErrVCardParse       = "failed to parse vCard stream"
	ErrICalDecode       = "failed to decode iCalendar file"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrAppFailed        = "application failed unexpectedly"
	ErrMailCompose      = "failed to compose mail body"
	ErrCalendarGone     = "calendar not found"
	ErrCredentialsRead  = "could not read OAuth credentials file"
	ErrTokenExchange    = "OAuth code exchange failed"
	ErrLogFile          = "could not open log file"
	ErrCacheDir         = "could not resolve user cache directory"
	ErrCreateDir        = "could not create directory"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting     = "Starting application"
	MsgAppStop         = "Application stopped gracefully"
	MsgRunStarted      = "Synchronization run started"
	MsgRunFinished     = "Synchronization run finished"
	MsgRunErrors       = "Run finished with errors and no changes"
	MsgIngestStarted   = "Fetching contacts"
	MsgIngestFinished  = "Contacts fetched"
	MsgIngestRetry     = "Transient provider error, retrying page"
	MsgSkippedNoBday   = "Skipping contact without birthday"
	MsgSkippedCard     = "Skipping malformed vCard"
	MsgSkippedDate     = "Skipping invalid date format"
	MsgEventCreated    = "Event created"
	MsgEventUpdated    = "Event updated"
	MsgEventUnchanged  = "Event already up to date"
	MsgEventSkipped    = "No occurrence in window"
	MsgEventFailed     = "Event reconciliation failed"
	MsgSyncSection     = "Reconciliation pass finished"
	MsgMonthSkipped    = "No birthdays in month"
	MsgMailSent        = "Mail sent"
	MsgMailSkipped     = "Nothing to send"
	MsgChangesMailed   = "Change notification sent"
	MsgPurgeDone       = "Matching events deleted"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Published calendar updated"
	MsgDaemonSchedule  = "Job scheduled"
	MsgDaemonStop      = "Scheduler stopping due to context cancellation"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgKeyringMiss     = "Password not found in keyring (might be empty)"
	MsgStorePersisted  = "Calendar store written"
	MsgGroupUnresolved = "Dropping unresolved contact group"
	MsgCtxCancel       = "Context cancelled, shutting down"
	MsgTokenSaved      = "OAuth token cached"

	// MsgLogWarning is the stderr fallback when the log file cannot be
	// opened: message, path, error.
	MsgLogWarning = "Warning: %s (%s): %v\n"

	// MsgAuthVisit and MsgAuthPrompt drive the one-time console consent
	// flow when no cached OAuth token exists yet.
	MsgAuthVisit  = "Open this URL in your browser and grant access:\n\n%s\n\n"
	MsgAuthPrompt = "Paste the authorization code: "
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyJob       = "job"
	LogKeyMode      = "mode"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyName      = "name"
	LogKeyValue     = "value"
	LogKeyTitle     = "title"
	LogKeyDate      = "date"
	LogKeyMonth     = "month"
	LogKeyYear      = "year"
	LogKeyPage      = "page"
	LogKeyAttempt   = "attempt"
	LogKeyDelay     = "delay_ms"
	LogKeyCount     = "count"
	LogKeyCreated   = "created"
	LogKeyUpdated   = "updated"
	LogKeyUnchanged = "unchanged"
	LogKeySkipped   = "skipped"
	LogKeyFailed    = "failed"
	LogKeyTo        = "to"
	LogKeySubject   = "subject"
	LogKeyDuration  = "duration_ms"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyCron      = "cron"
	LogKeyStats     = "stats"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain     = "main"
	CompConfig   = "config"
	CompIngest   = "ingest"
	CompSync     = "sync"
	CompDigest   = "digest"
	CompMail     = "mail"
	CompServer   = "server"
	CompStore    = "icsstore"
	CompFetcher  = "fetcher"
	CompI18n     = "i18n"
	CompGoogle   = "google"
	CompVDir     = "vdir"
	CompSchedule = "scheduler"
)
