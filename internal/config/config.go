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

// UserAgent identifies the HTTP client used by remote vCard sources.
var UserAgent = "Go-Contacts/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName        = "Go Contacts"
	AppID          = "com.github.tartampluch.go-contacts"
	CLIName        = "contactctl"
	KeyringService = "com.github.tartampluch.go-contacts"
	LogFileName    = "app.log"
	ConfigFileName = "config.yaml"

	// KeyringAccessAccount is the keyring account under which the user's
	// contacts access decision is remembered.
	KeyringAccessAccount = "contacts-access"
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
	// Used for logs and the settings file.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion     = "version"
	FlagDebug       = "debug"
	FlagConfig      = "config"
	FlagSource      = "source"
	FlagPath        = "path"
	FlagURL         = "url"
	FlagUser        = "user"
	FlagLocale      = "locale"
	FlagYes         = "yes"
	FlagReset       = "reset"
	FlagDescVersion = "Show application version and exit"
	FlagDescDebug   = "Enable debug logging to stdout"
	FlagDescConfig  = "Path to the settings file (defaults to the user config dir)"
	FlagDescSource  = "Contact source: local, web or addressbook"
	FlagDescPath    = "Path to a .vcf file or an AddressBook database"
	FlagDescURL     = "URL of a vCard/CardDAV export"
	FlagDescUser    = "User name for the remote source (password is read from the keyring)"
	FlagDescLocale  = "Collation locale, e.g. en or zh-Hans (defaults to the system locale)"
	FlagDescYes     = "Grant contacts access without prompting"
	FlagDescReset   = "Forget the remembered contacts access decision"

	MsgVersionOutput   = "%s version %s (%s/%s)\n"
	MsgSelectionOutput = "%s\t%s\n"
	MsgCLIError        = "Error: %s\n"
	MsgStatusLine      = "%s: %s\n"
)

// -----------------------------------------------------------------------------
// Settings Keys (YAML)
// -----------------------------------------------------------------------------

// SourceMode values select the ContactSource implementation.
const (
	SourceModeLocal       = "local"
	SourceModeWeb         = "web"
	SourceModeAddressBook = "addressbook"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr", "zh"}

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultLocale   = "en"
	DefaultLanguage = "en"
	DefaultDebounce = 300 * time.Millisecond
	MinDebounce     = 0
	MaxDebounce     = 5 * time.Second

	// ChineseLocalePrefix selects pinyin-initial collation.
	ChineseLocalePrefix = "zh"

	// FallbackName is displayed for contacts with neither first nor last name.
	FallbackName = "Unknown"

	UIDSalt       = "go-contacts-v1-" // Salt for deterministic identifiers of vCards without UID
	UIDHashLength = 16
)

// -----------------------------------------------------------------------------
// Standards: vCard & AddressBook
// -----------------------------------------------------------------------------

const (
	// vCard photo encodings
	VCardParamEncoding  = "ENCODING"
	VCardTypePref       = "pref"
	VCardEncodingB      = "b"
	VCardEncodingBase64 = "base64"
	DataURIPrefix       = "data:"
	DataURIBase64Marker = ";base64,"

	// macOS AddressBook store
	AddressBookFileName  = "AddressBook-v22.abcddb"
	AddressBookLabelHead = "_$!<"
	AddressBookLabelTail = ">!$_"

	// AddressBook locations relative to the user's home directory
	AddressBookRootDir    = "Library/Application Support/AddressBook"
	AddressBookSourcesDir = "Sources"
	SQLiteDriver          = "sqlite"

	// File Extensions
	ExtVCF         = ".vcf"
	ExtVCard       = ".vcard"
	ExtAddressBook = ".abcddb"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB, photos included
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	HeaderUserAgent     = "User-Agent"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinPicker       = "win_picker_title"
	TKeyWinSettings     = "win_settings_title"
	TKeySearchPrompt    = "search_prompt"
	TKeyBtnCancel       = "btn_cancel"
	TKeyBtnRetry        = "btn_retry"
	TKeyBtnSave         = "btn_save"
	TKeyBtnSettings     = "btn_settings"
	TKeyBtnBrowse       = "btn_browse"
	TKeyLoading         = "lbl_loading"
	TKeyEmptyAll        = "empty_no_contacts"
	TKeyEmptyMatch      = "empty_no_match"
	TKeyResultCount     = "result_count" // Requires Count
	TKeyPromptTitle     = "prompt_access_title"
	TKeyPromptBody      = "prompt_access_body"
	TKeyErrAccessDenied = "err_access_denied"
	TKeyErrLoadFailed   = "err_load_failed" // Requires Reason
	TKeyStatusNotDet    = "status_not_determined"
	TKeyStatusAuth      = "status_authorized"
	TKeyStatusDenied    = "status_denied"
	TKeyLblSource       = "lbl_source"
	TKeyLblPath         = "lbl_path"
	TKeyLblURL          = "lbl_url"
	TKeyLblUser         = "lbl_user"
	TKeyLblPass         = "lbl_pass"
	TKeyLblLocale       = "lbl_locale"
	TKeyLblDebounce     = "lbl_debounce_ms"
	TKeyModeLocal       = "mode_local"
	TKeyModeWeb         = "mode_web"
	TKeyModeAddressBook = "mode_addressbook"
	TKeyPhoneUnlabeled  = "phone_unlabeled"
	TKeyColName         = "col_name"
	TKeyColPhone        = "col_phone"
	TKeyColLabel        = "col_label"
	TKeyLblAccess       = "lbl_access_status"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrAccessDenied      = "contacts access denied"
	ErrSourceUnavailable = "contact source unavailable"
	ErrLocalPathEmpty    = "configuration error: local path is empty"
	ErrWebURLEmpty       = "configuration error: web URL is empty"
	ErrModeUnsupport     = "configuration error: unsupported source mode"
	ErrDebounceRange     = "configuration error: debounce must be between 0 and 5s"
	ErrFetcherMissing    = "internal error: network fetcher is not initialized"
	ErrInvalidURL        = "invalid URL structure"
	ErrProtocol          = "unsupported protocol scheme (http/https only)"
	ErrVCardParse        = "failed to parse vCard stream"
	ErrPhotoDecode       = "failed to decode vCard photo"
	ErrDBOpen            = "failed to open AddressBook database"
	ErrDBQuery           = "AddressBook query failed"
	ErrNoAddressBook     = "no AddressBook database found"
	ErrSettingsRead      = "failed to read settings file"
	ErrSettingsParse     = "failed to parse settings file"
	ErrSettingsWrite     = "failed to write settings file"
	ErrKeyringRead       = "failed to read keyring"
	ErrKeyringWrite      = "failed to write keyring"
	ErrPromptFailed      = "access prompt failed"
	ErrLogFile           = "failed to open log file"
	ErrCacheDir          = "could not determine user cache dir"
	ErrConfigDir         = "could not determine user config dir"
	ErrCreateDir         = "could not create app directory"
	ErrAppFailed         = "application failed unexpectedly"
	ErrLocalesAccess     = "failed to access embedded locales"
	ErrLocaleLoad        = "failed to load locale file"
	ErrControllerClosed  = "search controller is closed"
	ErrRequestCreate     = "failed to create request"
	ErrNetwork           = "network error during fetch"
	ErrHTTPStatus        = "server returned unexpected status"
	ErrFileOpen          = "failed to open vCard file"
)

// -----------------------------------------------------------------------------
// Fallbacks & Messages
// -----------------------------------------------------------------------------

const (
	FallbackAccessDenied = "Contacts access denied. Please enable in Settings."
	FallbackLoadFailed   = "Failed to load contacts: %s"
	FallbackPromptTitle  = "Contacts Access"
	FallbackPromptBody   = "%s would like to access your contacts."

	MsgAppStarting     = "Starting application"
	MsgAppStop         = "Application stopped gracefully"
	MsgCtxCancel       = "Context cancelled, shutting down UI"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgFetchStarted    = "Fetching contacts"
	MsgFetchDone       = "Fetch finished"
	MsgFetchDenied     = "Fetch refused: access not granted"
	MsgFetchSuperseded = "Discarding superseded fetch result"
	MsgSkippedRecord   = "Dropping record without phone numbers"
	MsgPromptStart     = "Prompting for contacts access"
	MsgPromptJoined    = "Joined in-flight access prompt"
	MsgPromptResult    = "Access prompt resolved"
	MsgAccessRevoked   = "Contacts access revoked by provider"
	MsgAccessAbandoned = "Stopped waiting for access prompt"
	MsgDecisionReset   = "Access decision forgotten"
	MsgQueryDebounced  = "Query change debounced"
	MsgQueryDuplicate  = "Ignoring duplicate query"
	MsgStateChanged    = "Session state changed"
	MsgSettingsMissing = "Settings file not found, using defaults"
	MsgSettingsSaved   = "Settings saved"
	MsgLocaleDetected  = "Using system locale"
	MsgLocaleInvalid   = "Unparsable locale, falling back to default"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgPassFail        = "Password retrieval failed (might be empty)"
	MsgPhotoSkipped    = "Ignoring non-inline vCard photo"
	MsgPhotoInvalid    = "Ignoring undecodable vCard photo"
	MsgDownloadStart   = "Initiating vCard download"
	MsgDownloading     = "vCards downloading"
	MsgRemoteStatus    = "Server returned error status"
	MsgSourceOpened    = "Contact source opened"
	MsgSourceDone      = "Contact source enumerated"
	MsgBookDiscovered  = "AddressBook database discovered"
	MsgOpenPicker      = "Opening contact picker"
	MsgContactPicked   = "Contact selected"
	MsgOpenSettings    = "Opening settings window"
	MsgSettingsFocus   = "Settings window already open, requesting focus"
	MsgSavingSettings  = "Saving settings"
	MsgSettingsApplied = "Settings loaded with command line overrides"
	MsgWatchStart      = "Watching stdin for queries"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyMode      = "mode"
	LogKeyUser      = "user"
	LogKeyQuery     = "query"
	LogKeyLocale    = "locale"
	LogKeySeq       = "seq"
	LogKeyPhase     = "phase"
	LogKeyAuth      = "authorization"
	LogKeyTotal     = "total_records"
	LogKeyKept      = "contacts_kept"
	LogKeyMatched   = "contacts_matched"
	LogKeyDropped   = "records_dropped"
	LogKeyCount     = "count"
	LogKeyID        = "id"
	LogKeySizeBytes = "size_bytes"
	LogKeyDuration  = "duration_ms"
	LogKeyStats     = "stats"
	LogKeyLength    = "content_length"
	LogKeyPath      = "path"

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
	CompUI       = "ui"
	CompUISet    = "ui_settings"
	CompEngine   = "engine"
	CompAuth     = "auth"
	CompSession  = "session"
	CompSource   = "source"
	CompFetcher  = "fetcher"
	CompSettings = "settings"
	CompMain     = "main"
	CompCLI      = "cli"
	CompI18n     = "i18n"
)

// -----------------------------------------------------------------------------
// UI Layout Constants
// -----------------------------------------------------------------------------

const (
	PickerWinWidth      = 420
	PickerWinHeight     = 560
	SettingsWindowWidth = 520
	ThumbnailSize       = 40
	ListPlaceholder     = "Contact Name"
	PlaceholderURL      = "https://dav.example.com/contacts.vcf"
	LayoutColumnsDouble = 2
)

// LocaleChoices are offered by the settings window; any BCP 47 tag may be typed.
// The empty choice follows the system locale.
var LocaleChoices = []string{"", "en", "fr", "zh-Hans", "zh-Hant"}
