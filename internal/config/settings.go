package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeandeaual/go-locale"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

const defaultSettingsYAML = `# go-contacts settings
# Collation locale. Leave empty to follow the system locale (e.g. "en", "zh-Hans").
locale: ""

# Delay before a search box change triggers a fetch.
debounce: 300ms

source:
  # local: a .vcf file, web: a vCard/CardDAV export URL, addressbook: macOS Contacts database
  mode: local
  path: ""
  url: ""
  user: ""
`

// SourceSettings selects and locates the contact store.
type SourceSettings struct {
	Mode string `yaml:"mode"`
	Path string `yaml:"path,omitempty"`
	URL  string `yaml:"url,omitempty"`
	User string `yaml:"user,omitempty"`
}

// Settings models config.yaml. Secrets never live here; see Password.
type Settings struct {
	Locale   string         `yaml:"locale"`
	Debounce time.Duration  `yaml:"debounce"`
	Source   SourceSettings `yaml:"source"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	var s Settings
	// The embedded document is static and known to parse.
	_ = yaml.Unmarshal([]byte(defaultSettingsYAML), &s)
	return s
}

// DefaultSettingsPath returns <user config dir>/<AppID>/config.yaml.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, AppID, ConfigFileName), nil
}

// Load reads the settings file at path. A missing file yields DefaultSettings.
func Load(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug(MsgSettingsMissing,
			LogKeyComponent, CompSettings,
			LogKeyFile, path)
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("%s: %w", ErrSettingsRead, err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("%s: %w", ErrSettingsParse, err)
	}
	if s.Source.Mode == "" {
		s.Source.Mode = SourceModeLocal
	}
	return s, nil
}

// Save writes s to path, creating the parent directory with user-only permissions.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrCreateDir, err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.WriteFile(path, data, FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	slog.Info(MsgSettingsSaved, LogKeyComponent, CompSettings, LogKeyFile, path)
	return nil
}

// Validate checks that the selected source mode has what it needs.
// The addressbook mode may leave Path empty; the store is then discovered.
func (s Settings) Validate() error {
	if s.Debounce < MinDebounce || s.Debounce > MaxDebounce {
		return errors.New(ErrDebounceRange)
	}

	switch s.Source.Mode {
	case SourceModeLocal:
		if strings.TrimSpace(s.Source.Path) == "" {
			return errors.New(ErrLocalPathEmpty)
		}
	case SourceModeWeb:
		if strings.TrimSpace(s.Source.URL) == "" {
			return errors.New(ErrWebURLEmpty)
		}
	case SourceModeAddressBook:
	default:
		return fmt.Errorf("%s: %q", ErrModeUnsupport, s.Source.Mode)
	}
	return nil
}

// ResolveLocale returns the configured locale, else the system locale, else DefaultLocale.
func (s Settings) ResolveLocale() string {
	if l := strings.TrimSpace(s.Locale); l != "" {
		return l
	}
	if l, err := locale.GetLocale(); err == nil && l != "" {
		slog.Debug(MsgLocaleDetected,
			LogKeyComponent, CompSettings,
			LogKeyLocale, l)
		return l
	}
	return DefaultLocale
}

// Password loads the remote source password for the configured user from the keyring.
// An empty user or a missing entry yields an empty password.
func (s Settings) Password() string {
	if s.Source.User == "" {
		return ""
	}
	p, err := keyring.Get(KeyringService, s.Source.User)
	if err != nil {
		slog.Debug(MsgPassFail,
			LogKeyUser, s.Source.User,
			LogKeyError, err,
			LogKeyComponent, CompSettings)
		return ""
	}
	return p
}

// StorePassword saves the remote source password for user in the keyring.
func StorePassword(user, password string) error {
	if err := keyring.Set(KeyringService, user, password); err != nil {
		return fmt.Errorf("%s: %w", ErrKeyringWrite, err)
	}
	return nil
}
