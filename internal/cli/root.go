// Package cli implements contactctl, the terminal front end of the contact picker.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-contacts/internal/auth"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/engine"
	"github.com/tartampluch/go-contacts/internal/i18n"
	"github.com/tartampluch/go-contacts/internal/source"
)

// options carries the persistent flags and what PersistentPreRunE derives from them.
type options struct {
	configPath string
	debug      bool
	source     string
	path       string
	url        string
	user       string
	locale     string
	yes        bool

	in       *bufio.Reader
	out      styles
	settings config.Settings
	tr       *i18n.Translator
	provider *auth.KeyringProvider
	gate     *auth.Gate
}

// Execute runs contactctl with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o := &options{in: bufio.NewReader(stdin), out: newStyles(stdout)}
	root := newRootCmd(o)
	root.SetArgs(args)
	root.SetIn(o.in)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, config.MsgCLIError, newStyles(stderr).failure.Render(o.describe(err)))
		return config.ExitCodeError
	}
	return config.ExitCodeSuccess
}

func newRootCmd(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:   config.CLIName,
		Short: "Search and pick contacts from a vCard file, a CardDAV export or macOS Contacts",
		Long: `contactctl reads the contact source configured for Go Contacts and lets you
search it from the terminal. Contacts are filtered by name or phone number
and sorted the way the picker sorts them (pinyin initials for Chinese locales).

Quick Start:
  contactctl access --yes               # Grant contacts access
  contactctl search 138                 # Contacts whose name or number contains "138"
  contactctl --source local --path book.vcf search Alice`,
		Version:           config.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: o.prepare,
	}
	root.SetVersionTemplate(fmt.Sprintf(config.MsgVersionOutput, config.CLIName, config.Version, runtime.GOOS, runtime.GOARCH))

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, config.FlagConfig, "", config.FlagDescConfig)
	pf.BoolVar(&o.debug, config.FlagDebug, false, config.FlagDescDebug)
	pf.StringVar(&o.source, config.FlagSource, "", config.FlagDescSource)
	pf.StringVar(&o.path, config.FlagPath, "", config.FlagDescPath)
	pf.StringVar(&o.url, config.FlagURL, "", config.FlagDescURL)
	pf.StringVar(&o.user, config.FlagUser, "", config.FlagDescUser)
	pf.StringVar(&o.locale, config.FlagLocale, "", config.FlagDescLocale)
	pf.BoolVarP(&o.yes, config.FlagYes, "y", false, config.FlagDescYes)

	root.AddCommand(
		newSearchCmd(o),
		newAccessCmd(o),
		newStatusCmd(o),
		newWatchCmd(o),
	)
	return root
}

// prepare configures logging, loads the settings file, applies flag
// overrides and builds the access gate.
func (o *options) prepare(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd.ErrOrStderr(), o.debug)

	path := o.configPath
	if path == "" {
		p, err := config.DefaultSettingsPath()
		if err != nil {
			return err
		}
		path = p
	}

	s, err := config.Load(path)
	if err != nil {
		return err
	}
	o.settings = o.applyOverrides(s, cmd.Flags().Changed)
	o.tr = i18n.New(o.settings.ResolveLocale())

	var prompter auth.Prompter = auth.ReaderPrompter{
		In:       o.in,
		Out:      cmd.ErrOrStderr(),
		Question: fmt.Sprintf(config.FallbackPromptBody, config.AppName),
	}
	if o.yes {
		prompter = auth.AutoPrompter(true)
	}
	o.provider = auth.NewKeyringProvider(prompter)
	o.gate = auth.NewGate(o.provider)

	slog.Debug(config.MsgSettingsApplied,
		config.LogKeyComponent, config.CompCLI,
		config.LogKeyFile, path,
		config.LogKeyMode, o.settings.Source.Mode,
		config.LogKeyLocale, o.settings.Locale)
	return nil
}

// applyOverrides copies every flag the user set onto s.
func (o *options) applyOverrides(s config.Settings, changed func(name string) bool) config.Settings {
	if changed(config.FlagSource) {
		s.Source.Mode = strings.TrimSpace(o.source)
	}
	if changed(config.FlagPath) {
		s.Source.Path = strings.TrimSpace(o.path)
	}
	if changed(config.FlagURL) {
		s.Source.URL = strings.TrimSpace(o.url)
	}
	if changed(config.FlagUser) {
		s.Source.User = strings.TrimSpace(o.user)
	}
	if changed(config.FlagLocale) {
		s.Locale = strings.TrimSpace(o.locale)
	}
	return s
}

// pipeline opens the configured source behind the access gate.
func (o *options) pipeline() (*engine.Pipeline, error) {
	src, err := source.New(o.settings, o.settings.Password())
	if err != nil {
		return nil, err
	}
	return &engine.Pipeline{
		Gate:          o.gate,
		Source:        src,
		DefaultLocale: o.settings.ResolveLocale(),
	}, nil
}

// describe renders err for the terminal, localized when it is a retrieval failure.
func (o *options) describe(err error) string {
	if o.tr != nil && (errors.Is(err, engine.ErrAccessDenied) || errors.Is(err, engine.ErrSourceUnavailable)) {
		return o.tr.ErrorMessage(err)
	}
	return err.Error()
}

// setupLogging sends JSON logs to w. Only warnings and errors are shown unless debug is set.
func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})))
}
