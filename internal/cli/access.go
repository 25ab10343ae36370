package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-contacts/internal/auth"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/engine"
)

func newAccessCmd(o *options) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "access",
		Short: "Request contacts access, prompting if no decision was made yet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reset {
				if err := o.provider.Reset(); err != nil {
					return err
				}
				o.gate.Reset()
			}

			st := o.gate.EnsureAccess(cmd.Context())
			printStatus(cmd, o, st)
			if st != auth.StatusAuthorized {
				return engine.ErrAccessDenied
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, config.FlagReset, false, config.FlagDescReset)
	return cmd
}

func newStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the contacts access decision and the configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printStatus(cmd, o, o.gate.CheckStatus())

			s := o.settings
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, config.MsgStatusLine, o.tr.Msg(config.TKeyLblSource), s.Source.Mode)
			switch s.Source.Mode {
			case config.SourceModeWeb:
				fmt.Fprintf(out, config.MsgStatusLine, o.tr.Msg(config.TKeyLblURL), s.Source.URL)
				if s.Source.User != "" {
					fmt.Fprintf(out, config.MsgStatusLine, o.tr.Msg(config.TKeyLblUser), s.Source.User)
				}
			default:
				fmt.Fprintf(out, config.MsgStatusLine, o.tr.Msg(config.TKeyLblPath), s.Source.Path)
			}
			fmt.Fprintf(out, config.MsgStatusLine, o.tr.Msg(config.TKeyLblLocale), s.ResolveLocale())
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, o *options, st auth.Status) {
	label := o.tr.StatusLabel(st)
	if st == auth.StatusAuthorized {
		label = o.out.count.Render(label)
	} else {
		label = o.out.failure.Render(label)
	}
	fmt.Fprintf(cmd.OutOrStdout(), config.MsgStatusLine, o.tr.Msg(config.TKeyLblAccess), label)
}
