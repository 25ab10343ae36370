package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query...]",
		Short: "List contacts matching a name or phone number",
		Long: `Search prints the contacts whose first name, last name, full name or
phone number contains the query, case-insensitively. Without a query every
contact that has a phone number is listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			p, err := o.pipeline()
			if err != nil {
				return err
			}
			contacts, err := p.Search(cmd.Context(), query, o.settings.ResolveLocale())
			if err != nil {
				return err
			}

			renderContacts(cmd.OutOrStdout(), o.out, contacts, query, o.tr)
			return nil
		},
	}
}
