package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/contact"
	"github.com/tartampluch/go-contacts/internal/i18n"
)

// styles are bound to the renderer of the writer they print to, so colors
// are dropped when that writer is not a terminal.
type styles struct {
	header  lipgloss.Style
	name    lipgloss.Style
	phone   lipgloss.Style
	label   lipgloss.Style
	border  lipgloss.Style
	count   lipgloss.Style
	query   lipgloss.Style
	failure lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1),
		name: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1),
		phone: r.NewStyle().
			Foreground(lipgloss.Color("42")).
			Padding(0, 1),
		label: r.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true).
			Padding(0, 1),
		border: r.NewStyle().
			Foreground(lipgloss.Color("240")),
		count: r.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true),
		query: r.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true),
		failure: r.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}
}

// Column indexes of the contact table.
const (
	colName = iota
	colPhone
	colLabel
)

// renderContacts writes one table row per phone number, the name on the
// first row of each contact, followed by a summary line.
func renderContacts(w io.Writer, st styles, contacts []contact.Contact, query string, tr *i18n.Translator) {
	if len(contacts) > 0 {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(st.border).
			Headers(tr.Msg(config.TKeyColName), tr.Msg(config.TKeyColPhone), tr.Msg(config.TKeyColLabel)).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return st.header
				}
				switch col {
				case colName:
					return st.name
				case colPhone:
					return st.phone
				}
				return st.label
			})

		for _, c := range contacts {
			for i, p := range c.PhoneNumbers {
				name := ""
				if i == 0 {
					name = c.DisplayName()
				}
				label := p.Label
				if label == "" {
					label = tr.Msg(config.TKeyPhoneUnlabeled)
				}
				t.Row(name, p.Number, label)
			}
		}
		fmt.Fprintln(w, t.Render())
	}
	fmt.Fprintln(w, st.count.Render(summary(len(contacts), query, tr)))
}

// summary mirrors the picker's status line.
func summary(count int, query string, tr *i18n.Translator) string {
	if count > 0 {
		return tr.Plural(config.TKeyResultCount, count)
	}
	if strings.TrimSpace(query) == "" {
		return tr.Msg(config.TKeyEmptyAll)
	}
	return tr.Msg(config.TKeyEmptyMatch)
}
