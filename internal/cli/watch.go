package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/engine"
	"github.com/tartampluch/go-contacts/internal/session"
)

func newWatchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run a search session fed by stdin, one query per line",
		Long: `Watch behaves like the picker's search box. Each line read from stdin
replaces the query; edits closer together than the configured debounce are
coalesced and an unchanged query is not searched again. Every settled result
is printed. The session ends at end of input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := o.pipeline()
			if err != nil {
				return err
			}

			ctrl := session.NewController(o.gate, p, session.Options{
				Locale:   o.settings.ResolveLocale(),
				Debounce: o.settings.Debounce,
				Messages: o.tr.ErrorMessage,
			})
			defer ctrl.Close()

			out := cmd.OutOrStdout()
			printer := &statePrinter{out: out, o: o}
			ctrl.AddListener(func() { printer.print(ctrl.State()) })

			ctx := cmd.Context()
			if !ctrl.RequestAccess(ctx) {
				return engine.ErrAccessDenied
			}

			slog.Debug(config.MsgWatchStart, config.LogKeyComponent, config.CompCLI)
			lines, readErr := readLines(ctx, o.in)
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case q := <-lines:
					ctrl.SetQuery(q)
				case err := <-readErr:
					if !errors.Is(err, io.EOF) {
						return err
					}
					ctrl.Flush(ctx)
					return ctx.Err()
				}
			}
		},
	}
}

// statePrinter writes each fetch outcome once.
type statePrinter struct {
	out io.Writer
	o   *options

	mu   sync.Mutex
	last uint64
}

func (p *statePrinter) print(st session.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if st.Outcomes <= p.last {
		return
	}
	p.last = st.Outcomes

	fmt.Fprintln(p.out, p.o.out.query.Render(strconv.Quote(st.ResultsQuery)))
	if st.Error != "" {
		fmt.Fprintln(p.out, p.o.out.failure.Render(st.Error))
		return
	}
	renderContacts(p.out, p.o.out, st.Results, st.ResultsQuery, p.o.tr)
}

// readLines delivers each line of r without its line terminator. The error
// channel receives io.EOF at end of input.
func readLines(ctx context.Context, r *bufio.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	failed := make(chan error, config.ChannelBufferSize)
	go func() {
		for {
			line, err := r.ReadString('\n')
			if line != "" {
				select {
				case lines <- trimNewline(line):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				failed <- err
				return
			}
		}
	}()
	return lines, failed
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
