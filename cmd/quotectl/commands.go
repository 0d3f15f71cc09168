package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/classquotes/internal/domain"
)

func newListCmd(c *cli) *cobra.Command {
	var search, role, window string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			roleFilter, err := domain.ParseRoleFilter(role)
			if err != nil {
				return err
			}

			timeFilter, err := domain.ParseTimeFilter(window)
			if err != nil {
				return err
			}

			quotes, err := c.catalog.Visible(cmd.Context(), domain.Filters{
				Search: search,
				Role:   roleFilter,
				Time:   timeFilter,
			})
			if err != nil {
				return err
			}

			return c.print(cmd.OutOrStdout(), quotes)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text to find in name or text")
	cmd.Flags().StringVar(&role, "role", "All", "All, Teacher or Student")
	cmd.Flags().StringVar(&window, "time", "All", `All, "7 Days", Month or Year`)

	return cmd
}

// quoteFlags are shared by add and edit.
type quoteFlags struct {
	name, text, role, at string
}

func (f *quoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "who said it")
	cmd.Flags().StringVar(&f.text, "text", "", "what was said")
	cmd.Flags().StringVar(&f.role, "type", "", "Teacher, Student or None")
	cmd.Flags().StringVar(&f.at, "at", "", "when it was said: RFC 3339, YYYY-MM-DD or epoch milliseconds")
}

func newAddCmd(c *cli) *cobra.Command {
	var f quoteFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := domain.CreateInput{Name: &f.name, Text: &f.text}
			if cmd.Flags().Changed("type") {
				in.Type = &f.role
			}
			if cmd.Flags().Changed("at") {
				ts, err := parseAt(f.at)
				if err != nil {
					return err
				}
				in.Timestamp = &ts
			}

			q, err := c.catalog.Create(cmd.Context(), in)
			if err != nil {
				return err
			}

			return c.print(cmd.OutOrStdout(), []domain.Quote{*q})
		},
	}

	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func newEditCmd(c *cli) *cobra.Command {
	var f quoteFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change some fields of a quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in domain.PatchInput

			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = &f.name
			}
			if flags.Changed("text") {
				in.Text = &f.text
			}
			if flags.Changed("type") {
				in.Type = &f.role
			}
			if flags.Changed("at") {
				ts, err := parseAt(f.at)
				if err != nil {
					return err
				}
				in.Timestamp = &ts
			}

			q, err := c.catalog.Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}

			return c.print(cmd.OutOrStdout(), []domain.Quote{*q})
		},
	}

	f.register(cmd)

	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a quote",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.catalog.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])

			return nil
		},
	}
}

func newSyncCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replace the local snapshot with the board held by the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			quotes, err := c.catalog.Sync(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "synced %d quotes to %s\n", len(quotes), c.cfg.Client.CachePath)

			return nil
		},
	}
}

func (c *cli) print(w io.Writer, quotes []domain.Quote) error {
	if c.opts.json {
		if quotes == nil {
			quotes = []domain.Quote{}
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(quotes)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tTYPE\tNAME\tTEXT")
	for _, q := range quotes {
		when := time.UnixMilli(q.Timestamp).Format("2006-01-02 15:04")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", q.ID, when, q.Type, q.Name, oneLine(q.Text))
	}

	return tw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseAt accepts epoch milliseconds, RFC 3339 or a local calendar date.
func parseAt(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), nil
	}

	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t.UnixMilli(), nil
	}

	return 0, fmt.Errorf("--at %q: want epoch milliseconds, RFC 3339 or YYYY-MM-DD", s)
}
