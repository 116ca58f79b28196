package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"idrecon/internal/backend"
	"idrecon/internal/card"
	"idrecon/internal/finder"
)

func newUsersCmd(client *backend.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Search identities and show user cards",
	}

	cmd.AddCommand(newUsersFindCmd(client))
	cmd.AddCommand(newUsersCardCmd(client))
	cmd.AddCommand(newUsersResolveCmd(client))

	return cmd
}

func newUsersFindCmd(client *backend.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "find [query]",
		Short: "Find users by name, StaffUUID or login",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := client.UserList(cmd.Context())
			if err != nil {
				return err
			}
			q := ""
			if len(args) == 1 {
				q = args[0]
			}
			res := finder.Find(list.Users, q)

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"users":   res.Users,
					"matched": res.Matched,
					"total":   res.Total,
					"fuzzy":   res.Fuzzy,
				})
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, res.Summary())
			if len(res.Users) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(res.Users))
			for _, u := range res.Users {
				state := ""
				if u.AllDisabled {
					state = "отключён"
				}
				rows = append(rows, []string{u.Key, u.FIO, strings.Join(u.Logins, ", "), strings.Join(u.Sources, ", "), state})
			}
			return printTable(w, []string{"KEY", "ФИО", "ЛОГИНЫ", "ИСТОЧНИКИ", ""}, rows)
		},
	}
}

func newUsersCardCmd(client *backend.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "card <key>",
		Short: "Show everything known about one identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if getOutputFormat(cmd) == "json" {
				doc, err := client.UserCard(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), doc)
			}
			c, err := card.Load(cmd.Context(), client, args[0], args[0])
			if err != nil {
				return err
			}
			printCard(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func newUsersResolveCmd(client *backend.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <dn>",
		Short: "Map a distinguished name to a known identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := card.Resolve(cmd.Context(), client, args[0], "")
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"found":        res.Raw == nil,
					"key":          res.Key,
					"display_name": res.DisplayName,
				})
			}
			w := cmd.OutOrStdout()
			if res.Raw == nil {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", res.Key, res.DisplayName)
				return nil
			}
			_, _ = fmt.Fprintln(w, res.Raw.Title)
			printFields(w, res.Raw.Fields)
			_, _ = fmt.Fprintln(w, res.Raw.Note)
			return nil
		},
	}
}

func printCard(w io.Writer, c card.Card) {
	_, _ = fmt.Fprintln(w, c.Title)
	if c.StaffUUID != "" {
		_, _ = fmt.Fprintf(w, "StaffUUID: %s\n", c.StaffUUID)
	}
	if len(c.Logins) > 0 {
		_, _ = fmt.Fprintf(w, "Логины: %s\n", strings.Join(c.Logins, ", "))
	}
	for _, it := range c.Summary {
		_, _ = fmt.Fprintf(w, "%s: %s\n", it.Label, it.Value)
	}
	if c.People != nil && !c.People.Empty() {
		printSection(w, "", *c.People)
	}
	for _, a := range c.AD {
		title := a.Title
		if a.Inactive {
			title += " (отключена)"
		}
		_, _ = fmt.Fprintf(w, "\n== %s ==\n", title)
		for _, s := range a.Sections {
			printSection(w, "  ", s)
		}
	}
	for _, m := range c.MFA {
		printSection(w, "", card.Section{Title: "MFA " + m.Title, Fields: m.Fields})
	}
	if len(c.Duplicates) > 0 {
		_, _ = fmt.Fprintln(w, "\n== Возможные дубли ==")
		for _, d := range c.Duplicates {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\n", d.Key, d.FIO, d.Reason)
		}
	}
}

func printSection(w io.Writer, indent string, s card.Section) {
	_, _ = fmt.Fprintf(w, "\n%s== %s ==\n", indent, s.Title)
	for _, f := range s.Fields {
		_, _ = fmt.Fprintf(w, "%s  %s: %s\n", indent, f.Label, fieldText(f))
	}
}

func printFields(w io.Writer, fields []card.Field) {
	for _, f := range fields {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", f.Label, fieldText(f))
	}
}

func fieldText(f card.Field) string {
	if len(f.Links) == 0 {
		return f.Text
	}
	parts := make([]string, 0, len(f.Links))
	for _, l := range f.Links {
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, "; ")
}
