package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"idrecon/internal/backend"
	"idrecon/internal/domain"
	"idrecon/internal/export"
	"idrecon/internal/table"
)

func newSecurityCmd(client *backend.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "security",
		Short: "Show AD security findings",
	}

	cmd.AddCommand(newSecuritySummaryCmd(client))
	cmd.AddCommand(newSecurityItemsCmd(client))

	return cmd
}

func newSecuritySummaryCmd(client *backend.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "List every check with its severity and count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := client.SecurityFindings(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				type finding struct {
					ID       string `json:"id"`
					Title    string `json:"title"`
					Severity string `json:"severity"`
					Count    int    `json:"count"`
				}
				out := make([]finding, 0, len(rep.Findings))
				for _, f := range rep.Findings {
					out = append(out, finding{f.ID, f.Title, f.Severity, int(f.Count)})
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"total_accounts": rep.TotalAccounts,
					"total_enabled":  rep.TotalEnabled,
					"total_issues":   rep.TotalIssues,
					"critical_count": rep.CriticalCount,
					"high_count":     rep.HighCount,
					"findings":       out,
				})
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Учётных записей: %d · Активных: %d · Замечаний: %d · Критичных: %d · Высоких: %d\n\n",
				rep.TotalAccounts, rep.TotalEnabled, rep.TotalIssues, rep.CriticalCount, rep.HighCount)
			rows := make([][]string, 0, len(rep.Findings))
			for _, f := range rep.Findings {
				rows = append(rows, []string{f.ID, f.Severity, strconv.Itoa(int(f.Count)), f.Title})
			}
			return printTable(w, []string{"ID", "SEVERITY", "COUNT", "TITLE"}, rows)
		},
	}
}

func newSecurityItemsCmd(client *backend.Client) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "items <finding-id>",
		Short: "List the accounts of one finding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := client.SecurityFindings(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range rep.Findings {
				if f.ID != args[0] {
					continue
				}
				if getOutputFormat(cmd) == "json" {
					return printJSON(cmd.OutOrStdout(), f)
				}
				cols := export.FindingColumns(f)
				rows := table.NewDataset(cols, backend.Records(f.Items)).Rows
				if limit > 0 && len(rows) > limit {
					rows = rows[:limit]
				}
				header := make([]string, len(cols))
				for i, c := range cols {
					header[i] = c.Label
				}
				cells := make([][]string, len(rows))
				for i, r := range rows {
					cells[i] = r.Project(cols)
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "%s [%s]: %d\n", f.Title, f.Severity, f.Count)
				if f.Description != "" {
					_, _ = fmt.Fprintln(w, f.Description)
				}
				_, _ = fmt.Fprintln(w)
				return printTable(w, header, cells)
			}
			return domain.ErrNotFound("проверка %q не найдена", args[0])
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most N accounts")

	return cmd
}
