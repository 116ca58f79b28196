package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"idrecon/internal/backend"
	"idrecon/internal/domain"
	"idrecon/internal/export"
	"idrecon/internal/table"
)

// exportOptions are the flags shared by the export subcommands.
type exportOptions struct {
	file    string
	local   bool
	query   string
	filters map[string]string
	sortKey string
	desc    bool
}

func (o *exportOptions) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.file, "file", "f", "", "Output file (default: the report's workbook name, - for stdout)")
	fs.BoolVar(&o.local, "local", false, "Render the workbook locally instead of on the backend")
	fs.StringVarP(&o.query, "query", "q", "", "Keep rows containing this text")
	fs.StringToStringVar(&o.filters, "filter", nil, "Exact column filters, e.g. --filter domain='AD Москва'")
	fs.StringVar(&o.sortKey, "sort", "", "Sort by column key")
	fs.BoolVar(&o.desc, "desc", false, "Sort descending")
}

// rows applies the filters and sort to records, rejecting unknown column
// keys.
func (o *exportOptions) rows(cols table.Columns, records []map[string]string, def table.Sort) ([]table.Row, error) {
	for key := range o.filters {
		if _, ok := cols.Lookup(key); !ok {
			return nil, domain.ErrValidation("неизвестная колонка %q (доступны: %s)", key, strings.Join(cols.Keys(), ", "))
		}
	}
	s := def
	if o.sortKey != "" {
		if _, ok := cols.Lookup(o.sortKey); !ok {
			return nil, domain.ErrValidation("неизвестная колонка %q", o.sortKey)
		}
		s = table.Sort{Key: o.sortKey, Desc: o.desc}
	}
	ds := table.NewDataset(cols, records)
	return table.Apply(ds, table.Filters{Global: o.query, Columns: o.filters}, s), nil
}

// write renders req locally or on the backend and stores the workbook.
func (o *exportOptions) write(cmd *cobra.Command, client *backend.Client, req export.Request) error {
	if o.local {
		return o.save(cmd, req.Filename, len(req.Rows), func(w io.Writer) error {
			return export.RenderXLSX(w, req)
		})
	}
	dl, err := export.NewService(client).Table(cmd.Context(), req)
	if err != nil {
		return err
	}
	return o.saveDownload(cmd, dl, len(req.Rows))
}

func (o *exportOptions) saveDownload(cmd *cobra.Command, dl *backend.Download, rows int) error {
	defer dl.Body.Close() //nolint:errcheck
	return o.save(cmd, dl.Filename, rows, func(w io.Writer) error {
		_, err := io.Copy(w, dl.Body)
		return err
	})
}

func (o *exportOptions) save(cmd *cobra.Command, name string, rows int, render func(io.Writer) error) error {
	path := o.file
	if path == "" {
		path = export.Filename(name)
	}
	if path == "-" {
		return render(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	if getOutputFormat(cmd) == "json" {
		out := map[string]any{"file": path}
		if rows >= 0 {
			out["rows"] = rows
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
	if rows >= 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Сохранено: %s (%d строк)\n", path, rows)
	} else {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Сохранено: %s\n", path)
	}
	return nil
}

func newExportCmd(client *backend.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reports to Excel workbooks",
	}

	cmd.AddCommand(newExportConsolidatedCmd(client))
	cmd.AddCommand(newExportDuplicatesCmd(client))
	cmd.AddCommand(newExportSecurityCmd(client))

	return cmd
}

func newExportConsolidatedCmd(client *backend.Client) *cobra.Command {
	var (
		opts exportOptions
		full bool
	)

	cmd := &cobra.Command{
		Use:   "consolidated",
		Short: "Export the consolidated table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if full {
				if opts.local || opts.query != "" || len(opts.filters) > 0 || opts.sortKey != "" {
					return domain.ErrValidation("--full не сочетается с фильтрами и --local")
				}
				dl, err := export.NewService(client).Consolidated(cmd.Context())
				if err != nil {
					return err
				}
				return opts.saveDownload(cmd, dl, -1)
			}

			set, err := client.Consolidated(cmd.Context())
			if err != nil {
				return err
			}
			cols := table.MustColumnSet("consolidated")
			rows, err := opts.rows(cols, backend.Records(set.Rows), table.Sort{})
			if err != nil {
				return err
			}
			req, err := export.NewRequest(cols, rows, export.ConsolidatedFile, export.ConsolidatedSheet)
			if err != nil {
				return err
			}
			return opts.write(cmd, client, req)
		},
	}

	opts.bind(cmd.Flags())
	cmd.Flags().BoolVar(&full, "full", false, "Download the backend's complete consolidated workbook")

	return cmd
}

func newExportDuplicatesCmd(client *backend.Client) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Export logins present in more than one AD domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := client.Duplicates(cmd.Context())
			if err != nil {
				return err
			}
			cols := table.MustColumnSet("duplicates")
			rows, err := opts.rows(cols, backend.Records(d.Rows), table.Sort{Key: "login"})
			if err != nil {
				return err
			}
			req, err := export.NewRequest(cols, rows, export.DuplicatesFile, export.DuplicatesSheet)
			if err != nil {
				return err
			}
			return opts.write(cmd, client, req)
		},
	}

	opts.bind(cmd.Flags())

	return cmd
}

func newExportSecurityCmd(client *backend.Client) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "security <finding-id>",
		Short: "Export the accounts of one security finding",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			ids, _ := findingIDs(cmd.Context(), client)
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := client.SecurityFindings(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			var (
				finding backend.Finding
				found   bool
			)
			for _, f := range rep.Findings {
				if f.ID == id {
					finding, found = f, true
					break
				}
			}
			if !found {
				return domain.ErrNotFound("проверка %q не найдена", id)
			}

			cols := export.FindingColumns(finding)
			rows, err := opts.rows(cols, backend.Records(finding.Items), table.Sort{})
			if err != nil {
				return err
			}
			filename, sheet := export.SecurityNames(id)
			req, err := export.NewRequest(cols, rows, filename, sheet)
			if err != nil {
				return err
			}
			return opts.write(cmd, client, req)
		},
	}

	opts.bind(cmd.Flags())

	return cmd
}

func findingIDs(ctx context.Context, client *backend.Client) ([]string, error) {
	rep, err := client.SecurityFindings(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rep.Findings))
	for _, f := range rep.Findings {
		ids = append(ids, f.ID)
	}
	sort.Strings(ids)
	return ids, nil
}
