package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"idrecon/internal/backend"
	"idrecon/internal/upload"
)

func newUploadCmd(client *backend.Client) *cobra.Command {
	var (
		preview int
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "upload <source> <file>",
		Short: "Upload a source file (ad/izhevsk, ad/kostroma, ad/moscow, mfa, people)",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return sourceKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return []string{"csv", "xlsx", "xls"}, cobra.ShellCompDirectiveFilterFileExt
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := upload.Lookup(args[0])
			if err != nil {
				return err
			}
			path := args[1]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			filename := filepath.Base(path)

			if preview > 0 || dryRun {
				p, err := upload.ReadPreview(filename, data, preview)
				if err != nil {
					return err
				}
				if err := printPreview(cmd, src, p); err != nil {
					return err
				}
				if dryRun {
					return nil
				}
			}

			svc := upload.NewService(client, commandLogger(cmd))
			res, err := svc.Upload(cmd.Context(), src.Key, filename, bytes.NewReader(data))
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"source":   src.Key,
					"filename": res.Filename,
					"rows":     res.Rows,
					"skipped":  res.Skipped,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", src.Label, upload.UploadStatus(res).Text)
			return nil
		},
	}

	cmd.Flags().IntVar(&preview, "preview", 0, "Print the first N rows before uploading")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and preview the file without uploading")

	return cmd
}

func printPreview(cmd *cobra.Command, src upload.Source, p *upload.Preview) error {
	if getOutputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"source": src.Key,
			"sheet":  p.Sheet,
			"header": p.Header,
			"rows":   p.Rows,
			"total":  p.Total,
		})
	}
	w := cmd.OutOrStdout()
	if err := printTable(w, p.Header, p.Rows); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Строк в файле: %d, показано: %d\n", p.Total, len(p.Rows))
	return nil
}

func sourceKeys() []string {
	var keys []string
	for _, s := range upload.Sources() {
		keys = append(keys, s.Key)
	}
	return keys
}
