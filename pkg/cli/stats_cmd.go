package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"idrecon/internal/backend"
	"idrecon/internal/upload"
)

func newStatsCmd(client *backend.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts and the last upload of every source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, upload.StatsLine(stats))
			_, _ = fmt.Fprintln(w)
			rows := make([][]string, 0, len(upload.Sources()))
			for _, src := range upload.Sources() {
				rows = append(rows, []string{src.Key, src.Label, firstNonEmpty(upload.LastUpload(stats, src.Key), "—")})
			}
			return printTable(w, []string{"SOURCE", "LABEL", "LAST UPLOAD"}, rows)
		},
	}
}
