package cli

import (
	"bufio"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"idrecon/internal/backend"
	"idrecon/internal/upload"
)

// clearConcurrency caps parallel clear requests.
const clearConcurrency = 3

func newClearCmd(client *backend.Client) *cobra.Command {
	var (
		all bool
		yes bool
	)

	cmd := &cobra.Command{
		Use:   "clear [source...]",
		Short: "Delete the data of one or more sources, or of all with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return fmt.Errorf("name at least one source or pass --all")
			}
			for _, key := range args {
				if _, err := upload.Lookup(key); err != nil {
					return err
				}
			}
			svc := upload.NewService(client, commandLogger(cmd))
			in := bufio.NewReader(cmd.InOrStdin())

			if all {
				ok := yes || confirm(cmd, in, upload.ConfirmPrompt(""))
				res, err := svc.ClearAll(cmd.Context(), ok)
				if err != nil {
					return err
				}
				if getOutputFormat(cmd) == "json" {
					return printJSON(cmd.OutOrStdout(), res)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), upload.ClearAllStatus(res).Text)
				return nil
			}

			confirmed := make(map[string]bool, len(args))
			approved := false
			for _, key := range args {
				confirmed[key] = yes || confirm(cmd, in, upload.ConfirmPrompt(key))
				approved = approved || confirmed[key]
			}
			if !approved {
				return upload.ErrNotConfirmed
			}

			var (
				mu      sync.Mutex
				results = make(map[string]upload.Status, len(args))
				deleted = make(map[string]int, len(args))
			)
			var g errgroup.Group
			ctx := cmd.Context()
			g.SetLimit(clearConcurrency)
			for _, key := range args {
				if !confirmed[key] {
					mu.Lock()
					results[key] = upload.ErrorStatus(upload.ErrNotConfirmed)
					mu.Unlock()
					continue
				}
				g.Go(func() error {
					res, err := svc.Clear(ctx, key, true)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						results[key] = upload.ErrorStatus(err)
						return err
					}
					results[key] = upload.ClearStatus(res)
					deleted[key] = int(res.Deleted)
					return nil
				})
			}
			err := g.Wait()

			if getOutputFormat(cmd) == "json" {
				if jerr := printJSON(cmd.OutOrStdout(), map[string]any{"deleted": deleted}); jerr != nil {
					return jerr
				}
				return err
			}
			for _, key := range args {
				src, _ := upload.Lookup(key)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", src.Label, results[key].Text)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear every source")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// confirm asks prompt and accepts y, yes, д and да.
func confirm(cmd *cobra.Command, in *bufio.Reader, prompt string) bool {
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", prompt)
	line, _ := in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "д", "да":
		return true
	default:
		return false
	}
}
