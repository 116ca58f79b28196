package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"idrecon/internal/backend"
	"idrecon/internal/middleware"
)

func newLoginCmd(client *backend.Client) *cobra.Command {
	var (
		username      string
		domainName    string
		passwordStdin bool
		noSave        bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with directory credentials and store the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" {
				return fmt.Errorf("--username is required")
			}
			password, err := readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}
			if password == "" {
				return fmt.Errorf("password is empty")
			}

			res, err := client.Login(cmd.Context(), backend.LoginRequest{
				Username: strings.TrimSpace(username),
				Password: password,
				Domain:   domainName,
			})
			if err != nil {
				return err
			}

			profile := ""
			if !noSave {
				override, _ := cmd.Root().PersistentFlags().GetString("profile")
				profile, err = updateProfile(override, func(p *Profile) {
					p.Token = res.Token
					if p.Host == "" {
						p.Host = client.BaseURL
					}
				})
				if err != nil {
					return err
				}
			}

			expires := ""
			if claims, err := middleware.NewTokenInspector("").Inspect(res.Token); err == nil && claims.ExpiresAt != nil {
				expires = claims.ExpiresAt.Local().Format("2006-01-02 15:04")
			}

			if getOutputFormat(cmd) == "json" {
				out := map[string]any{
					"user":    res.User,
					"profile": profile,
					"expires": expires,
				}
				if noSave {
					out["token"] = res.Token
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Вход выполнен: %s (%s)\n", firstNonEmpty(res.User.DisplayName, res.User.Username), res.User.Role)
			if expires != "" {
				_, _ = fmt.Fprintf(w, "Токен действителен до %s\n", expires)
			}
			if noSave {
				_, _ = fmt.Fprintln(w, res.Token)
			} else {
				_, _ = fmt.Fprintf(w, "Токен сохранён в профиль %q\n", profile)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Directory username")
	cmd.Flags().StringVar(&domainName, "domain", "", "Directory domain")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Print the token instead of saving it")

	return cmd
}

// readPassword prompts without echo on a terminal and otherwise reads the
// first line of stdin.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Пароль: ")
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
