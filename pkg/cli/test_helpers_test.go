package cli

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"idrecon/internal/testutil"
)

// fakeBackend serves canned JSON per path and records every request.
func fakeBackend(t *testing.T, routes map[string]string) *testutil.Backend {
	t.Helper()
	be := testutil.NewBackend(t)
	for pattern, body := range routes {
		be.JSON(pattern, http.StatusOK, body)
	}
	return be
}

// isolateHome points HOME at a fresh directory so no real config is read
// or written. It returns the directory.
func isolateHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, k := range []string{"IDRECON_HOST", "IDRECON_TOKEN", "IDRECON_OUTPUT"} {
		t.Setenv(k, "")
	}
	return dir
}

// runCLI executes a fresh root command with args and stdin and returns what
// it printed to stdout. Call isolateHome first.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	rootCmd := newRootCmd()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}
