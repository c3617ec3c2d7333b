// Package cmdutil provides shared utilities for quillctl commands.
package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/quillfs/quillfs/internal/cli/credentials"
	"github.com/quillfs/quillfs/internal/cli/output"
	"github.com/quillfs/quillfs/internal/cli/prompt"
	"github.com/quillfs/quillfs/pkg/apiclient"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	// NameServer is the host:port of the name server's TCP endpoint, used
	// by the wire commands (shell, send).
	NameServer string

	// ServerURL and Token configure the admin API commands.
	ServerURL string
	Token     string

	Output  string
	NoColor bool
	Verbose bool
}

// GetAuthenticatedClient returns an admin API client configured from the
// current context. Explicit --server/--token flags win over stored
// credentials.
//
// Admin tokens are single access tokens with no refresh flow: an expired
// token means logging in again.
func GetAuthenticatedClient() (*apiclient.Client, error) {
	if Flags.ServerURL != "" && Flags.Token != "" {
		return apiclient.New(Flags.ServerURL).WithToken(Flags.Token), nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	ctx, err := store.GetCurrentContext()
	if err != nil {
		return nil, fmt.Errorf("not logged in. Run 'quillctl login' first")
	}

	url := ctx.ServerURL
	if Flags.ServerURL != "" {
		url = Flags.ServerURL
	}
	if url == "" {
		return nil, fmt.Errorf("no server URL configured. Run 'quillctl login --server <url>' first")
	}

	tok := ctx.AccessToken
	if Flags.Token != "" {
		tok = Flags.Token
	}
	if tok == "" {
		return nil, fmt.Errorf("no access token. Run 'quillctl login' first")
	}

	// An explicit --token is the caller's problem; a stored one we can
	// check before the server rejects it.
	if Flags.Token == "" && ctx.IsExpired() {
		return nil, fmt.Errorf("session expired. Run 'quillctl login' to re-authenticate")
	}

	return apiclient.New(url).WithToken(tok), nil
}

// GetOutputFormatParsed parses the --output flag value.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintOutput renders data in the format selected by --output. In table
// mode an empty result prints emptyMsg instead of a bare header row.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, table output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, table)
	}
}

// PrintSuccess prints a success message, but only in table mode so that
// json/yaml output stays machine-parseable.
func PrintSuccess(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	output.NewPrinter(os.Stdout, format, !Flags.NoColor).Success(msg)
}

// RunDeleteWithConfirmation runs a delete operation behind a confirmation
// prompt, honoring --force.
func RunDeleteWithConfirmation(resourceType, name string, force bool, deleteFn func() error) error {
	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete %s '%s'?", resourceType, name), force)
	if err != nil {
		return HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	if err := deleteFn(); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("%s '%s' deleted successfully", resourceType, name))
	return nil
}

// BoolToYesNo renders a boolean as "yes" or "no" for table cells.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns value, or fallback when value is empty. Table columns
// use it to show "-" for unset fields.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// HandleAbort maps a Ctrl+C abort from a prompt to a friendly message and
// a nil error; any other error passes through.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}
