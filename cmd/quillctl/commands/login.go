package commands

import (
	"fmt"
	"net/url"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	"github.com/quillfs/quillfs/internal/cli/credentials"
	"github.com/quillfs/quillfs/internal/cli/prompt"
	"github.com/quillfs/quillfs/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	loginServer   string
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the admin API",
	Long: `Authenticate against the name server's admin API and save the
access token in the current context. The credentials are the same users
file entries the wire protocol authenticates against.

The --server URL is required the first time; afterwards the saved
context supplies it.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "Admin API URL (required on first login)")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")
}

// resolveServerURL picks the --server flag or falls back to the saved
// context, normalizing a missing scheme to http.
func resolveServerURL(store *credentials.Store) (string, error) {
	raw := loginServer
	if raw == "" {
		ctx, err := store.GetCurrentContext()
		if err != nil || ctx == nil || ctx.ServerURL == "" {
			return "", fmt.Errorf("no server URL specified and no saved context found\n\n" +
				"Specify the name server's admin API URL:\n" +
				"  quillctl login --server http://localhost:9090")
		}
		raw = ctx.ServerURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "http"
		raw = u.String()
	}
	return raw, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	serverURL, err := resolveServerURL(store)
	if err != nil {
		return err
	}

	username := loginUsername
	if username == "" {
		if username, err = prompt.InputRequired("Username"); err != nil {
			return cmdutil.HandleAbort(err)
		}
	}
	password := loginPassword
	if password == "" {
		if password, err = prompt.Password("Password"); err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	fmt.Printf("Logging in to %s as %s...\n", serverURL, username)
	token, err := apiclient.New(serverURL).Login(username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	name := store.GetCurrentContextName()
	if name == "" {
		name = "default"
	}
	ctx := &credentials.Context{
		ServerURL:   serverURL,
		Username:    username,
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	}
	if err := store.SetContext(name, ctx); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	if err := store.UseContext(name); err != nil {
		return fmt.Errorf("failed to set current context: %w", err)
	}

	fmt.Printf("Logged in successfully as %s\n", username)
	fmt.Printf("Context: %s\n", name)
	fmt.Printf("Credentials saved to: %s\n", store.ConfigPath())
	return nil
}
