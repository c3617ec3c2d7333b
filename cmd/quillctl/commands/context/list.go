package context

import (
	"fmt"
	"os"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	"github.com/quillfs/quillfs/internal/cli/credentials"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured contexts",
	Long:  "List saved contexts; the active one is marked with an asterisk.",
	RunE:  runContextList,
}

// ContextInfo is one context as rendered by list and current.
type ContextInfo struct {
	Name      string `json:"name" yaml:"name"`
	Current   bool   `json:"current" yaml:"current"`
	ServerURL string `json:"server_url" yaml:"server_url"`
	Username  string `json:"username,omitempty" yaml:"username,omitempty"`
	LoggedIn  bool   `json:"logged_in" yaml:"logged_in"`
}

// ContextList renders contexts as a table.
type ContextList []ContextInfo

func (cl ContextList) Headers() []string {
	return []string{"", "NAME", "SERVER", "USER", "LOGGED IN"}
}

func (cl ContextList) Rows() [][]string {
	rows := make([][]string, 0, len(cl))
	for _, c := range cl {
		marker := ""
		if c.Current {
			marker = "*"
		}
		rows = append(rows, []string{marker, c.Name, c.ServerURL, c.Username, cmdutil.BoolToYesNo(c.LoggedIn)})
	}
	return rows
}

func runContextList(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	current := store.GetCurrentContextName()
	contexts := make(ContextList, 0)
	for _, name := range store.ListContexts() {
		ctx, err := store.GetContext(name)
		if err != nil {
			continue
		}
		contexts = append(contexts, ContextInfo{
			Name:      name,
			Current:   name == current,
			ServerURL: ctx.ServerURL,
			Username:  ctx.Username,
			LoggedIn:  ctx.AccessToken != "" && !ctx.IsExpired(),
		})
	}

	return cmdutil.PrintOutput(os.Stdout, contexts, len(contexts) == 0,
		"No contexts configured. Use 'quillctl login --server <url>' to create one.", contexts)
}
