package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quillfs/quillfs/internal/cli/output"
	"github.com/quillfs/quillfs/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective QuillFS configuration, defaults included.

Examples:
  # Show default config as YAML
  quillfs config show

  # Show as JSON
  quillfs config show --output json

  # Show specific config file
  quillfs config show --config /etc/quillfs/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// --config is the parent's persistent flag
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.MustLoad(configPath)
		if err != nil {
			return err
		}

		format, err := output.ParseFormat(showOutput)
		if err != nil {
			return err
		}
		if format == output.FormatJSON {
			return output.PrintJSON(os.Stdout, cfg)
		}
		return output.PrintYAML(os.Stdout, cfg)
	},
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}
