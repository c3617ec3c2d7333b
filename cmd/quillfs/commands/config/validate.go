package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillfs/quillfs/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the QuillFS configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  quillfs config validate

  # Validate specific config file
  quillfs config validate --config /etc/quillfs/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// Load and validate configuration
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Additional validation checks
	var warnings []string

	if cfg.Admin.Enabled && cfg.Admin.JWTSecret == "" {
		warnings = append(warnings, "Admin API enabled without jwt_secret - set it or QUILLFS_ADMIN_SECRET, or the name server will not start")
	}
	if len(cfg.Admin.JWTSecret) > 0 && len(cfg.Admin.JWTSecret) < 32 {
		warnings = append(warnings, "Admin JWT secret is shorter than 32 characters and will be rejected")
	}
	if cfg.NameServer.ExecEnabled {
		warnings = append(warnings, "EXEC is enabled - authenticated users can run file contents on the name server host")
	}

	// Print results
	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Name server port: %d\n", cfg.NameServer.Port)
	fmt.Printf("  Data root:        %s\n", cfg.NameServer.Root)
	if cfg.Admin.Enabled {
		fmt.Printf("  Admin API port:   %d\n", cfg.Admin.Port)
	} else {
		fmt.Printf("  Admin API:        disabled\n")
	}
	fmt.Printf("  Log level:        %s\n", cfg.Logging.Level)

	return nil
}
