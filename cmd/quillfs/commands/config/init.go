package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillfs/quillfs/pkg/admin"
	"github.com/quillfs/quillfs/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample QuillFS configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/quillfs/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  quillfs config init

  # Initialize with custom path
  quillfs config init --config /etc/quillfs/config.yaml

  # Force overwrite existing config
  quillfs config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	var configPath string
	var err error

	if configFile != "" {
		// Use custom path
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		// Use default path
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the name server with: quillfs nameserver")
	fmt.Println("  3. Start storage servers with: quillfs storage")
	fmt.Printf("  4. Or specify custom config: quillfs nameserver --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  The admin API stays disabled until admin.enabled is set and a JWT")
	fmt.Println("  secret of at least 32 characters is configured. For production,")
	fmt.Println("  keep the secret out of the file and use an environment variable:")
	fmt.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", admin.EnvAdminSecret)

	return nil
}
