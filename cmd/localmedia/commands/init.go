package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/localmedia/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample LocalMedia configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/localmedia/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  localmedia init

  # Initialize with custom path
  localmedia init --config ./localmedia.yaml

  # Force overwrite existing config
  localmedia init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var (
		configPath string
		err        error
	)
	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Edit the configuration file to customize your setup")
	fmt.Fprintln(out, "  2. Serve a file with: localmedia serve <file>")
	fmt.Fprintf(out, "  3. Or specify the config explicitly: localmedia serve --config %s <file>\n", configPath)
	return nil
}
