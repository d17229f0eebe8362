package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"flickrscrapr/pkg/config"
)

const defaultConfigPath = "flickrscrapr.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage flickrscrapr configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (FLICKRSCRAPR_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the defaults",
	Long: `Create a configuration file holding every option at its default value.

The file is created as 'flickrscrapr.yaml' in the current directory unless
a different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load configuration from all sources and check it.

Checks YAML syntax, URLs of the site origin and collector endpoint,
timeouts, the listen address and the log level.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); err == nil {
		err := fmt.Errorf("configuration file already exists: %s", configPath)
		term.PrintError("Refusing to overwrite", err)
		return err
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		term.PrintError("Failed to create configuration file", err)
		return err
	}

	term.PrintSuccess("Configuration file created: " + configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		term.PrintError("Failed to load configuration", err)
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		term.PrintError("Failed to format configuration", err)
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none, defaults)"
	}
	term.PrintInfo("Configuration file", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		term.PrintError("Configuration is invalid", err)
		return err
	}

	term.PrintSuccess("Configuration is valid")
	term.PrintInfo("Photo pages", cfg.Site.PhotoPagePrefix())
	term.PrintInfo("Collector", cfg.Relay.Endpoint)
	term.PrintInfo("Listen address", cfg.Listen.Addr)
	term.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
