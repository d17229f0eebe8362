package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"flickrscrapr/pkg/config"
	"flickrscrapr/pkg/logger"
	"flickrscrapr/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool

	term *ui.Terminal
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flickrscrapr",
	Short: "Scrape photo attribution and download links from Flickr photo pages",
	Long: `flickrscrapr reads a Flickr photo page and forwards what it finds to a
local collector service.

A photo page yields its attribution, license and download page link. The
"all sizes" download page yields the direct file link. Each scrape sends
exactly one JSON record to the collector:

  POST {endpoint}/save_metadata
  POST {endpoint}/save_download`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		term = ui.NewTerminal(cmd.ErrOrStderr(), noColor, quiet)

		if cmd.Name() == "listen" {
			term.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./flickrscrapr.yaml or $HOME/.flickrscrapr.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`flickrscrapr {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with the global flags and extra merged in
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := map[string]interface{}{
		"log-level": logLevel,
		"no-color":  noColor,
	}
	if quiet && logLevel == "" {
		flags["log-level"] = "error"
	}
	for k, v := range extra {
		flags[k] = v
	}

	return config.Load(configFile, flags)
}

// setup loads configuration and initializes the global logger
func setup(extra map[string]interface{}) (*config.Config, error) {
	cfg, err := loadConfig(extra)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("version", version).Debug("flickrscrapr starting")

	return cfg, nil
}
