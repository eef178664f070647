package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/firmware-selector/internal/config"
	"github.com/open-edge-platform/firmware-selector/internal/feeds"
	"github.com/open-edge-platform/firmware-selector/internal/pkgfetcher"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

// Persistent command flags
var (
	configFile string
	logLevel   string
	verbose    bool
)

// globalConfig is loaded by the pre-run hook of every subcommand.
var globalConfig *config.GlobalConfig

func main() {
	rootCmd := createRootCommand()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// createRootCommand builds the command tree
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "firmware-selector",
		Short: "Browse firmware package feeds and build package lists",
		Long: `firmware-selector resolves the package feeds of a firmware
version and device, decodes binary (packages.adb) and text (Packages)
indexes, answers dependency queries and turns package selections into
the list submitted to an image build.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn or error (overrides the configuration)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging unless --log-level is set")

	rootCmd.AddCommand(createFeedsCommand())
	rootCmd.AddCommand(createLoadCommand())
	rootCmd.AddCommand(createDownloadCommand())
	rootCmd.AddCommand(createIndexCommand())
	rootCmd.AddCommand(createDepsCommand())
	rootCmd.AddCommand(createRdepsCommand())
	rootCmd.AddCommand(createBuildListCommand())

	attachLoggingHooks(rootCmd)
	return rootCmd
}

// resolveRequestedLogLevel returns the level asked for on the command line,
// or "" when the configuration decides.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd == nil {
		return ""
	}
	flag := cmd.Flags().Lookup("verbose")
	if flag == nil || !flag.Changed {
		return ""
	}
	if on, err := cmd.Flags().GetBool("verbose"); err == nil && on {
		return "debug"
	}
	return ""
}

// attachLoggingHooks installs the configuration and logger setup on every
// subcommand.
func attachLoggingHooks(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		sub.PersistentPreRunE = initializeCommand
		attachLoggingHooks(sub)
	}
}

func initializeCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level := resolveRequestedLogLevel(cmd)
	if level != "" {
		cfg.Logging.Level = level
	}
	z, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger.Init(z)
	globalConfig = cfg

	if configFile != "" {
		z.Debugf("using configuration %s", configFile)
	}
	return nil
}

func currentConfig() *config.ConfigHelpers {
	if globalConfig == nil {
		globalConfig = config.DefaultGlobalConfig()
	}
	return config.NewConfigHelpers(globalConfig)
}

func newFetcher() *pkgfetcher.Fetcher {
	return pkgfetcher.NewFetcher(currentConfig().Timeout())
}

func newResolver() *feeds.Resolver {
	cfg := currentConfig().GetConfig()
	return feeds.NewResolver(cfg.DownloadsURL, cfg.BinaryIndexVersions)
}
