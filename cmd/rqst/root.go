package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/repoquest/rqst/internal/config"
)

var (
	flagOutput  string
	flagBaseDir string
	flagVerbose bool
	flagConfig  string
)

// rootCmd is the base command when rqst is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "rqst",
	Short: "Guided quests filed as pull requests against your own repository",
	Long: `rqst turns a tutorial into a sequence of pull requests and issues filed
against a repository you own: on command it files a chapter's starter PR,
tracking issue and solution PR, and it infers your progress from which of
those pulls you merge and which issues you close. When a chapter's starter
code conflicts with your own changes, the filed branch is reset instead and
its pull says so.

Get started:
  rqst new --remote <owner>/<repo> DIR   start a quest from a live upstream
  rqst new --package <file> DIR          start a quest from a Quest Package
  rqst status DIR                        show where you are in the quest
  rqst watch DIR                         keep watching and print each state

Quest Packages:
  rqst pack <path>                       snapshot a working copy as a package`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		if cfg.Verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output format: table, json, or yaml (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagBaseDir, "base-dir", "", "Sets the base_dir config value (no command reads it; new clones go under DIR)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose logging, including stack traces on error")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: .rqst/config.yaml, then ~/.rqst/config.yaml)")
}

// loadedConfig resolves ambient CLI configuration for the current invocation,
// honoring --config as an override for RQST_CONFIG.
func loadedConfig() (*config.Config, error) {
	if flagConfig != "" {
		os.Setenv("RQST_CONFIG", flagConfig)
	}
	overrides := &config.Config{Verbose: flagVerbose}
	if flagOutput != "" {
		overrides.Output = flagOutput
	}
	if flagBaseDir != "" {
		overrides.BaseDir = flagBaseDir
	}
	return config.Load(overrides)
}

// Execute runs the root command, returning any error for main to report.
func Execute() error {
	return rootCmd.Execute()
}

func fail(err error) {
	if flagVerbose {
		fmt.Fprintf(os.Stderr, "rqst: %+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "rqst: %v\n", err)
	}
	os.Exit(1)
}
