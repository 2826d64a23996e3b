package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sift-al/sift-al/sift"
)

var logLevel string // Log verbosity level

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "sift-al",
	Short: "Active-learning study pipeline for lithium carbonate crystallization",
}

// configureLogging applies the --log flag. Called at the top of every
// subcommand Run.
func configureLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadStudy reads the study config at path, or returns the default study
// when no path is given.
func loadStudy(path string) *sift.StudyConfig {
	if path == "" {
		return sift.DefaultStudyConfig()
	}
	cfg, err := sift.LoadStudyConfig(path)
	if err != nil {
		logrus.Fatalf("Failed to load study config: %v", err)
	}
	return cfg
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
}
