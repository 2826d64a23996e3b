package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sift-al/sift-al/sift"
	"github.com/sift-al/sift-al/sift/pipeline"
)

var (
	runConfigPath   string // Study config YAML
	runDataPath     string // Experiment results CSV
	runSeed         int64  // Master seed override
	runReportPath   string // Report JSON destination
	runFrontierPath string // Frontier CSV destination
)

// runCmd executes a full study: prepare the dataset, tune and train the
// surrogates, attribute them, sample candidates, and extract the frontier.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full SIFT study from experiment data",
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging()
		cfg := loadStudy(runConfigPath)
		if cmd.Flags().Changed("seed") {
			cfg.Seed = runSeed
		}
		if runDataPath != "" {
			cfg.Data = runDataPath
		}
		if cfg.Data == "" {
			logrus.Fatalf("No experiment data provided. Pass --data or set data in the config.")
		}
		table, err := sift.ReadCSV(cfg.Data)
		if err != nil {
			logrus.Fatalf("Failed to read experiment data: %v", err)
		}

		startTime := time.Now()
		report, err := pipeline.Run(cfg, table)
		if err != nil {
			logrus.Fatalf("Study failed: %v", err)
		}
		report.Print()

		if runReportPath != "" {
			if err := report.Save(runReportPath); err != nil {
				logrus.Fatalf("Failed to save report: %v", err)
			}
			logrus.Infof("Report written to %s", runReportPath)
		}
		if runFrontierPath != "" {
			frontier, err := report.FrontierTable()
			if err != nil {
				logrus.Fatalf("Failed to rebuild frontier table: %v", err)
			}
			if err := frontier.WriteCSV(runFrontierPath); err != nil {
				logrus.Fatalf("Failed to write frontier: %v", err)
			}
			logrus.Infof("Frontier written to %s", runFrontierPath)
		}
		logrus.Infof("Study finished in %v", time.Since(startTime))
	},
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Study config YAML (defaults apply when omitted)")
	runCmd.Flags().StringVar(&runDataPath, "data", "", "Experiment results CSV (overrides the config data path)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 42, "Master seed (overrides the config seed when set)")
	runCmd.Flags().StringVar(&runReportPath, "report", "", "Write the study report JSON to this path")
	runCmd.Flags().StringVar(&runFrontierPath, "frontier", "", "Write the proposed frontier CSV to this path")

	rootCmd.AddCommand(runCmd)
}
