package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sift-al/sift-al/sift"
	"github.com/sift-al/sift-al/sift/pareto"
)

var (
	paretoConfigPath string   // Study config YAML
	paretoInputPath  string   // Scored candidates CSV
	paretoOutputPath string   // Frontier CSV destination
	paretoObjectives []string // Objective columns override
	paretoSeed       int64    // Master seed override
)

// paretoCmd extracts the non-dominated frontier from candidates that already
// carry objective columns, e.g. the output of a previous scored run.
var paretoCmd = &cobra.Command{
	Use:   "pareto",
	Short: "Extract the Pareto frontier from scored candidates",
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging()
		cfg := loadStudy(paretoConfigPath)
		if cmd.Flags().Changed("seed") {
			cfg.Seed = paretoSeed
		}
		objectives := cfg.Objectives
		if len(paretoObjectives) > 0 {
			objectives = paretoObjectives
		}

		table, err := sift.ReadCSV(paretoInputPath)
		if err != nil {
			logrus.Fatalf("Failed to read scored candidates: %v", err)
		}
		seed := sift.SubsystemSeed(sift.NewStudyKey(cfg.Seed), sift.SubsystemPareto)
		_, frontier, err := pareto.OptimizeFront(table, objectives, cfg.Pareto, seed)
		if err != nil {
			logrus.Fatalf("Frontier extraction failed: %v", err)
		}
		if err := frontier.WriteCSV(paretoOutputPath); err != nil {
			logrus.Fatalf("Failed to write frontier: %v", err)
		}
		logrus.Infof("Wrote %d frontier rows to %s", frontier.NumRows(), paretoOutputPath)
	},
}

func init() {
	paretoCmd.Flags().StringVar(&paretoConfigPath, "config", "", "Study config YAML (defaults apply when omitted)")
	paretoCmd.Flags().StringVar(&paretoInputPath, "input", "", "Scored candidates CSV")
	paretoCmd.Flags().StringVar(&paretoOutputPath, "output", "frontier.csv", "Frontier CSV destination")
	paretoCmd.Flags().StringSliceVar(&paretoObjectives, "objectives", nil, "Objective columns (defaults to the config objectives)")
	paretoCmd.Flags().Int64Var(&paretoSeed, "seed", 42, "Master seed (overrides the config seed when set)")
	_ = paretoCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(paretoCmd)
}
