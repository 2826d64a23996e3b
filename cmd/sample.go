package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sift-al/sift-al/sift"
	"github.com/sift-al/sift-al/sift/sampler"
)

var (
	sampleConfigPath string // Study config YAML
	samplePoints     int    // Number of candidates
	sampleMethod     string // lhs or uniform
	sampleSeed       int64  // Master seed override
	sampleOutputPath string // Candidate CSV destination
)

// sampleCmd generates candidate conditions without running a study, for
// seeding the first experiment round.
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate candidate experiment conditions",
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging()
		cfg := loadStudy(sampleConfigPath)
		if cmd.Flags().Changed("seed") {
			cfg.Seed = sampleSeed
		}
		if cmd.Flags().Changed("points") {
			cfg.Sampler.Points = samplePoints
		}
		if cmd.Flags().Changed("method") {
			cfg.Sampler.Method = sampleMethod
		}

		seed := sift.SubsystemSeed(sift.NewStudyKey(cfg.Seed), sift.SubsystemSampler)
		table, err := sampler.SampleConditions(cfg.Space, cfg.Sampler, seed)
		if err != nil {
			logrus.Fatalf("Sampling failed: %v", err)
		}
		if err := table.WriteCSV(sampleOutputPath); err != nil {
			logrus.Fatalf("Failed to write candidates: %v", err)
		}
		logrus.Infof("Wrote %d candidate conditions to %s", table.NumRows(), sampleOutputPath)
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleConfigPath, "config", "", "Study config YAML (defaults apply when omitted)")
	sampleCmd.Flags().IntVar(&samplePoints, "points", 1000, "Number of candidate conditions")
	sampleCmd.Flags().StringVar(&sampleMethod, "method", sift.SamplerLatinHypercube, "Sampling method (lhs, uniform)")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 42, "Master seed (overrides the config seed when set)")
	sampleCmd.Flags().StringVar(&sampleOutputPath, "output", "candidates.csv", "Candidate CSV destination")

	rootCmd.AddCommand(sampleCmd)
}
