// Package sift provides the core data model for SIFT crystallization
// studies: tabular experiment data, bounded parameter spaces, study
// configuration, and deterministic RNG partitioning.
//
// # Reading Guide
//
// Start with these three files to understand the data flow:
//   - table.go: Table, the ordered named-column dataset every stage consumes
//   - dataset.go: canonical column registries and dataset preparation
//   - config.go: StudyConfig, the YAML study definition with defaults
//
// # Architecture
//
// The sift package defines shared types and settings; algorithms live in
// sub-packages:
//   - sift/sampler/: Latin Hypercube and uniform candidate generation
//   - sift/surrogate/: boosted-tree models, cross validation, tuning
//   - sift/attribution/: Shapley values, sensitivity, mutual information
//   - sift/pareto/: NSGA-II non-dominated frontier extraction
//   - sift/pipeline/: the study orchestrator and report
//
// All randomness flows from one master seed (StudyKey) through
// PartitionedRNG, which derives an isolated stream per subsystem. Two runs
// with the same seed and configuration produce identical results.
package sift
