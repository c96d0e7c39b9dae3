package main

import (
	"github.com/spf13/cobra"

	"filescope/internal/config"
	"filescope/internal/errors"
	"filescope/internal/scope"
)

var (
	runPool      string
	runTopK      int
	runThreshold int
	runSave      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Detect, score and group changed files",
	Long: `Run the full pipeline: detect changed files, score them, and group every
selected file with its nearest neighbours in the candidate pool.

Pools:
  changed   the changed files (default)
  selected  the selected files only
  repo      every supported file in the repository`,
	Args: cobra.NoArgs,
	Run:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runPool, "pool", "", "Candidate pool: changed, selected or repo (default: grouping.pool)")
	runCmd.Flags().IntVar(&runTopK, "top-k", 0, "Related files per selected file (default: grouping.topK)")
	runCmd.Flags().IntVar(&runThreshold, "threshold", 0, "Distance threshold (default: grouping.distanceThreshold)")
	runCmd.Flags().BoolVar(&runSave, "save", false, "Record the run in the history database")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) {
	ctx, cancel := newContext()
	defer cancel()

	cfg, logger, engine := setup(ctx)

	opts := groupingOptions(cmd, scope.DefaultOptions(cfg), runTopK, runThreshold)
	if runPool != "" {
		if !validPool(runPool) {
			exitWithError(errors.New(errors.ConfigInvalid, "Unknown pool "+runPool, nil))
		}
		opts.Pool = runPool
	}

	report, err := engine.Run(ctx, opts)
	if err != nil {
		exitWithError(err)
	}

	if runSave || cfg.History.Enabled {
		recordRun(cfg, logger, "run", report)
	}

	printResponse(report)
}

func validPool(pool string) bool {
	switch pool {
	case config.PoolChanged, config.PoolSelected, config.PoolRepo:
		return true
	default:
		return false
	}
}
