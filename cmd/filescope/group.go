package main

import (
	"github.com/spf13/cobra"

	"filescope/internal/scope"
)

var (
	groupTopK      int
	groupThreshold int
	groupSave      bool
)

var groupCmd = &cobra.Command{
	Use:   "group [files...]",
	Short: "Group files by structural similarity",
	Long: `Fingerprint a pool of files and list the nearest neighbours of every
file in it. The pool is the listed files, or every supported file in the
repository. Git is not required.`,
	Run: runGroup,
}

func init() {
	groupCmd.Flags().IntVar(&groupTopK, "top-k", 0, "Related files per center (default: grouping.topK)")
	groupCmd.Flags().IntVar(&groupThreshold, "threshold", 0, "Distance threshold (default: grouping.distanceThreshold)")
	groupCmd.Flags().BoolVar(&groupSave, "save", false, "Record the run in the history database")
	rootCmd.AddCommand(groupCmd)
}

func runGroup(cmd *cobra.Command, args []string) {
	ctx, cancel := newContext()
	defer cancel()

	cfg, logger, engine := setup(ctx)

	opts := groupingOptions(cmd, scope.DefaultOptions(cfg), groupTopK, groupThreshold)
	opts.Files = mustRepoRelative(cfg.RepoRoot, args)

	report, err := engine.Group(ctx, opts)
	if err != nil {
		exitWithError(err)
	}

	if groupSave || cfg.History.Enabled {
		recordRun(cfg, logger, "group", report)
	}

	printResponse(report)
}
