package main

import (
	"github.com/spf13/cobra"

	"filescope/internal/scope"
	"filescope/internal/similarity"
)

var (
	relatedTopK      int
	relatedThreshold int
)

var relatedCmd = &cobra.Command{
	Use:   "related <file> [pool files...]",
	Short: "Find the files most similar to one file",
	Long: `Rank the pool by adjusted simhash distance to <file> and print the
nearest files below the distance threshold. The pool is the listed files,
or every supported file in the repository.

Examples:
  filescope related src/models/user.py
  filescope related src/models/user.py src/models/*.py --top-k 5`,
	Args: cobra.MinimumNArgs(1),
	Run:  runRelated,
}

func init() {
	relatedCmd.Flags().IntVar(&relatedTopK, "top-k", 0, "Number of related files (default: grouping.topK)")
	relatedCmd.Flags().IntVar(&relatedThreshold, "threshold", 0, "Distance threshold (default: grouping.distanceThreshold)")
	rootCmd.AddCommand(relatedCmd)
}

// RelatedResponseCLI is the output of the related command
type RelatedResponseCLI struct {
	File     string                `json:"file"`
	PoolSize int                   `json:"poolSize"`
	Related  []similarity.Neighbor `json:"related"`
	Report   *scope.Report         `json:"-"`
}

func runRelated(cmd *cobra.Command, args []string) {
	ctx, cancel := newContext()
	defer cancel()

	cfg, _, engine := setup(ctx)

	opts := groupingOptions(cmd, scope.DefaultOptions(cfg), relatedTopK, relatedThreshold)
	files := mustRepoRelative(cfg.RepoRoot, args)
	opts.Center = files[0]
	opts.Files = files[1:]

	report, err := engine.Group(ctx, opts)
	if err != nil {
		exitWithError(err)
	}

	center := files[0]
	related := report.Related[center]
	if related == nil {
		related = []similarity.Neighbor{}
	}

	printResponse(&RelatedResponseCLI{
		File:     center,
		PoolSize: len(report.Pool),
		Related:  related,
		Report:   report,
	})
}

// groupingOptions applies --top-k and --threshold overrides. A zero top-k
// keeps the configured value; the threshold applies whenever the flag was
// given, negative values included.
func groupingOptions(cmd *cobra.Command, opts scope.Options, topK, threshold int) scope.Options {
	if topK > 0 {
		opts.TopK = topK
	}
	if cmd.Flags().Changed("threshold") {
		opts.Threshold = threshold
	}
	return opts
}
