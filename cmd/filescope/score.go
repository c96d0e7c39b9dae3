package main

import (
	"sort"

	"github.com/spf13/cobra"

	"filescope/internal/errors"
	"filescope/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score [files...]",
	Short: "Score files for review relevance",
	Long: `Score files for review relevance from structural density, churn,
recent commits and author count. Without arguments the changed files are
scored.`,
	Run: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

// ScoreResponseCLI is the output of the score command
type ScoreResponseCLI struct {
	Files []string `json:"files"`
	*scoring.Result
}

func runScore(cmd *cobra.Command, args []string) {
	ctx, cancel := newContext()
	defer cancel()

	cfg, _, engine := setup(ctx)

	files := mustRepoRelative(cfg.RepoRoot, args)
	if len(files) == 0 {
		records, err := engine.Changed(ctx)
		if err != nil {
			exitWithError(err)
		}
		for _, r := range records {
			files = append(files, r.Path)
		}
	}

	result, err := engine.Score(ctx, files)
	if err != nil {
		exitWithError(err)
	}
	if result.Degraded == nil {
		result.Degraded = []errors.Degradation{}
	}

	printResponse(&ScoreResponseCLI{Files: scoredFiles(files, result), Result: result})
}

// scoredFiles lists the files that received a score, in argument order.
func scoredFiles(files []string, result *scoring.Result) []string {
	out := make([]string, 0, len(result.Scores))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if _, ok := result.Scores[f]; ok && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) < len(result.Scores) {
		// Arguments were normalized by the engine; fall back to sorted keys.
		out = out[:0]
		for f := range result.Scores {
			out = append(out, f)
		}
		sort.Strings(out)
	}
	return out
}
