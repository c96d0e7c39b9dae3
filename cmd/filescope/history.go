package main

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"filescope/internal/config"
	"filescope/internal/errors"
	"filescope/internal/scope"
	"filescope/internal/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs",
	Long:  "List and inspect runs recorded in .filescope/history.db",
	Args:  cobra.NoArgs,
	Run:   runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	Run:   runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the report of a recorded run",
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryShow,
}

func init() {
	historyCmd.PersistentFlags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

// HistoryListResponseCLI is the output of history list
type HistoryListResponseCLI struct {
	Runs []storage.RunSummary `json:"runs"`
}

func openHistory() *storage.DB {
	ctx, cancel := newContext()
	defer cancel()

	repoRoot := mustGetRepoRoot(ctx)
	cfg := mustLoadConfig(repoRoot)
	db, err := storage.Open(repoRoot, newLogger(cfg))
	if err != nil {
		exitWithError(errors.New(errors.IOFailed, "Cannot open run history", err))
	}
	return db
}

func runHistoryList(cmd *cobra.Command, args []string) {
	db := openHistory()
	defer db.Close()

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		exitWithError(errors.New(errors.IOFailed, "Cannot list runs", err))
	}

	printResponse(&HistoryListResponseCLI{Runs: runs})
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	db := openHistory()
	defer db.Close()

	run, err := db.GetRun(args[0])
	if err != nil {
		exitWithError(errors.New(errors.IOFailed, "Cannot load run", err))
	}
	if run == nil {
		exitWithError(errors.New(errors.InternalError, "No recorded run "+args[0], nil))
	}

	var report scope.Report
	if err := json.Unmarshal(run.Report, &report); err != nil {
		exitWithError(errors.New(errors.InternalError, "Stored report is corrupt", err))
	}

	printResponse(&report)
}

// recordRun stores report in the history database and prunes old runs.
// Failures are logged; the run itself already succeeded.
func recordRun(cfg *config.Config, logger *slog.Logger, command string, report *scope.Report) {
	data, err := json.Marshal(report)
	if err != nil {
		logger.Warn("Could not encode run for history", "error", err.Error())
		return
	}

	db, err := storage.Open(cfg.RepoRoot, logger)
	if err != nil {
		logger.Warn("Could not open run history", "error", err.Error())
		return
	}
	defer db.Close()

	if err := db.SaveRun(summarize(command, report), data); err != nil {
		logger.Warn("Could not record run", "runId", report.RunID, "error", err.Error())
		return
	}
	if _, err := db.Prune(cfg.History.Keep); err != nil {
		logger.Warn("Could not prune run history", "error", err.Error())
	}
}

// summarize extracts the indexed columns of a run.
func summarize(command string, r *scope.Report) storage.RunSummary {
	s := storage.RunSummary{
		ID:            r.RunID,
		StartedAt:     r.StartedAt,
		DurationMs:    r.DurationMs,
		Command:       command,
		ChangedCount:  len(r.Changed),
		SelectedCount: len(r.Selected),
		PoolSize:      len(r.Pool),
		DegradedCount: r.DegradedCount,
	}
	if r.Provenance != nil {
		s.RepoStateID = r.Provenance.RepoStateID
		s.HeadCommit = r.Provenance.HeadCommit
	}
	return s
}
