package main

import (
	"github.com/spf13/cobra"

	"filescope/internal/changes"
)

var changedCmd = &cobra.Command{
	Use:   "changed",
	Short: "List changed files",
	Long: `List the added and modified files in the working tree that pass the
extension allow-list and the exclusion filters, in git status order.`,
	Args: cobra.NoArgs,
	Run:  runChanged,
}

func init() {
	rootCmd.AddCommand(changedCmd)
}

// ChangedResponseCLI is the output of the changed command
type ChangedResponseCLI struct {
	Files []ChangedFileCLI `json:"files"`
}

// ChangedFileCLI is one changed file
type ChangedFileCLI struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Ext    string `json:"ext"`
}

func runChanged(cmd *cobra.Command, args []string) {
	ctx, cancel := newContext()
	defer cancel()

	_, _, engine := setup(ctx)

	records, err := engine.Changed(ctx)
	if err != nil {
		exitWithError(err)
	}

	printResponse(convertChanged(records))
}

func convertChanged(records []changes.FileRecord) *ChangedResponseCLI {
	resp := &ChangedResponseCLI{Files: make([]ChangedFileCLI, 0, len(records))}
	for _, r := range records {
		resp.Files = append(resp.Files, ChangedFileCLI{
			Path:   r.Path,
			Status: r.Status.String(),
			Ext:    r.Ext,
		})
	}
	return resp
}
