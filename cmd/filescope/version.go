package main

import (
	"github.com/spf13/cobra"

	"filescope/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printResponse(version.Get())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
