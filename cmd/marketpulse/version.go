package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/marketpulse/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MarketPulse version %s (build %s, commit %s)\n",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
	},
}
