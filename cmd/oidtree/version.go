package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/oidtree"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of oidtree",
	// No config needed to print the version.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "oidtree version %s\n", strings.TrimSpace(oidtree.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
