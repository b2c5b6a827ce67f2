package main

import (
	"github.com/aretw0/oidtree/internal/cli"
	"github.com/aretw0/oidtree/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:               "init [path]",
	Short:             "Write a default config file",
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		cli.PrintSystemMessage(cmd.OutOrStdout(), "Wrote %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
