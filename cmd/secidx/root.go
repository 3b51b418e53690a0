package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secidx",
		Short: "Build, inspect, and scan B+ tree secondary indexes",
	}
	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newInspectCommand())
	cmd.AddCommand(newScanCommand())
	return cmd
}
