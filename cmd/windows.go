package cmd

import "github.com/spf13/cobra"

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List top-level windows",
	Long:  "List top-level windows as [handle] title (process). The bound window is marked with *.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "windows", nil)
	},
}

func init() {
	rootCmd.AddCommand(windowsCmd)
}
