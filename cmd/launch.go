package cmd

import "github.com/spf13/cobra"

var launchCmd = &cobra.Command{
	Use:   "launch <app>",
	Short: "Start an application and bind its window",
	Long: `Start an application and bind the session to its window. The window is found
by the application's name: the executable's base name without .exe, matched
against window titles and process names.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "launch", map[string]interface{}{"app": args[0]})
	},
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the bound window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "close", nil)
	},
}

func init() {
	rootCmd.AddCommand(launchCmd, closeCmd)
}
