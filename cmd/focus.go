package cmd

import "github.com/spf13/cobra"

var focusCmd = &cobra.Command{
	Use:   "focus <window>",
	Short: "Bind the session to a window and bring it to the foreground",
	Long: `Bind the session to a window. The identifier is a window handle, or text
contained in the window title or process name (case-insensitive). An exact
handle wins; otherwise the first match in enumeration order is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "focus", map[string]interface{}{"window": args[0]})
	},
}

func init() {
	rootCmd.AddCommand(focusCmd)
}
