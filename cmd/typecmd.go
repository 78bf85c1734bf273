package cmd

import "github.com/spf13/cobra"

var typeCmd = &cobra.Command{
	Use:   "type <text>",
	Short: "Type text into the focused element of the bound window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "type", map[string]interface{}{"text": args[0]})
	},
}

func init() {
	rootCmd.AddCommand(typeCmd)
}
