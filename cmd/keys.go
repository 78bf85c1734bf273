package cmd

import "github.com/spf13/cobra"

var keysCmd = &cobra.Command{
	Use:   "keys <combo>",
	Short: "Send a key combination",
	Long: `Send a key combination such as ctrl+s, alt+f4 or enter to the bound window,
or to one element with --target.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]interface{}{"keys": args[0]}
		if cmd.Flags().Changed("target") {
			target, _ := cmd.Flags().GetInt("target")
			params["target"] = target
		}
		return runCommand(cmd, "keys", params)
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.Flags().Int("target", 0, "Element index to send the keys to")
}
