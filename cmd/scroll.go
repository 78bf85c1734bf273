package cmd

import "github.com/spf13/cobra"

var scrollCmd = &cobra.Command{
	Use:   "scroll <index> <up|down|left|right> [amount]",
	Short: "Scroll within an element",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := intArg(args, 0, "index")
		if err != nil {
			return err
		}
		params := map[string]interface{}{"index": index, "direction": args[1]}
		if len(args) == 3 {
			amount, err := intArg(args, 2, "amount")
			if err != nil {
				return err
			}
			params["amount"] = amount
		}
		return runCommand(cmd, "scroll", params)
	},
}

func init() {
	rootCmd.AddCommand(scrollCmd)
}
