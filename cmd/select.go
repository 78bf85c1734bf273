package cmd

import "github.com/spf13/cobra"

var selectCmd = &cobra.Command{
	Use:   "select <index> <value>",
	Short: "Pick a value in a list or combo box",
	Long: `Pick a value in a list or combo box. The element is clicked to open it, and
after a short pause the value is written into it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := intArg(args, 0, "index")
		if err != nil {
			return err
		}
		return runCommand(cmd, "select", map[string]interface{}{"index": index, "value": args[1]})
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}
