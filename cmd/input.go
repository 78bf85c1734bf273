package cmd

import "github.com/spf13/cobra"

var inputCmd = &cobra.Command{
	Use:   "input <index> <text>",
	Short: "Replace an element's text",
	Long: `Replace an element's text. Elements without a native handle are clicked and
the text is typed instead.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := intArg(args, 0, "index")
		if err != nil {
			return err
		}
		return runCommand(cmd, "input", map[string]interface{}{"index": index, "text": args[1]})
	},
}

func init() {
	rootCmd.AddCommand(inputCmd)
}
