package cmd

import "github.com/spf13/cobra"

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Detect and list the elements of the bound window",
	Long: `Detect the elements of the bound window and print them as an indexed list.
The first command of a session binds the foreground window; use focus or
--window to pick another.

Elements are printed as [index] [type] "label". Rects are shown for elements
that can only be acted on by coordinates, or for all with --verbose.`,
	Args: cobra.NoArgs,
	RunE: runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().String("text", "", "Only show elements whose label contains this text")
	stateCmd.Flags().String("type", "", "Only show these comma-separated control types")
	stateCmd.Flags().Bool("diff", false, "Also report what changed since the previous state")
}

func runState(cmd *cobra.Command, args []string) error {
	params := map[string]interface{}{}
	if text, _ := cmd.Flags().GetString("text"); text != "" {
		params["text"] = text
	}
	if types, _ := cmd.Flags().GetString("type"); types != "" {
		params["type"] = types
	}
	if diff, _ := cmd.Flags().GetBool("diff"); diff {
		params["diff"] = true
	}
	return runCommand(cmd, "state", params)
}
