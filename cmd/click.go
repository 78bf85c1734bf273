package cmd

import "github.com/spf13/cobra"

var clickCmd = &cobra.Command{
	Use:   "click <index>",
	Short: "Click an element",
	Long: `Click an element by index from the last state. Elements with a native handle
are clicked through the accessibility layer; others at the center of their
rect.`,
	Args: cobra.ExactArgs(1),
	RunE: indexCommand("click", func(cmd *cobra.Command, params map[string]interface{}) {
		if right, _ := cmd.Flags().GetBool("right"); right {
			params["right"] = true
		}
		if double, _ := cmd.Flags().GetBool("double"); double {
			params["double"] = true
		}
	}),
}

var dblclickCmd = &cobra.Command{
	Use:   "dblclick <index>",
	Short: "Double-click an element",
	Args:  cobra.ExactArgs(1),
	RunE:  indexCommand("dblclick", nil),
}

var rightclickCmd = &cobra.Command{
	Use:   "rightclick <index>",
	Short: "Right-click an element",
	Args:  cobra.ExactArgs(1),
	RunE:  indexCommand("rightclick", nil),
}

func init() {
	rootCmd.AddCommand(clickCmd, dblclickCmd, rightclickCmd)
	clickCmd.Flags().Bool("right", false, "Right-click")
	clickCmd.Flags().Bool("double", false, "Double-click")
}
