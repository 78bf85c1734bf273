package cmd

import "github.com/spf13/cobra"

var clickAtCmd = &cobra.Command{
	Use:   "click-at <x> <y>",
	Short: "Click at screen coordinates",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, err := intArg(args, 0, "x")
		if err != nil {
			return err
		}
		y, err := intArg(args, 1, "y")
		if err != nil {
			return err
		}
		params := map[string]interface{}{"x": x, "y": y}
		if right, _ := cmd.Flags().GetBool("right"); right {
			params["right"] = true
		}
		if double, _ := cmd.Flags().GetBool("double"); double {
			params["double"] = true
		}
		return runCommand(cmd, "click-at", params)
	},
}

func init() {
	rootCmd.AddCommand(clickAtCmd)
	clickAtCmd.Flags().Bool("right", false, "Right-click")
	clickAtCmd.Flags().Bool("double", false, "Double-click")
}
