package cmd

import (
	"github.com/spf13/cobra"
)

var dragCmd = &cobra.Command{
	Use:   "drag <index> <x2> <y2>",
	Short: "Drag from an element to a screen point",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := intArg(args, 0, "index")
		if err != nil {
			return err
		}
		x2, err := intArg(args, 1, "x2")
		if err != nil {
			return err
		}
		y2, err := intArg(args, 2, "y2")
		if err != nil {
			return err
		}
		params := map[string]interface{}{"index": index, "x2": x2, "y2": y2}
		addDragFlags(cmd, params)
		return runCommand(cmd, "drag", params)
	},
}

var dragAtCmd = &cobra.Command{
	Use:   "drag-at <x1> <y1> <x2> <y2>",
	Short: "Drag between two screen points",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]interface{}{}
		for i, name := range []string{"x1", "y1", "x2", "y2"} {
			v, err := intArg(args, i, name)
			if err != nil {
				return err
			}
			params[name] = v
		}
		addDragFlags(cmd, params)
		return runCommand(cmd, "drag-at", params)
	},
}

func addDragFlags(cmd *cobra.Command, params map[string]interface{}) {
	if button, _ := cmd.Flags().GetString("button"); button != "" {
		params["button"] = button
	}
	if cmd.Flags().Changed("duration") {
		d, _ := cmd.Flags().GetDuration("duration")
		params["duration"] = d.Seconds()
	}
}

func init() {
	rootCmd.AddCommand(dragCmd, dragAtCmd)
	for _, c := range []*cobra.Command{dragCmd, dragAtCmd} {
		c.Flags().String("button", "left", "Mouse button: left, right, middle")
		c.Flags().Duration("duration", 0, "How long the drag takes (default 500ms)")
	}
}
