package cmd

import "github.com/spf13/cobra"

var inspectCmd = &cobra.Command{
	Use:   "inspect <index>",
	Short: "Show everything known about one element",
	Args:  cobra.ExactArgs(1),
	RunE:  indexCommand("inspect", nil),
}

var getRectCmd = &cobra.Command{
	Use:   "get-rect <index>",
	Short: "Print an element's rect and center",
	Args:  cobra.ExactArgs(1),
	RunE:  indexCommand("get-rect", nil),
}

var getTextCmd = &cobra.Command{
	Use:   "get-text <index>",
	Short: "Print an element's text",
	Args:  cobra.ExactArgs(1),
	RunE:  indexCommand("get-text", nil),
}

var getValueCmd = &cobra.Command{
	Use:   "get-value <index>",
	Short: "Print an element's value",
	Args:  cobra.ExactArgs(1),
	RunE:  indexCommand("get-value", nil),
}

func init() {
	rootCmd.AddCommand(inspectCmd, getRectCmd, getTextCmd, getValueCmd)
}
