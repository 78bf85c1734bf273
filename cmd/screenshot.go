package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot [path]",
	Short: "Capture the bound window as a PNG",
	Long: `Capture the bound window as a PNG. Without a path the file is written to the
screenshot directory (the system temp dir by default). With --annotated every
element of the current state is boxed and labelled with its index.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().Bool("annotated", false, "Draw element boxes and [index] labels")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	params := map[string]interface{}{}
	if len(args) == 1 {
		// The daemon may run in another directory.
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		params["path"] = path
	}
	if annotated, _ := cmd.Flags().GetBool("annotated"); annotated {
		params["annotated"] = true
	}
	return runCommand(cmd, "screenshot", params)
}
