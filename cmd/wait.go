package cmd

import "github.com/spf13/cobra"

var waitCmd = &cobra.Command{
	Use:   "wait [seconds]",
	Short: "Pause, or wait for an element to become visible or enabled",
	Long: `Pause for the given seconds, e.g. to let an application settle.

With --visible or --enabled, poll the element with that index until it is
visible or enabled instead, failing after --timeout seconds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		visible, enabled := flags.Changed("visible"), flags.Changed("enabled")
		if visible || enabled {
			if visible && enabled {
				return usageError("use --visible or --enabled, not both")
			}
			if len(args) > 0 {
				return usageError("seconds cannot be combined with --visible or --enabled")
			}
			timeout, _ := flags.GetFloat64("timeout")
			if timeout < 0 {
				return usageError("timeout must not be negative, got %v", timeout)
			}
			condition := "visible"
			if enabled {
				condition = "enabled"
			}
			index, _ := flags.GetInt(condition)
			return runCommand(cmd, "wait", map[string]interface{}{condition: index, "timeout": timeout})
		}

		if len(args) == 0 {
			return usageError("missing seconds")
		}
		secs, err := floatArg(args, 0, "seconds")
		if err != nil {
			return err
		}
		if secs < 0 {
			return usageError("seconds must not be negative, got %v", secs)
		}
		return runCommand(cmd, "wait", map[string]interface{}{"seconds": secs})
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().Int("visible", 0, "Wait until the element with this index is visible")
	waitCmd.Flags().Int("enabled", 0, "Wait until the element with this index is enabled")
	waitCmd.Flags().Float64("timeout", 10, "Seconds to wait for --visible or --enabled")
}
