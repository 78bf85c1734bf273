package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/mj1618/deskctl/internal/config"
	"github.com/mj1618/deskctl/internal/logging"
	"github.com/mj1618/deskctl/internal/output"
	_ "github.com/mj1618/deskctl/internal/platform/replay"
	"github.com/mj1618/deskctl/internal/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deskctl",
	Short: "Inspect and drive desktop windows by element index",
	Long: `deskctl turns the focused window into a numbered list of elements and acts
on them by index. Elements come from the accessibility tree, optionally
enriched by language-model inference over that tree and by visual detection
on a screenshot.

Commands run against a named session kept alive by a background daemon, so
the window binding and the last state survive between invocations. Use
--ephemeral to run a single command without a daemon.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	// appCfg is the resolved configuration for this invocation.
	appCfg config.Config
	logger *logrus.Logger
)

// reportedError marks an error that was already printed with the response
// it came from.
type reportedError struct{ error }

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	pf := rootCmd.PersistentFlags()
	pf.String("session", "default", "Session name; each session has its own daemon, window binding and state")
	pf.String("window", "", "Rebind to the window with this handle, or whose title or process contains this text")
	pf.String("format", "", "Output format: text, yaml, json")
	pf.Bool("pretty", false, "Indent JSON output")
	pf.Bool("structural", false, "Add elements inferred by a language model from the accessibility tree")
	pf.Bool("visual", false, "Add elements found by visual detection on a screenshot")
	pf.Bool("vision", false, "Alias for --visual")
	pf.Bool("return-state", false, "After an action, wait briefly and print the new state")
	pf.Bool("verbose", false, "Show rects for every element")
	pf.String("config", "", "Config file (default $XDG_CONFIG_HOME/deskctl/config.yaml)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("backend", "", "Platform backend: native or replay")
	pf.String("fixture", "", "Desktop fixture for the replay backend")
	pf.Duration("timeout", 0, "Request timeout")
	pf.Int("transient-retries", 0, "Retries for transient accessibility failures")
	pf.Bool("ephemeral", false, "Run in-process without a session daemon")
	_ = pf.MarkHidden("vision")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		configPath, _ := rootCmd.PersistentFlags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlagOverrides(&cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		appCfg = cfg

		format, err := output.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}
		output.OutputFormat = format
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")

		logger, err = logging.New(cfg.LogLevel, os.Stderr)
		return err
	}
}

// applyFlagOverrides layers explicitly set persistent flags over cfg.
func applyFlagOverrides(cfg *config.Config) {
	pf := rootCmd.PersistentFlags()
	if pf.Changed("format") {
		cfg.Format, _ = pf.GetString("format")
	}
	if pf.Changed("log-level") {
		cfg.LogLevel, _ = pf.GetString("log-level")
	}
	if pf.Changed("backend") {
		cfg.Backend, _ = pf.GetString("backend")
	}
	if pf.Changed("fixture") {
		cfg.Fixture, _ = pf.GetString("fixture")
		if !pf.Changed("backend") && cfg.Backend == "native" {
			cfg.Backend = "replay"
		}
	}
	if pf.Changed("timeout") {
		cfg.Daemon.RequestTimeout, _ = pf.GetDuration("timeout")
	}
	if pf.Changed("transient-retries") {
		cfg.Daemon.TransientRetries, _ = pf.GetInt("transient-retries")
	}
}
