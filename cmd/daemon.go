package cmd

import (
	"os"

	"github.com/mj1618/deskctl/internal/daemon"
	"github.com/mj1618/deskctl/internal/discovery"
	"github.com/mj1618/deskctl/internal/logging"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:    "daemon",
	Short:  "Serve a session in the foreground (started automatically)",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().String("addr", "", "Listen address (default derived from the session name)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if !rootCmd.PersistentFlags().Changed("log-level") {
		cfg.LogLevel = "info"
	}
	log, err := logging.New(cfg.LogLevel, os.Stdout)
	if err != nil {
		return err
	}
	// Detector switches given at spawn time become the session default.
	f := requestFlags()
	if f.Structural != nil {
		cfg.Detect.Structural = *f.Structural
	}
	if f.Visual != nil {
		cfg.Detect.Visual = *f.Visual
	}

	name := sessionName()
	d, err := newDispatcher(cfg, name, log.WithField("session", name))
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")
	srv := &daemon.Server{
		Name:       name,
		Addr:       addr,
		Dispatcher: d,
		Registry:   discovery.NewRegistry(cfg.Daemon.RuntimeDir),
		Log:        log,
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()
	return srv.ListenAndServe(ctx)
}
