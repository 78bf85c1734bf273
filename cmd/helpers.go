package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mj1618/deskctl/internal/config"
	"github.com/mj1618/deskctl/internal/daemon"
	"github.com/mj1618/deskctl/internal/detect"
	"github.com/mj1618/deskctl/internal/discovery"
	"github.com/mj1618/deskctl/internal/dispatch"
	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/output"
	"github.com/mj1618/deskctl/internal/platform"
	"github.com/mj1618/deskctl/internal/protocol"
	"github.com/mj1618/deskctl/internal/reasoning"
	"github.com/mj1618/deskctl/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func sessionName() string {
	name, _ := rootCmd.PersistentFlags().GetString("session")
	if name == "" {
		return discovery.DefaultSession
	}
	return name
}

// requestFlags builds the per-request overrides from the persistent flags.
// Detector switches are only sent when given, so the daemon keeps its
// current selection otherwise.
func requestFlags() protocol.Flags {
	pf := rootCmd.PersistentFlags()
	var f protocol.Flags
	f.Window, _ = pf.GetString("window")
	f.ReturnState, _ = pf.GetBool("return-state")
	f.Verbose, _ = pf.GetBool("verbose")
	if pf.Changed("structural") {
		v, _ := pf.GetBool("structural")
		f.Structural = &v
	}
	for _, name := range []string{"visual", "vision"} {
		if pf.Changed(name) {
			v, _ := pf.GetBool(name)
			f.Visual = &v
		}
	}
	return f
}

// runCommand sends one command to the session and prints the response.
func runCommand(cmd *cobra.Command, command string, args map[string]interface{}) error {
	req := protocol.NewRequest(command, args, requestFlags())
	resp, err := send(cmd.Context(), req)
	if err != nil {
		return err
	}
	if err := output.PrintResponse(resp); err != nil {
		if resp.Status == protocol.StatusError {
			return reportedError{err}
		}
		return err
	}
	return nil
}

func send(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ephemeral, _ := rootCmd.PersistentFlags().GetBool("ephemeral"); ephemeral {
		d, err := newDispatcher(appCfg, sessionName(), logger)
		if err != nil {
			return protocol.Response{}, err
		}
		return d.Handle(ctx, req), nil
	}
	client, err := newLauncher(appCfg, logger).Ensure(ctx, sessionName())
	if err != nil {
		return protocol.Response{}, err
	}
	return client.Send(ctx, req)
}

// newSession wires a session from configuration.
func newSession(cfg config.Config, name string, log logrus.FieldLogger) (*session.Session, error) {
	provider, err := platform.NewProvider(cfg.Backend, platform.Options{Fixture: cfg.Fixture})
	if err != nil {
		return nil, model.NewError(model.KindConfiguration, "backend", err)
	}
	deps := detect.Deps{Categories: cfg.Roles}
	if cfg.Reasoning.APIKey != "" {
		if text, err := reasoning.New(cfg.ReasoningFor(false)); err == nil {
			deps.TextReasoner = text
		} else {
			log.WithError(err).Warn("structural detection unavailable")
		}
		if vision, err := reasoning.New(cfg.ReasoningFor(true)); err == nil {
			deps.VisionReasoner = vision
		} else {
			log.WithError(err).Warn("visual detection unavailable")
		}
	}
	return session.New(session.Options{
		Name:           name,
		Provider:       provider,
		Detectors:      deps,
		DetectorConfig: cfg.Detect,
		Log:            log,
	})
}

func newDispatcher(cfg config.Config, name string, log logrus.FieldLogger) (*dispatch.Dispatcher, error) {
	sess, err := newSession(cfg, name, log)
	if err != nil {
		return nil, err
	}
	return dispatch.New(sess, dispatch.Options{
		Retry:         dispatch.RetryPolicy{Attempts: cfg.Daemon.TransientRetries + 1, Backoff: cfg.Daemon.RetryBackoff},
		Settle:        cfg.Daemon.Settle,
		ScreenshotDir: cfg.Daemon.ScreenshotDir,
		Log:           log,
	}), nil
}

func newLauncher(cfg config.Config, log logrus.FieldLogger) *daemon.Launcher {
	return &daemon.Launcher{
		Registry:       discovery.NewRegistry(cfg.Daemon.RuntimeDir),
		Spawn:          daemon.ExecSpawner(daemonArgs()...),
		ReadyTimeout:   cfg.Daemon.ReadyTimeout,
		RequestTimeout: cfg.Daemon.RequestTimeout,
		Log:            log,
	}
}

// daemonArgs forwards the flags that shape a daemon's session.
func daemonArgs() []string {
	var args []string
	pf := rootCmd.PersistentFlags()
	for _, name := range []string{"config", "backend", "fixture", "transient-retries", "structural", "visual", "vision"} {
		if f := pf.Lookup(name); f != nil && f.Changed {
			args = append(args, "--"+name+"="+f.Value.String())
		}
	}
	return args
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func intArg(args []string, i int, name string) (int, error) {
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, model.Errorf(model.KindConfiguration, "args", "%s must be an integer, got %q", name, args[i])
	}
	return n, nil
}

func floatArg(args []string, i int, name string) (float64, error) {
	f, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, model.Errorf(model.KindConfiguration, "args", "%s must be a number, got %q", name, args[i])
	}
	return f, nil
}

// indexCommand builds the RunE of a command taking one element index.
func indexCommand(command string, extra func(cmd *cobra.Command, args map[string]interface{})) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		index, err := intArg(args, 0, "index")
		if err != nil {
			return err
		}
		params := map[string]interface{}{"index": index}
		if extra != nil {
			extra(cmd, params)
		}
		return runCommand(cmd, command, params)
	}
}

func usageError(format string, args ...interface{}) error {
	return model.NewError(model.KindConfiguration, "args", fmt.Errorf(format, args...))
}
