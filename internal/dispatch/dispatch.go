// Package dispatch maps protocol requests onto session operations. It is
// shared by the one-shot CLI path, the daemon and the MCP server.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"sort"
	"time"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/protocol"
	"github.com/mj1618/deskctl/internal/session"
	"github.com/sirupsen/logrus"
)

// DefaultSettle is how long to wait after an action before capturing the
// state requested with return_state.
const DefaultSettle = 300 * time.Millisecond

// requirement is what a command needs from the session before it runs.
type requirement int

const (
	needsNothing requirement = iota
	needsWindow
	needsState
)

type command struct {
	run     func(ctx context.Context, req protocol.Request) (any, error)
	needs   requirement
	mutates bool
	help    string
}

// Options configures a Dispatcher.
type Options struct {
	Retry RetryPolicy
	// Settle is the pause before a return_state refresh.
	Settle time.Duration
	// ScreenshotDir is where screenshots without an explicit path go.
	ScreenshotDir string
	Log           logrus.FieldLogger
}

// Dispatcher executes requests against one session.
type Dispatcher struct {
	session  *session.Session
	opts     Options
	log      logrus.FieldLogger
	commands map[string]command
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a Dispatcher for s.
func New(s *session.Session, opts Options) *Dispatcher {
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = os.TempDir()
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	d := &Dispatcher{
		session: s,
		opts:    opts,
		log:     log,
		sleep:   sleepCtx,
	}
	d.commands = d.table()
	return d
}

// Session returns the session requests run against.
func (d *Dispatcher) Session() *session.Session { return d.session }

// Commands lists the supported command names.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle runs one request. It never panics: every failure, including a
// panic inside a command, becomes an error response.
func (d *Dispatcher) Handle(ctx context.Context, req protocol.Request) (resp protocol.Response) {
	log := d.log.WithFields(logrus.Fields{"command": req.Command, "request_id": req.ID})
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.WithField("stack", string(debug.Stack())).Errorf("panic: %v", r)
			resp = protocol.Fail(req, fmt.Errorf("internal error: %v", r))
		}
		entry := log.WithFields(logrus.Fields{"status": resp.Status, "duration": time.Since(start).Round(time.Millisecond)})
		if resp.Status == protocol.StatusError {
			entry = entry.WithField("kind", resp.Kind)
		}
		entry.Info("request handled")
	}()

	cmd, ok := d.commands[req.Command]
	if !ok {
		return protocol.Fail(req, model.Errorf(model.KindConfiguration, "dispatch", "unknown command %q", req.Command))
	}

	var result any
	err := d.opts.Retry.Do(ctx, func() error {
		if err := d.applyFlags(ctx, req.Flags); err != nil {
			return err
		}
		if err := d.ensure(ctx, cmd.needs); err != nil {
			return err
		}
		var err error
		result, err = cmd.run(ctx, req)
		if model.IsKind(err, model.KindTransientSubsystem) {
			log.WithError(err).Warn("transient subsystem fault")
		}
		return err
	})
	if err != nil {
		return protocol.Fail(req, err)
	}

	resp = protocol.OK(req, result)
	if req.Flags.ReturnState && cmd.mutates {
		resp.State = d.stateAfterAction(ctx, req.Flags.Verbose, log)
	}
	return resp
}

// applyFlags switches detectors and rebinds the window as requested. A
// window override that already matches the bound window is a no-op.
func (d *Dispatcher) applyFlags(ctx context.Context, f protocol.Flags) error {
	if f.Structural != nil || f.Visual != nil {
		cfg := d.session.DetectorConfig()
		if f.Structural != nil {
			cfg.Structural = *f.Structural
		}
		if f.Visual != nil {
			cfg.Visual = *f.Visual
		}
		if _, err := d.session.SwitchDetectorConfig(cfg); err != nil {
			return err
		}
	}
	if f.Window != "" {
		if w, ok := d.session.Window(); ok {
			if matched, _ := w.Matches(f.Window); matched {
				return nil
			}
		}
		if _, err := d.session.Focus(ctx, f.Window); err != nil {
			return err
		}
	}
	return nil
}

// ensure binds the foreground window and detects state on demand.
func (d *Dispatcher) ensure(ctx context.Context, need requirement) error {
	if need >= needsWindow && d.session.State() == session.Uninitialized {
		if _, err := d.session.FocusForeground(ctx); err != nil {
			return err
		}
	}
	if need >= needsState && d.session.State() != session.Ready {
		if _, err := d.session.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) stateAfterAction(ctx context.Context, verbose bool, log logrus.FieldLogger) *protocol.State {
	if err := d.sleep(ctx, d.opts.Settle); err != nil {
		return nil
	}
	snap, err := d.session.Refresh(ctx)
	if err != nil {
		log.WithError(err).Warn("could not capture state after action")
		return nil
	}
	return protocol.NewState(snap, d.session.DetectorConfig().String(), verbose)
}

func sleepCtx(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Help returns the one-line description of a command.
func (d *Dispatcher) Help(name string) string {
	return d.commands[name].help
}
