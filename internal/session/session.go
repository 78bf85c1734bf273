// Package session holds the state one controller keeps between commands: the
// bound window, the current snapshot and the detector configuration.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/mj1618/deskctl/internal/detect"
	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/platform"
	"github.com/sirupsen/logrus"
)

// State is the session lifecycle position.
type State int

const (
	// Uninitialized: no window bound.
	Uninitialized State = iota
	// Bound: a window is bound but there is no snapshot for it.
	Bound
	// Ready: a window is bound and the snapshot belongs to it.
	Ready
)

func (s State) String() string {
	switch s {
	case Bound:
		return "bound"
	case Ready:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Options configures a Session.
type Options struct {
	Name     string
	Provider *platform.Provider
	// Detectors supplies reasoners and categories. Accessor and
	// Screenshotter default to the provider's.
	Detectors      detect.Deps
	DetectorConfig detect.Config
	Log            logrus.FieldLogger
	Now            func() time.Time
	// LaunchTimeout bounds how long Launch waits for the application's
	// window. Defaults to DefaultLaunchTimeout.
	LaunchTimeout time.Duration
}

// Launch polling defaults.
const (
	DefaultLaunchTimeout = 10 * time.Second
	launchPollInterval   = 250 * time.Millisecond
)

// Session is not safe for concurrent use; callers serialize access.
type Session struct {
	name     string
	provider *platform.Provider
	deps     detect.Deps
	cfg      detect.Config
	pipeline *detect.Pipeline
	log      logrus.FieldLogger
	now      func() time.Time
	launch   time.Duration

	window   *model.Window
	snapshot *model.Snapshot
	previous *model.Snapshot
}

// New creates an Uninitialized session.
func New(opts Options) (*Session, error) {
	if opts.Provider == nil || opts.Provider.Accessor == nil {
		return nil, model.Errorf(model.KindConfiguration, "session", "no platform backend")
	}
	deps := opts.Detectors
	if deps.Accessor == nil {
		deps.Accessor = opts.Provider.Accessor
	}
	if deps.Screenshotter == nil {
		deps.Screenshotter = opts.Provider.Screenshotter
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	deps.Log = log
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	launch := opts.LaunchTimeout
	if launch <= 0 {
		launch = DefaultLaunchTimeout
	}

	p, err := detect.Build(opts.DetectorConfig, deps)
	if err != nil {
		return nil, err
	}
	return &Session{
		name:     opts.Name,
		provider: opts.Provider,
		deps:     deps,
		cfg:      opts.DetectorConfig,
		pipeline: p,
		log:      log.WithField("session", opts.Name),
		now:      now,
		launch:   launch,
	}, nil
}

// Name returns the session name.
func (s *Session) Name() string { return s.name }

// State reports the lifecycle position.
func (s *Session) State() State {
	switch {
	case s.window == nil:
		return Uninitialized
	case s.snapshot == nil:
		return Bound
	default:
		return Ready
	}
}

// Window returns the bound window.
func (s *Session) Window() (model.Window, bool) {
	if s.window == nil {
		return model.Window{}, false
	}
	return *s.window, true
}

// Snapshot returns the current snapshot, or nil.
func (s *Session) Snapshot() *model.Snapshot { return s.snapshot }

// Previous returns the snapshot replaced by the last refresh of the same
// window, or nil.
func (s *Session) Previous() *model.Snapshot { return s.previous }

// DetectorConfig returns the active detector configuration.
func (s *Session) DetectorConfig() detect.Config { return s.cfg }

// ListWindows enumerates top-level windows.
func (s *Session) ListWindows(ctx context.Context) ([]model.Window, error) {
	windows, err := s.provider.Accessor.ListWindows(ctx)
	if err != nil {
		return nil, model.Classify(model.KindHardDetector, "list windows", err)
	}
	return windows, nil
}

// Focus binds the first window matching identifier: an exact handle id wins,
// otherwise the first case-insensitive substring match of title or process in
// enumeration order. The snapshot is invalidated.
func (s *Session) Focus(ctx context.Context, identifier string) (model.Window, error) {
	windows, err := s.ListWindows(ctx)
	if err != nil {
		return model.Window{}, err
	}
	w, ok := model.FindWindow(windows, identifier)
	if !ok {
		return model.Window{}, model.Errorf(model.KindResolution, "focus", "no window matches %q", identifier)
	}
	s.bind(ctx, w)
	return w, nil
}

// FocusForeground binds the focused window, or the first one when none
// reports focus.
func (s *Session) FocusForeground(ctx context.Context) (model.Window, error) {
	windows, err := s.ListWindows(ctx)
	if err != nil {
		return model.Window{}, err
	}
	if len(windows) == 0 {
		return model.Window{}, model.Errorf(model.KindResolution, "focus", "no windows are open")
	}
	w := windows[0]
	for _, cand := range windows {
		if cand.Focused {
			w = cand
			break
		}
	}
	s.bind(ctx, w)
	return w, nil
}

func (s *Session) bind(ctx context.Context, w model.Window) {
	if s.window == nil || s.window.Handle != w.Handle {
		s.previous = nil
	} else {
		s.previous = s.snapshot
	}
	s.window = &w
	s.snapshot = nil

	if s.provider.WindowManager == nil {
		return
	}
	if err := s.provider.WindowManager.Activate(ctx, w); err != nil {
		s.log.WithError(err).WithField("window", w.Title).Warn("could not raise window")
	}
}

// Launch starts app, waits for a window whose title or process contains
// its name and binds it.
func (s *Session) Launch(ctx context.Context, app string) (model.Window, error) {
	name := platform.AppName(app)
	if name == "" {
		return model.Window{}, model.Errorf(model.KindConfiguration, "launch", "missing application")
	}
	if s.provider.WindowManager == nil {
		return model.Window{}, model.NewError(model.KindConfiguration, "launch", platform.ErrUnsupported)
	}
	if err := s.provider.WindowManager.Launch(ctx, app); err != nil {
		return model.Window{}, model.Classify(model.KindAction, "launch", err)
	}

	deadline := time.NewTimer(s.launch)
	defer deadline.Stop()
	tick := time.NewTicker(launchPollInterval)
	defer tick.Stop()
	for {
		windows, err := s.ListWindows(ctx)
		if err != nil {
			return model.Window{}, err
		}
		if w, ok := model.FindWindow(windows, name); ok {
			s.bind(ctx, w)
			s.log.WithFields(logrus.Fields{"app": app, "window": w.Title}).Info("application launched")
			return w, nil
		}
		select {
		case <-ctx.Done():
			return model.Window{}, model.NewError(model.KindAction, "launch", ctx.Err())
		case <-deadline.C:
			return model.Window{}, model.Errorf(model.KindAction, "launch", "started %q but no window matching %q appeared within %s", app, name, s.launch)
		case <-tick.C:
		}
	}
}

// Close closes the bound window and returns the session to Uninitialized.
// If closing fails the binding is kept.
func (s *Session) Close(ctx context.Context) (model.Window, error) {
	if s.window == nil {
		return model.Window{}, model.Errorf(model.KindConfiguration, "close", "no window bound; focus a window first")
	}
	if s.provider.WindowManager == nil {
		return model.Window{}, model.NewError(model.KindConfiguration, "close", platform.ErrUnsupported)
	}
	w := *s.window
	if err := s.provider.WindowManager.Close(ctx, w); err != nil {
		return model.Window{}, model.Classify(model.KindAction, "close", err)
	}
	s.window = nil
	s.snapshot = nil
	s.previous = nil
	s.log.WithField("window", w.Title).Info("window closed")
	return w, nil
}

// Refresh runs detection on the bound window and replaces the snapshot. On
// failure the session is left exactly as it was.
func (s *Session) Refresh(ctx context.Context) (*model.Snapshot, error) {
	if s.window == nil {
		return nil, model.Errorf(model.KindConfiguration, "refresh", "no window bound; focus a window first")
	}
	w := *s.window
	elements, err := s.pipeline.Run(ctx, w)
	if err != nil {
		return nil, err
	}
	snap, err := model.NewSnapshot(w, elements, s.now())
	if err != nil {
		return nil, model.NewError(model.KindHardDetector, "refresh", err)
	}
	if s.snapshot != nil {
		s.previous = s.snapshot
	}
	s.snapshot = snap
	s.log.WithFields(logrus.Fields{"window": w.Title, "elements": snap.Len()}).Info("state refreshed")
	return snap, nil
}

// SwitchDetectorConfig rebuilds the detector pipeline when cfg differs from
// the active one. The snapshot is kept and no detection runs. It reports
// whether anything changed.
func (s *Session) SwitchDetectorConfig(cfg detect.Config) (bool, error) {
	if cfg == s.cfg {
		return false, nil
	}
	p, err := detect.Build(cfg, s.deps)
	if err != nil {
		return false, err
	}
	s.log.WithFields(logrus.Fields{"from": s.cfg.String(), "to": cfg.String()}).Info("detectors switched")
	s.cfg = cfg
	s.pipeline = p
	return true, nil
}

// Resolve maps an index in the current snapshot to its target.
func (s *Session) Resolve(index int) (model.Target, error) {
	if s.snapshot == nil {
		return model.Target{}, model.Errorf(model.KindConfiguration, "resolve", "no current state; run state first")
	}
	return s.snapshot.Resolve(index)
}

// Screenshot captures the bound window.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if s.window == nil {
		return nil, model.Errorf(model.KindConfiguration, "screenshot", "no window bound; focus a window first")
	}
	if s.provider.Screenshotter == nil {
		return nil, model.NewError(model.KindConfiguration, "screenshot", platform.ErrUnsupported)
	}
	data, err := s.provider.Screenshotter.CaptureWindow(ctx, *s.window)
	if err != nil {
		return nil, model.Classify(model.KindAction, "screenshot", err)
	}
	return data, nil
}

func (s *Session) String() string {
	title := ""
	if s.window != nil {
		title = s.window.Title
	}
	return fmt.Sprintf("session %q (%s, window %q)", s.name, s.State(), title)
}
