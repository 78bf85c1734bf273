package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/mj1618/deskctl/internal/discovery"
	"github.com/mj1618/deskctl/internal/model"
	"github.com/sirupsen/logrus"
)

// Launch defaults.
const (
	DefaultReadyTimeout = 10 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
	DefaultPingTimeout  = time.Second
)

// Spawner starts a daemon for a session in the background. The returned
// channel receives the child's exit status if it ends.
type Spawner func(ctx context.Context, name, logPath string) (<-chan error, error)

// Launcher finds the daemon for a session, starting one when needed.
type Launcher struct {
	Registry *discovery.Registry
	Spawn    Spawner
	// ReadyTimeout and PollInterval default to DefaultReadyTimeout and
	// DefaultPollInterval.
	ReadyTimeout time.Duration
	PollInterval time.Duration
	// RequestTimeout is used for the returned client.
	RequestTimeout time.Duration
	// PingTimeout bounds one readiness ping. Defaults to DefaultPingTimeout.
	PingTimeout time.Duration
	// BusyTimeout is how long to wait for a daemon that is alive but still
	// serving another request. Defaults to RequestTimeout.
	BusyTimeout time.Duration
	Log         logrus.FieldLogger
}

type daemonStatus int

const (
	daemonGone daemonStatus = iota
	daemonLive
	daemonBusy
)

// Ensure returns a client for a live daemon serving name.
func (l *Launcher) Ensure(ctx context.Context, name string) (*Client, error) {
	if name == "" {
		name = discovery.DefaultSession
	}
	c, rec, status := l.check(ctx, name)
	switch status {
	case daemonLive:
		return c, nil
	case daemonBusy:
		return l.awaitBusy(ctx, name, rec)
	}
	return l.spawn(ctx, name)
}

// spawn starts a daemon for name and waits until it answers.
func (l *Launcher) spawn(ctx context.Context, name string) (*Client, error) {
	log := l.log().WithField("session", name)
	if l.Spawn == nil {
		return nil, model.Errorf(model.KindConfiguration, "launch", "no daemon for session %q and no way to start one", name)
	}

	logPath := l.Registry.LogPath(name)
	exited, err := l.Spawn(ctx, name, logPath)
	if err != nil {
		return nil, model.NewError(model.KindTransport, "launch", fmt.Errorf("start daemon: %w", err))
	}
	log.WithField("log", logPath).Debug("daemon spawned")

	timeout := l.ReadyTimeout
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	interval := l.pollInterval()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, model.NewError(model.KindTransport, "launch", ctx.Err())
		case err := <-exited:
			if err == nil {
				err = errors.New("exited")
			}
			return nil, model.NewError(model.KindTransport, "launch", fmt.Errorf("daemon for session %q stopped during startup (%v); see %s", name, err, logPath))
		case <-deadline.C:
			return nil, model.NewError(model.KindTransport, "launch", fmt.Errorf("daemon for session %q not ready after %s; see %s", name, timeout, logPath))
		case <-tick.C:
			if c, _, status := l.check(ctx, name); status == daemonLive {
				return c, nil
			}
		}
	}
}

// awaitBusy polls a daemon that is running but not answering, typically
// because it is still serving a long request. Its record is kept. If the
// daemon goes away meanwhile a new one is spawned.
func (l *Launcher) awaitBusy(ctx context.Context, name string, rec discovery.Record) (*Client, error) {
	timeout := l.BusyTimeout
	if timeout <= 0 {
		timeout = l.RequestTimeout
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	l.log().WithFields(logrus.Fields{"session": name, "pid": rec.PID}).Debug("daemon busy, waiting")
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(l.pollInterval())
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, model.NewError(model.KindTransport, "connect", ctx.Err())
		case <-deadline.C:
			return nil, model.NewError(model.KindTransport, "connect",
				fmt.Errorf("daemon for session %q (pid %d) is busy and did not answer within %s", name, rec.PID, timeout))
		case <-tick.C:
			c, _, status := l.check(ctx, name)
			switch status {
			case daemonLive:
				return c, nil
			case daemonGone:
				return l.spawn(ctx, name)
			}
		}
	}
}

// Client returns a client for the recorded daemon without starting one.
func (l *Launcher) Client(ctx context.Context, name string) (*Client, error) {
	rec, err := l.Registry.Read(name)
	if err != nil {
		return nil, model.NewError(model.KindTransport, "connect", err)
	}
	return &Client{Addr: rec.Addr, Timeout: l.RequestTimeout}, nil
}

// check pings the recorded daemon for name. A daemon that does not answer
// is busy when its process is alive and its port still accepts connections;
// otherwise the record is stale and removed.
func (l *Launcher) check(ctx context.Context, name string) (*Client, discovery.Record, daemonStatus) {
	rec, err := l.Registry.Read(name)
	if err != nil {
		return nil, rec, daemonGone
	}
	timeout := l.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	pong, err := (&Client{Addr: rec.Addr, Timeout: timeout}).Ping(ctx)
	if err == nil && pong.Session == name {
		return &Client{Addr: rec.Addr, Timeout: l.RequestTimeout}, rec, daemonLive
	}
	log := l.log().WithFields(logrus.Fields{"session": name, "addr": rec.Addr, "pid": rec.PID})
	if err != nil && !connRefused(err) && processAlive(rec.PID) {
		log.WithError(err).Debug("daemon not answering yet")
		return nil, rec, daemonBusy
	}
	log.Debug("stale daemon record")
	if err := l.Registry.RemoveIfOwned(name, rec.PID); err != nil {
		l.log().WithError(err).Warn("could not remove stale record")
	}
	return nil, rec, daemonGone
}

func (l *Launcher) pollInterval() time.Duration {
	if l.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return l.PollInterval
}

func (l *Launcher) log() logrus.FieldLogger {
	if l.Log == nil {
		return logrus.StandardLogger()
	}
	return l.Log
}

// ExecSpawner starts the current executable as "daemon --session name"
// followed by args, detached from the caller, with output appended to the
// log file.
func ExecSpawner(args ...string) Spawner {
	return func(ctx context.Context, name, logPath string) (<-chan error, error) {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open daemon log: %w", err)
		}
		cmdArgs := append([]string{"daemon", "--session", name}, args...)
		cmd := exec.Command(exe, cmdArgs...)
		cmd.Stdout = logFile
		cmd.Stderr = logFile
		detach(cmd)
		if err := cmd.Start(); err != nil {
			logFile.Close()
			return nil, err
		}
		logFile.Close()
		exited := make(chan error, 1)
		go func() { exited <- cmd.Wait() }()
		return exited, nil
	}
}
