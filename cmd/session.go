package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mj1618/deskctl/internal/daemon"
	"github.com/mj1618/deskctl/internal/discovery"
	"github.com/mj1618/deskctl/internal/output"
	"github.com/spf13/cobra"
)

// SessionInfo describes one recorded session daemon.
type SessionInfo struct {
	Session string `yaml:"session" json:"session"`
	PID     int    `yaml:"pid"     json:"pid"`
	Addr    string `yaml:"addr"    json:"addr"`
	Alive   bool   `yaml:"alive"   json:"alive"`
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage session daemons",
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the session's daemon is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := querySession(ctxOrBackground(cmd), sessionName())
		if err != nil {
			return err
		}
		return printSessions([]SessionInfo{info})
	},
}

var sessionStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the session's daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := sessionName()
		client, err := newLauncher(appCfg, logger).Client(ctxOrBackground(cmd), name)
		if err != nil {
			if errors.Is(err, discovery.ErrNotFound) {
				return output.Print(fmt.Sprintf("Session %q is not running", name))
			}
			return err
		}
		pong, err := client.Shutdown(ctxOrBackground(cmd))
		if err != nil {
			return err
		}
		return output.Print(fmt.Sprintf("Stopped session %q (pid %d)", pong.Session, pong.PID))
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded session daemons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := discovery.NewRegistry(appCfg.Daemon.RuntimeDir).List()
		if err != nil {
			return err
		}
		infos := make([]SessionInfo, 0, len(recs))
		for _, rec := range recs {
			infos = append(infos, pingRecord(ctxOrBackground(cmd), rec))
		}
		return printSessions(infos)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStatusCmd, sessionStopCmd, sessionListCmd)
}

func ctxOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func querySession(ctx context.Context, name string) (SessionInfo, error) {
	rec, err := discovery.NewRegistry(appCfg.Daemon.RuntimeDir).Read(name)
	if errors.Is(err, discovery.ErrNotFound) {
		return SessionInfo{Session: name}, nil
	}
	if err != nil {
		return SessionInfo{}, err
	}
	return pingRecord(ctx, rec), nil
}

func pingRecord(ctx context.Context, rec discovery.Record) SessionInfo {
	info := SessionInfo{Session: rec.SessionName, PID: rec.PID, Addr: rec.Addr}
	c := &daemon.Client{Addr: rec.Addr, Timeout: time.Second}
	if pong, err := c.Ping(ctx); err == nil && pong.Session == rec.SessionName {
		info.Alive = true
	}
	return info
}

func printSessions(infos []SessionInfo) error {
	if output.OutputFormat != output.FormatText {
		return output.Print(infos)
	}
	if len(infos) == 0 {
		return output.Print("No sessions")
	}
	var b strings.Builder
	for _, in := range infos {
		switch {
		case in.Alive:
			fmt.Fprintf(&b, "%s: running (pid %d, %s)\n", in.Session, in.PID, in.Addr)
		case in.PID != 0:
			fmt.Fprintf(&b, "%s: not responding (pid %d, %s)\n", in.Session, in.PID, in.Addr)
		default:
			fmt.Fprintf(&b, "%s: not running\n", in.Session)
		}
	}
	return output.Print(b.String())
}
