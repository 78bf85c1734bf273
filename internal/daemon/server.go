// Package daemon runs a session in a long-lived process and talks to it over
// loopback TCP. The server handles one connection at a time; each connection
// carries one request line and one response line.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/mj1618/deskctl/internal/discovery"
	"github.com/mj1618/deskctl/internal/dispatch"
	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/protocol"
	"github.com/sirupsen/logrus"
)

// DefaultReadTimeout bounds how long the server waits for a request line.
const DefaultReadTimeout = 30 * time.Second

// Server serves one session.
type Server struct {
	Name       string
	Addr       string
	Dispatcher *dispatch.Dispatcher
	Registry   *discovery.Registry
	Log        logrus.FieldLogger
	// ReadTimeout defaults to DefaultReadTimeout.
	ReadTimeout time.Duration

	pid      int
	addr     string
	stopOnce sync.Once
	stop     chan struct{}
}

// ListenAndServe listens, checks that it can answer its own ping, publishes
// the discovery record and serves until shutdown or ctx is done. The record
// is removed on the way out.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.Addr
	if addr == "" {
		addr = discovery.Addr(s.Name)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener. It closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.Log == nil {
		s.Log = logrus.StandardLogger()
	}
	if s.Registry == nil {
		s.Registry = discovery.NewRegistry("")
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	s.pid = os.Getpid()
	s.addr = ln.Addr().String()
	s.stop = make(chan struct{})
	log := s.Log.WithFields(logrus.Fields{"session": s.Name, "addr": s.addr})

	loopDone := make(chan error, 1)
	go func() { loopDone <- s.acceptLoop(ctx, ln, log) }()
	go func() {
		select {
		case <-ctx.Done():
		case <-s.stop:
		}
		ln.Close()
	}()

	client := &Client{Addr: s.addr, Timeout: 5 * time.Second}
	if _, err := client.Ping(ctx); err != nil {
		s.shutdown()
		<-loopDone
		return fmt.Errorf("daemon did not answer its own ping: %w", err)
	}
	rec := discovery.Record{SessionName: s.Name, PID: s.pid, Addr: s.addr}
	if err := s.Registry.Write(rec); err != nil {
		s.shutdown()
		<-loopDone
		return err
	}
	log.WithField("pid", s.pid).Info("daemon ready")

	err := <-loopDone
	if rmErr := s.Registry.RemoveIfOwned(s.Name, s.pid); rmErr != nil {
		log.WithError(rmErr).Warn("could not remove discovery record")
	}
	log.Info("daemon stopped")
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) shutdown() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Server) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, log logrus.FieldLogger) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.stopped() || ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.serveConn(ctx, conn, log)
		if s.stopped() {
			return nil
		}
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn, log logrus.FieldLogger) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))

	var req protocol.Request
	if err := protocol.Read(conn, &req); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return
		}
		log.WithError(err).Warn("bad request")
		s.reply(conn, protocol.Fail(req, model.NewError(model.KindConfiguration, "read request", err)), log)
		return
	}
	conn.SetReadDeadline(time.Time{})
	s.reply(conn, s.handle(ctx, req), log)
}

func (s *Server) reply(conn net.Conn, resp protocol.Response, log logrus.FieldLogger) {
	conn.SetWriteDeadline(time.Now().Add(s.ReadTimeout))
	if err := protocol.Write(conn, resp); err != nil {
		log.WithError(err).WithField("request_id", resp.ID).Warn("client went away before the response")
	}
}

func (s *Server) handle(ctx context.Context, req protocol.Request) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.Log.WithField("stack", string(debug.Stack())).Errorf("panic: %v", r)
			resp = protocol.Fail(req, fmt.Errorf("internal error: %v", r))
		}
	}()
	switch req.Command {
	case protocol.CommandPing:
		return protocol.OK(req, protocol.Pong{Session: s.Name, PID: s.pid, Addr: s.addr})
	case protocol.CommandShutdown:
		s.shutdown()
		return protocol.OK(req, protocol.Pong{Session: s.Name, PID: s.pid, Addr: s.addr})
	}
	if s.Dispatcher == nil {
		return protocol.Fail(req, model.Errorf(model.KindConfiguration, "daemon", "no session attached"))
	}
	return s.Dispatcher.Handle(ctx, req)
}
