package daemon

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/protocol"
)

// DefaultRequestTimeout bounds one request round trip.
const DefaultRequestTimeout = 30 * time.Second

// Client sends requests to a daemon.
type Client struct {
	Addr    string
	Timeout time.Duration
}

// Send performs one round trip. Connection and codec failures are transport
// errors; a daemon-side failure comes back as an error response.
func (c *Client) Send(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return protocol.Response{}, model.NewError(model.KindTransport, "connect", err)
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	if err := protocol.Write(conn, req); err != nil {
		return protocol.Response{}, model.NewError(model.KindTransport, "send", err)
	}
	var resp protocol.Response
	if err := protocol.Read(conn, &resp); err != nil {
		return protocol.Response{}, model.NewError(model.KindTransport, "receive", fmt.Errorf("%s to %s: %w", req.Command, c.Addr, err))
	}
	return resp, nil
}

// Ping checks that a daemon answers.
func (c *Client) Ping(ctx context.Context) (protocol.Pong, error) {
	return c.control(ctx, protocol.CommandPing)
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown(ctx context.Context) (protocol.Pong, error) {
	return c.control(ctx, protocol.CommandShutdown)
}

func (c *Client) control(ctx context.Context, command string) (protocol.Pong, error) {
	resp, err := c.Send(ctx, protocol.NewRequest(command, nil, protocol.Flags{}))
	if err != nil {
		return protocol.Pong{}, err
	}
	if err := resp.Err(); err != nil {
		return protocol.Pong{}, err
	}
	var pong protocol.Pong
	if err := resp.Decode(&pong); err != nil {
		return protocol.Pong{}, model.NewError(model.KindTransport, command, err)
	}
	return pong, nil
}
