// Package protocol defines the request/response types exchanged between a
// client and a session daemon. Messages are JSON objects, one per line, one
// request and one response per connection.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mj1618/deskctl/internal/model"
)

// Daemon-only commands.
const (
	CommandPing     = "ping"
	CommandShutdown = "shutdown"
)

// Flags are per-request overrides applied before the command runs.
type Flags struct {
	// Window rebinds the session when the bound window does not match.
	Window string `json:"window,omitempty"`
	// Structural and Visual override detector selection when set.
	Structural *bool `json:"structural,omitempty"`
	Visual     *bool `json:"visual,omitempty"`
	// ReturnState refreshes after an action and attaches the new state.
	ReturnState bool `json:"return_state,omitempty"`
	// Verbose includes rects for every element in state output.
	Verbose bool `json:"verbose,omitempty"`
}

// Request is sent from a client to the daemon.
type Request struct {
	ID      string         `json:"id,omitempty"`
	Command string         `json:"command"`
	Args    map[string]any `json:"args,omitempty"`
	Flags   Flags          `json:"flags"`
}

// NewRequest builds a request with a fresh id.
func NewRequest(command string, args map[string]any, flags Flags) Request {
	return Request{ID: uuid.NewString(), Command: command, Args: args, Flags: flags}
}

// Status is the response outcome.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Response is sent from the daemon back to the client.
type Response struct {
	ID      string          `json:"id,omitempty"`
	Command string          `json:"command,omitempty"`
	Status  Status          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Kind    model.ErrorKind `json:"kind,omitempty"`
	// State is attached when the request asked for return_state.
	State *State `json:"state,omitempty"`
}

// OK builds a success response. v is marshalled into Result.
func OK(req Request, v any) Response {
	resp := Response{ID: req.ID, Command: req.Command, Status: StatusOK}
	if v == nil {
		return resp
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Fail(req, fmt.Errorf("encode result: %w", err))
	}
	resp.Result = data
	return resp
}

// Fail builds an error response carrying err's classification.
func Fail(req Request, err error) Response {
	return Response{
		ID:      req.ID,
		Command: req.Command,
		Status:  StatusError,
		Error:   err.Error(),
		Kind:    model.KindOf(err),
	}
}

// Err reconstructs the classified error of an error response, or nil.
func (r Response) Err() error {
	if r.Status != StatusError {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = "unknown error"
	}
	if r.Kind == "" {
		return fmt.Errorf("%s", msg)
	}
	return &model.Error{Kind: r.Kind, Err: fmt.Errorf("%s", msg)}
}

// Decode unmarshals Result into v.
func (r Response) Decode(v any) error {
	if len(r.Result) == 0 {
		return fmt.Errorf("response to %q has no result", r.Command)
	}
	return json.Unmarshal(r.Result, v)
}
