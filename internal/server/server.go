// Package server exposes a session to MCP clients. Every dispatcher command
// becomes a tool; calls are serialized because the session is single-threaded.
package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/deskctl/internal/dispatch"
	"github.com/mj1618/deskctl/internal/output"
	"github.com/mj1618/deskctl/internal/protocol"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Addr      string
}

// Server wraps the MCP server around one dispatcher.
type Server struct {
	dispatcher *dispatch.Dispatcher
	mu         sync.Mutex
	mcp        *mcpserver.MCPServer
	log        logrus.FieldLogger
}

// New creates a Server with one tool per dispatcher command.
func New(d *dispatch.Dispatcher, version string, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		dispatcher: d,
		log:        log,
		mcp:        mcpserver.NewMCPServer("deskctl", version),
	}
	s.registerTools()
	return s
}

// Serve runs the configured transport until it fails or the client leaves.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case TransportStdio, "":
		return mcpserver.ServeStdio(s.mcp)
	case TransportHTTP, "streamable-http":
		s.log.WithField("addr", cfg.Addr).Info("serving MCP over streamable HTTP")
		return mcpserver.NewStreamableHTTPServer(s.mcp).Start(cfg.Addr)
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or http)", cfg.Transport)
	}
}

// ToolName maps a command to its tool name.
func ToolName(command string) string {
	return strings.ReplaceAll(command, "-", "_")
}

var (
	windowOpt      = mcp.WithString("window", mcp.Description("Rebind to the window with this handle, or whose title or process contains this text"))
	returnStateOpt = mcp.WithBoolean("return_state", mcp.Description("Refresh and return the UI state after the action"))
	verboseOpt     = mcp.WithBoolean("verbose", mcp.Description("Include rects for every element"))
	indexOpt       = mcp.WithNumber("index", mcp.Description("Element index from the last state"), mcp.Required())
)

// toolParams lists the parameters of each command's tool beyond the
// description.
func toolParams(command string) []mcp.ToolOption {
	action := []mcp.ToolOption{windowOpt, returnStateOpt, verboseOpt}
	switch command {
	case "state":
		return []mcp.ToolOption{
			windowOpt, verboseOpt,
			mcp.WithBoolean("structural", mcp.Description("Add language-model inferred elements")),
			mcp.WithBoolean("visual", mcp.Description("Add elements found in a screenshot")),
			mcp.WithString("text", mcp.Description("Only show elements whose label contains this text")),
			mcp.WithString("type", mcp.Description("Only show these comma-separated control types")),
			mcp.WithBoolean("diff", mcp.Description("Report changes since the previous state")),
		}
	case "wait":
		return []mcp.ToolOption{
			windowOpt,
			mcp.WithNumber("seconds", mcp.Description("Seconds to wait (default 1)")),
			mcp.WithNumber("visible", mcp.Description("Instead wait until this element index is visible")),
			mcp.WithNumber("enabled", mcp.Description("Instead wait until this element index is enabled")),
			mcp.WithNumber("timeout", mcp.Description("Give up on visible or enabled after this many seconds (default 10)")),
		}
	case "focus":
		return []mcp.ToolOption{mcp.WithString("window", mcp.Description("Window handle, or text in its title or process"), mcp.Required())}
	case "launch":
		return []mcp.ToolOption{
			returnStateOpt, verboseOpt,
			mcp.WithString("app", mcp.Description("Executable name or path, e.g. notepad.exe"), mcp.Required()),
		}
	case "close":
		return []mcp.ToolOption{windowOpt}
	case "inspect", "get-rect", "get-text", "get-value":
		return []mcp.ToolOption{windowOpt, indexOpt}
	case "screenshot":
		return []mcp.ToolOption{
			windowOpt,
			mcp.WithString("path", mcp.Description("Where to save the PNG")),
			mcp.WithBoolean("annotated", mcp.Description("Draw element boxes and indices")),
		}
	case "click":
		return append(action, indexOpt,
			mcp.WithBoolean("right", mcp.Description("Right-click")),
			mcp.WithBoolean("double", mcp.Description("Double-click")))
	case "dblclick", "rightclick":
		return append(action, indexOpt)
	case "input":
		return append(action, indexOpt, mcp.WithString("text", mcp.Description("Replacement text"), mcp.Required()))
	case "select":
		return append(action, indexOpt, mcp.WithString("value", mcp.Description("Value to pick"), mcp.Required()))
	case "scroll":
		return append(action, indexOpt,
			mcp.WithString("direction", mcp.Description("up, down, left or right"), mcp.Required()),
			mcp.WithNumber("amount", mcp.Description("Scroll clicks (default 3)")))
	case "drag":
		return append(action, indexOpt,
			mcp.WithNumber("x2", mcp.Description("Destination X"), mcp.Required()),
			mcp.WithNumber("y2", mcp.Description("Destination Y"), mcp.Required()),
			mcp.WithString("button", mcp.Description("left, right or middle")),
			mcp.WithNumber("duration", mcp.Description("Drag duration in seconds (default 0.5)")))
	case "keys":
		return append(action,
			mcp.WithString("keys", mcp.Description("Key combo, e.g. ctrl+s"), mcp.Required()),
			mcp.WithNumber("target", mcp.Description("Element index to send the keys to")))
	case "type":
		return append(action, mcp.WithString("text", mcp.Description("Text to type"), mcp.Required()))
	case "click-at":
		return append(action,
			mcp.WithNumber("x", mcp.Description("Screen X"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Screen Y"), mcp.Required()),
			mcp.WithBoolean("right", mcp.Description("Right-click")),
			mcp.WithBoolean("double", mcp.Description("Double-click")))
	case "drag-at":
		return append(action,
			mcp.WithNumber("x1", mcp.Description("Start X"), mcp.Required()),
			mcp.WithNumber("y1", mcp.Description("Start Y"), mcp.Required()),
			mcp.WithNumber("x2", mcp.Description("End X"), mcp.Required()),
			mcp.WithNumber("y2", mcp.Description("End Y"), mcp.Required()),
			mcp.WithString("button", mcp.Description("left, right or middle")),
			mcp.WithNumber("duration", mcp.Description("Drag duration in seconds (default 0.5)")))
	default:
		return nil
	}
}

func (s *Server) registerTools() {
	for _, command := range s.dispatcher.Commands() {
		opts := append([]mcp.ToolOption{mcp.WithDescription(s.dispatcher.Help(command))}, toolParams(command)...)
		s.mcp.AddTool(mcp.NewTool(ToolName(command), opts...), s.handler(command))
	}
}

// handler adapts a dispatcher command to an MCP tool handler.
func (s *Server) handler(command string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, flags := splitFlags(command, request.GetArguments())

		s.mu.Lock()
		resp := s.dispatcher.Handle(ctx, protocol.NewRequest(command, args, flags))
		s.mu.Unlock()

		if resp.Status == protocol.StatusError {
			return mcp.NewToolResultError(resultToText(map[string]interface{}{"error": resp.Error, "kind": resp.Kind})), nil
		}
		result, err := output.DecodeResult(resp)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		body := map[string]interface{}{"result": result}
		if resp.State != nil {
			body["state"] = resp.State
		}
		out := mcp.NewToolResultText(resultToText(body))
		if shot, ok := result.(protocol.Screenshot); ok {
			if img, err := imageContent(shot.Path); err == nil {
				out.Content = append(out.Content, img)
			} else {
				s.log.WithError(err).Warn("could not attach screenshot")
			}
		}
		return out, nil
	}
}

// splitFlags separates per-request flags from command arguments.
func splitFlags(command string, params map[string]interface{}) (map[string]interface{}, protocol.Flags) {
	var flags protocol.Flags
	args := make(map[string]interface{}, len(params))
	for k, v := range params {
		args[k] = v
	}
	flags.ReturnState = protocol.BoolParam(args, "return_state", false)
	flags.Verbose = protocol.BoolParam(args, "verbose", false)
	delete(args, "return_state")
	delete(args, "verbose")
	for _, key := range []string{"structural", "visual"} {
		if _, ok := args[key]; !ok {
			continue
		}
		b := protocol.BoolParam(args, key, false)
		if key == "structural" {
			flags.Structural = &b
		} else {
			flags.Visual = &b
		}
		delete(args, key)
	}
	// focus takes the window as its argument; elsewhere it is an override.
	if w, ok := args["window"]; ok && command != "focus" {
		flags.Window = fmt.Sprint(w)
		delete(args, "window")
	}
	return args, flags
}

// resultToText serializes a tool result to YAML for the MCP response.
func resultToText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func imageContent(path string) (mcp.Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return mcp.ImageContent{
		Type:     "image",
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: "image/png",
	}, nil
}
