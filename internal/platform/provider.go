package platform

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Provider bundles all platform backends for one desktop.
type Provider struct {
	Accessor      Accessor
	Executor      Executor
	WindowManager WindowManager
	Screenshotter Screenshotter
}

// Options configures backend construction.
type Options struct {
	// Fixture is the desktop description file for file-backed backends.
	Fixture string
}

// Factory builds a Provider for a named backend.
type Factory func(opts Options) (*Provider, error)

// ErrUnsupported is returned when no native backend exists for this OS.
var ErrUnsupported = fmt.Errorf("deskctl has no native backend for %s/%s; use --backend replay", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by a native platform package via init().
var NewProviderFunc func() (*Provider, error)

var factories = map[string]Factory{}

// Register makes a backend available under name. It is meant to be called
// from init functions.
func Register(name string, f Factory) {
	factories[name] = f
}

// Backends lists registered backend names, including "native".
func Backends() []string {
	names := []string{"native"}
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

// NewProvider returns the Provider for backend. An empty name or "native"
// selects the OS backend.
func NewProvider(backend string, opts Options) (*Provider, error) {
	switch backend {
	case "", "native":
		if NewProviderFunc == nil {
			return nil, ErrUnsupported
		}
		return NewProviderFunc()
	}
	f, ok := factories[backend]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %s)", backend, strings.Join(Backends(), ", "))
	}
	return f(opts)
}
