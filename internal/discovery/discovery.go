// Package discovery stores the records that let a client find the daemon
// serving a session, and derives each session's listen address.
package discovery

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Port range used for session daemons.
const (
	MinPort = 49152
	MaxPort = 65535
)

// DefaultSession is used when no session name is given.
const DefaultSession = "default"

// ErrNotFound is returned when a session has no record.
var ErrNotFound = errors.New("no daemon record")

// Record is what a running daemon publishes about itself.
type Record struct {
	SessionName string `json:"session_name"`
	PID         int    `json:"pid"`
	Addr        string `json:"addr"`
}

// Registry reads and writes records in one directory.
type Registry struct {
	Dir string
}

// NewRegistry returns a registry in dir, or the system temp dir when dir is
// empty.
func NewRegistry(dir string) *Registry {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Registry{Dir: dir}
}

// Key maps a session name to a file-name-safe key.
func Key(name string) string {
	if name == "" {
		name = DefaultSession
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

// Path returns the record file for a session.
func (r *Registry) Path(name string) string {
	return filepath.Join(r.Dir, "deskctl-session-"+Key(name)+".json")
}

// LogPath returns the daemon log file for a session.
func (r *Registry) LogPath(name string) string {
	return filepath.Join(r.Dir, "deskctl-session-"+Key(name)+".log")
}

// Write publishes rec atomically.
func (r *Registry) Write(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	path := r.Path(rec.SessionName)
	tmp, err := os.CreateTemp(r.Dir, ".deskctl-session-*")
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Read loads the record for a session. A missing record is ErrNotFound.
func (r *Registry) Read(name string) (Record, error) {
	data, err := os.ReadFile(r.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, fmt.Errorf("session %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse record %s: %w", r.Path(name), err)
	}
	return rec, nil
}

// Remove deletes a session's record. A missing record is not an error.
func (r *Registry) Remove(name string) error {
	if err := os.Remove(r.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

// RemoveIfOwned deletes the record only when it belongs to pid, so a daemon
// never removes a record published by its successor.
func (r *Registry) RemoveIfOwned(name string, pid int) error {
	rec, err := r.Read(name)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.PID != pid {
		return nil
	}
	return r.Remove(name)
}

// List returns every readable record in the directory.
func (r *Registry) List() ([]Record, error) {
	matches, err := filepath.Glob(filepath.Join(r.Dir, "deskctl-session-*.json"))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	var out []Record
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		var rec Record
		if json.Unmarshal(data, &rec) != nil || rec.SessionName == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Port derives the daemon port for a session name.
func Port(name string) int {
	if name == "" {
		name = DefaultSession
	}
	sum := sha256.Sum256([]byte(name))
	span := uint32(MaxPort - MinPort + 1)
	return MinPort + int(binary.BigEndian.Uint32(sum[:4])%span)
}

// Addr derives the loopback listen address for a session name.
func Addr(name string) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(Port(name)))
}
