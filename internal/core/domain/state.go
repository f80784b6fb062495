package domain

import (
	"fmt"
	"time"
)

// ListenerStatus is the lifecycle status of one listener.
//
// Transitions: Starting -> Listening -> Stopped, with Failed reachable
// from Starting (bind error) and from Listening (unusable socket).
type ListenerStatus int

const (
	StatusStarting ListenerStatus = iota
	StatusListening
	StatusFailed
	StatusStopped
)

// String returns the status name.
func (s ListenerStatus) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusListening:
		return "listening"
	case StatusFailed:
		return "failed"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s ListenerStatus) IsTerminal() bool {
	return s == StatusFailed || s == StatusStopped
}

// MarshalText implements encoding.TextMarshaler.
func (s ListenerStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ListenerStatus) UnmarshalText(text []byte) error {
	for _, st := range []ListenerStatus{StatusStarting, StatusListening, StatusFailed, StatusStopped} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown listener status %q", text)
}

// ListenerState is a point-in-time snapshot of a listener.
type ListenerState struct {
	Binding PortBinding    `json:"binding" yaml:"binding"`
	Addr    string         `json:"addr,omitempty" yaml:"addr,omitempty"`
	Status  ListenerStatus `json:"status" yaml:"status"`
	Error   string         `json:"error,omitempty" yaml:"error,omitempty"`
	Since   time.Time      `json:"since" yaml:"since"`
}
