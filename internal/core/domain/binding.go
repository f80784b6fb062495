package domain

import (
	"fmt"
	"sort"
)

// Port bounds accepted by the resolver.
const (
	MinPort = 1
	MaxPort = 65535
)

// PortBinding is a single port the service must listen on, together with
// whether connections on it are TLS-terminated.
type PortBinding struct {
	Port int  `json:"port" yaml:"port"`
	TLS  bool `json:"tls" yaml:"tls"`
}

// String renders the binding as "9000/tcp" or "9443/tls".
func (b PortBinding) String() string {
	if b.TLS {
		return fmt.Sprintf("%d/tls", b.Port)
	}
	return fmt.Sprintf("%d/tcp", b.Port)
}

// Validate checks the port bounds.
func (b PortBinding) Validate() error {
	if b.Port < MinPort || b.Port > MaxPort {
		return &ConfigError{
			Reason: ConfigOutOfRange,
			Port:   b.Port,
			Detail: fmt.Sprintf("port must be within %d-%d", MinPort, MaxPort),
		}
	}
	return nil
}

// SortBindings sorts bindings by ascending port number in place.
func SortBindings(bindings []PortBinding) {
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Port < bindings[j].Port
	})
}

// SplitBindings separates TLS and plaintext bindings, preserving order.
func SplitBindings(bindings []PortBinding) (tlsBindings, plainBindings []PortBinding) {
	for _, b := range bindings {
		if b.TLS {
			tlsBindings = append(tlsBindings, b)
		} else {
			plainBindings = append(plainBindings, b)
		}
	}
	return tlsBindings, plainBindings
}

// HasTLS reports whether any binding requires TLS.
func HasTLS(bindings []PortBinding) bool {
	for _, b := range bindings {
		if b.TLS {
			return true
		}
	}
	return false
}
